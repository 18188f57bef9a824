package parser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-agent-go/internal/types"
)

func baseSummaryForTest() *types.ConsolidatedSummary {
	return &types.ConsolidatedSummary{
		CandidateProfile: types.CandidateProfile{Name: "Jane Doe", Title: "Senior Backend Engineer"},
		ProfessionalSummary: types.ProfessionalSummary{
			Overview:     "Professional with a strong background.",
			KeyStrengths: []string{"Go", "PostgreSQL"},
			CareerLevel:  "Senior",
		},
		TechnicalProfile: types.TechnicalProfile{CoreTechnologies: []string{"Go"}},
		InterviewReadiness: types.InterviewReadiness{
			TechQuestionTopics: []string{"Go", "PostgreSQL"},
		},
	}
}

func TestEnhanceReplacesWholesaleOnSuccess(t *testing.T) {
	enhancedJSON := `{
	  "candidateProfile": {"name": "Jane Doe", "title": "Senior Backend Engineer"},
	  "professionalSummary": {
	    "overview": "Jane is a seasoned backend engineer who has spent eight years building payment systems.",
	    "keyStrengths": ["Go", "PostgreSQL", "Mentoring"],
	    "careerLevel": "Senior",
	    "industryExpertise": ["Fintech"]
	  }
	}`
	mockModel := &mockChatModel{mockResponse: enhancedJSON}
	enhancer := NewSummaryEnhancer(mockModel, nil)

	base := baseSummaryForTest()
	result, enhanced := enhancer.Enhance(context.Background(), base, nil, "")

	assert.True(t, enhanced)
	require.NotSame(t, base, result, "成功时应整体替换")
	assert.Contains(t, result.ProfessionalSummary.Overview, "seasoned backend engineer")
	assert.Equal(t, []string{"Go", "PostgreSQL", "Mentoring"}, result.ProfessionalSummary.KeyStrengths)
}

func TestEnhanceFallsBackSilently(t *testing.T) {
	testCases := []struct {
		name  string
		model *mockChatModel
	}{
		{"模型错误", &mockChatModel{mockErr: errors.New("invalid api key")}},
		{"无效响应", &mockChatModel{mockResponse: "这不是JSON"}},
		{"损坏的JSON", &mockChatModel{mockResponse: `{"candidateProfile": {`}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enhancer := NewSummaryEnhancer(tc.model, nil, WithEnhancerRetries(0, time.Millisecond))
			base := baseSummaryForTest()

			result, enhanced := enhancer.Enhance(context.Background(), base, nil, "")
			assert.False(t, enhanced)
			assert.Same(t, base, result, "失败时应原样返回确定性摘要")
		})
	}
}

func TestBuildInterviewContextStaticFallback(t *testing.T) {
	mockModel := &mockChatModel{mockErr: errors.New("invalid api key")}
	enhancer := NewSummaryEnhancer(mockModel, nil, WithEnhancerRetries(0, time.Millisecond))

	summary := baseSummaryForTest()
	interviewCtx := enhancer.BuildInterviewContext(context.Background(), summary, "")

	require.NotNil(t, interviewCtx)
	assert.Equal(t, summary.InterviewReadiness.TechQuestionTopics, interviewCtx.TechnicalTalkingPoints,
		"静态模板应复用摘要中已有的技术话题")
	assert.NotEmpty(t, interviewCtx.BehavioralExamples)
	assert.NotEmpty(t, interviewCtx.SuggestedQuestions)
}

func TestBuildInterviewContextFromModel(t *testing.T) {
	// 响应遵循提示词声明的格式：companyAlignment是一段叙述文本，不是列表
	mockModel := &mockChatModel{mockResponse: `{
	  "technicalTalkingPoints": ["Go concurrency patterns"],
	  "behavioralExamples": ["Leading the pipeline migration"],
	  "companyAlignment": "Payments domain experience aligns with the target role.",
	  "growthAreas": ["Frontend exposure"],
	  "suggestedQuestions": ["How is on-call structured?"]
	}`}
	enhancer := NewSummaryEnhancer(mockModel, nil)

	summary := baseSummaryForTest()
	interviewCtx := enhancer.BuildInterviewContext(context.Background(), summary, "")
	require.NotNil(t, interviewCtx)
	assert.Equal(t, []string{"Go concurrency patterns"}, interviewCtx.TechnicalTalkingPoints,
		"格式规范的响应必须被采用，而不是落入静态模板")
	assert.Equal(t, "Payments domain experience aligns with the target role.", interviewCtx.CompanyAlignment)
	assert.NotEqual(t, summary.InterviewReadiness.TechQuestionTopics, interviewCtx.TechnicalTalkingPoints)
}

func TestFormatTopSectionsTruncatesAndOrders(t *testing.T) {
	long := strings.Repeat("x", 800)
	sections := []*types.DocumentSection{
		{Title: "Contact Information", Content: "low priority", Type: types.SectionContact, Priority: 6},
		{Title: "Work Experience", Content: long, Type: types.SectionExperience, Priority: 10},
		{Title: "Technical Skills", Content: "skills", Type: types.SectionSkills, Priority: 9},
		{Title: "Professional Summary", Content: "summary", Type: types.SectionSummary, Priority: 8},
		{Title: "Education", Content: "education", Type: types.SectionEducation, Priority: 7},
		{Title: "Extra Block", Content: "dropped", Type: types.SectionOther, Priority: 5},
	}

	formatted := formatTopSections(sections)

	assert.NotContains(t, formatted, "dropped", "超出前五的章节不进入提示词")
	assert.Contains(t, formatted, "Work Experience")
	assert.NotContains(t, formatted, strings.Repeat("x", 501), "内容应截断到500字符")
	assert.True(t, strings.Index(formatted, "Work Experience") < strings.Index(formatted, "Technical Skills"),
		"高优先级章节在前")
}
