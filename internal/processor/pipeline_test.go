package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/types"
)

// stubExtractor 文件名含"bad"时模拟提取失败
type stubExtractor struct{}

func (s *stubExtractor) Extract(ctx context.Context, data []byte, fileName string) (string, string, error) {
	if strings.Contains(fileName, "bad") {
		return "", constants.ExtractionBinaryFallback, errors.New("提取文本过短")
	}
	return string(data), constants.ExtractionPlainText, nil
}

// stubChunker 每份文档固定产出一个章节
type stubChunker struct{}

func (s *stubChunker) Chunk(text string, docType types.DocumentType) []*types.DocumentSection {
	return []*types.DocumentSection{
		{Title: "Document Content", Content: text, Type: types.SectionOther, Priority: 5},
	}
}

// stubAnalyzer 按文件名产出固定分析结果，记录调用次数
type stubAnalyzer struct {
	mu    sync.Mutex
	calls int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, fileName, text string) *types.DocumentAnalysis {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	docType := types.DocumentResume
	if strings.Contains(fileName, "jd") {
		docType = types.DocumentJobDescription
	}
	return &types.DocumentAnalysis{
		DocumentType:    docType,
		ExtractedSkills: []string{"Go", fmt.Sprintf("Skill-%s", fileName)},
		ExperienceDetails: types.ExperienceDetails{
			TotalYears:  "5 years",
			WorkHistory: []types.WorkHistoryEntry{{Position: "Engineer", EndDate: "Present"}},
		},
	}
}

// stubEnhancer 可配置增强成功或失败
type stubEnhancer struct {
	succeed        bool
	seenJobContext string
}

func (s *stubEnhancer) Enhance(ctx context.Context, base *types.ConsolidatedSummary, sections []*types.DocumentSection, jobContext string) (*types.ConsolidatedSummary, bool) {
	s.seenJobContext = jobContext
	if !s.succeed {
		return base, false
	}
	enhanced := *base
	enhanced.ProfessionalSummary.Overview = "An enhanced overview."
	return &enhanced, true
}

func (s *stubEnhancer) BuildInterviewContext(ctx context.Context, summary *types.ConsolidatedSummary, jobContext string) *types.InterviewContext {
	return &types.InterviewContext{TechnicalTalkingPoints: []string{"stub"}}
}

func newTestPipeline(t *testing.T, options ...PipelineOption) (*Pipeline, *stubAnalyzer) {
	t.Helper()
	analyzer := &stubAnalyzer{}
	pipeline, err := NewPipeline(&stubExtractor{}, &stubChunker{}, analyzer, options...)
	require.NoError(t, err)
	return pipeline, analyzer
}

func TestProcessEmptyRequestFails(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	_, err := pipeline.Process(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestProcessAllDocumentsUnextractableFails(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	_, err := pipeline.Process(context.Background(), []DocumentInput{
		{FileName: "bad1.bin", Data: []byte{0x00}},
		{FileName: "bad2.bin", Data: []byte{0x00}},
	})
	require.Error(t, err, "全部提取失败是唯一的顶层错误")
	assert.ErrorIs(t, err, ErrNoExtractableText)
}

func TestProcessPartialFailureDegrades(t *testing.T) {
	pipeline, analyzer := newTestPipeline(t)

	result, err := pipeline.Process(context.Background(), []DocumentInput{
		{FileName: "bad.bin", Data: []byte{0x00}},
		{FileName: "resume.txt", Data: []byte("resume content")},
	})
	require.NoError(t, err, "至少一份文档可用时不应失败")

	require.Len(t, result.Documents, 2, "结果保持上传顺序，包含失败文档")
	assert.True(t, result.Documents[0].Extracted.Error)
	assert.Equal(t, "bad.bin", result.Documents[0].Extracted.FileName)
	assert.False(t, result.Documents[1].Extracted.Error)

	assert.Equal(t, 1, analyzer.calls, "失败文档不应触发分析")
	assert.Equal(t, 1, result.Quality.DocumentsProcessed)
	assert.NotNil(t, result.Summary)
}

func TestProcessExtractFailureWrapsDomainError(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	result, err := pipeline.Process(context.Background(), []DocumentInput{
		{FileName: "bad.bin", Data: []byte{0x00}},
		{FileName: "resume.txt", Data: []byte("resume content")},
	})
	require.NoError(t, err)

	failed := result.Documents[0].Extracted
	require.True(t, failed.Error)
	assert.Contains(t, failed.ErrorDetail, ErrExtractFailed.Error(), "错误详情应携带领域错误类型")
	assert.Contains(t, failed.ErrorDetail, "提取文本过短", "错误详情应保留底层原因")
	assert.Contains(t, failed.ErrorDetail, failed.DocumentID, "错误详情应指向具体文档")
}

func TestProcessPreservesUploadOrder(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	docs := make([]DocumentInput, 6)
	for i := range docs {
		docs[i] = DocumentInput{FileName: fmt.Sprintf("doc%d.txt", i), Data: []byte(fmt.Sprintf("content %d", i))}
	}

	result, err := pipeline.Process(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, result.Documents, 6)

	for i, d := range result.Documents {
		assert.Equal(t, i, d.Index)
		assert.Equal(t, fmt.Sprintf("doc%d.txt", i), d.Extracted.FileName, "并发处理后仍按上传顺序")
	}
}

func TestProcessWithoutEnhancerUsesLocalMethod(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	result, err := pipeline.Process(context.Background(), []DocumentInput{
		{FileName: "resume.txt", Data: []byte("resume content")},
	})
	require.NoError(t, err)

	assert.Equal(t, "enhanced_local_consolidation", result.ProcessingMethod)
	require.NotNil(t, result.InterviewContext, "无增强器时使用静态面试上下文")
	assert.NotEmpty(t, result.InterviewContext.BehavioralExamples)
}

func TestProcessEnhancerSuccessSetsAIMethod(t *testing.T) {
	enhancer := &stubEnhancer{succeed: true}
	pipeline, _ := newTestPipeline(t, WithEnhancer(enhancer))

	result, err := pipeline.Process(context.Background(), []DocumentInput{
		{FileName: "resume.txt", Data: []byte("resume content")},
		{FileName: "jd.txt", Data: []byte("job description content")},
	})
	require.NoError(t, err)

	assert.Equal(t, "intelligent_ai_consolidation", result.ProcessingMethod)
	assert.Equal(t, "An enhanced overview.", result.Summary.ProfessionalSummary.Overview)
	assert.Equal(t, "job description content", enhancer.seenJobContext,
		"职位描述文档的文本应作为增强上下文")
}

func TestProcessEnhancerFailureKeepsLocalMethod(t *testing.T) {
	pipeline, _ := newTestPipeline(t, WithEnhancer(&stubEnhancer{succeed: false}))

	result, err := pipeline.Process(context.Background(), []DocumentInput{
		{FileName: "resume.txt", Data: []byte("resume content")},
	})
	require.NoError(t, err)

	assert.Equal(t, "enhanced_local_consolidation", result.ProcessingMethod,
		"增强失败时处理方式必须如实标注")
}

func TestProcessQualityReport(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	result, err := pipeline.Process(context.Background(), []DocumentInput{
		{FileName: "a.txt", Data: []byte("content a")},
		{FileName: "b.txt", Data: []byte("content b")},
	})
	require.NoError(t, err)

	quality := result.Quality
	assert.Equal(t, 2, quality.SectionsAnalyzed, "每份文档一个章节")
	assert.Equal(t, 2, quality.DocumentsProcessed)
	assert.Equal(t, 3, quality.TechnicalSkillsFound, "Go去重后加两个独立技能")
	assert.Equal(t, 2, quality.WorkExperiencesConsolidated)
	assert.GreaterOrEqual(t, quality.InterviewReadinessScore, 0)
	assert.LessOrEqual(t, quality.InterviewReadinessScore, 100)
	assert.NotEmpty(t, result.RequestID)
}
