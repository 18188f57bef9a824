package processor

import (
	"io"
	"log"
	"regexp"
	"sort"
	"strings"

	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/types"
)

// 技能分桶的四个独立正则。一个技能可以同时落入多个桶
var (
	coreTechPattern    = regexp.MustCompile(`(?i)\b(go|golang|java|python|javascript|typescript|c\+\+|c#|ruby|php|rust|swift|kotlin|scala|sql|mysql|postgresql|mongodb|redis|elasticsearch|aws|azure|gcp)\b`)
	frameworkPattern   = regexp.MustCompile(`(?i)\b(react|angular|vue|svelte|spring|django|flask|rails|express|laravel|gin|hertz|next\.js|node\.js|\.net)\b`)
	toolPattern        = regexp.MustCompile(`(?i)\b(git|github|gitlab|docker|kubernetes|terraform|ansible|jenkins|jira|confluence|grafana|prometheus|datadog|postman|figma|webpack)\b`)
	methodologyPattern = regexp.MustCompile(`(?i)\b(agile|scrum|kanban|tdd|bdd|devops|ci/cd|microservices|rest|graphql|grpc)\b`)
)

// 成就分桶的四个独立正则。一条成就可以同时落入多个桶
var (
	quantifiablePattern = regexp.MustCompile(`(?i)(\d+(\.\d+)?\s*%|improve|increase|reduce|save)`)
	leadershipPattern   = regexp.MustCompile(`(?i)(\bled\b|managed|coordinated|mentored|team)`)
	technicalPattern    = regexp.MustCompile(`(?i)(built|developed|implemented|deployed|optimized)`)
	businessPattern     = regexp.MustCompile(`(?i)(revenue|customer|user|business|growth)`)
)

// 联系方式中视为缺失的占位串
var contactSentinels = map[string]bool{
	constants.SentinelNotExtracted: true,
	constants.SentinelNotFound:     true,
}

// 确定性路径的静态文案。个性化只在增强环节发生
var (
	staticBehavioralScenarios = []string{
		"Tell me about a time you faced a significant technical challenge",
		"Describe a situation where you had to work with a difficult team member",
		"Give an example of when you had to learn something new quickly",
		"Tell me about a project you are particularly proud of",
	}
	staticCompanyFitAreas = []string{
		"Alignment with company values and culture",
		"Interest in the company's product and mission",
		"Preferred team structure and collaboration style",
		"Long-term career goals in this role",
	}
)

// Consolidator 将多份文档的章节与结构化分析合并为一份候选人摘要。
// 纯确定性计算，绝不失败：空输入也产出结构完整的摘要
type Consolidator struct {
	logger *log.Logger
}

// NewConsolidator 创建合并器
func NewConsolidator(logger *log.Logger) *Consolidator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Consolidator{logger: logger}
}

// Consolidate 按固定步骤合并。sections排序结果供增强环节采样，
// 结构化字段以analyses为唯一事实来源
func (c *Consolidator) Consolidate(sections []*types.DocumentSection, analyses []*types.DocumentAnalysis) *types.ConsolidatedSummary {
	// 步骤1：按优先级稳定降序，喂给增强环节的采样
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Priority > sections[j].Priority
	})

	allSkills := unionStrings(collectSkills(analyses))
	allAchievements := unionStrings(collectAchievements(analyses))

	summary := &types.ConsolidatedSummary{
		CandidateProfile:    c.buildCandidateProfile(analyses),
		ProfessionalSummary: c.buildProfessionalSummary(analyses, allSkills),
		WorkExperience:      c.buildWorkExperience(analyses, allAchievements),
		TechnicalProfile:    c.buildTechnicalProfile(allSkills),
		Achievements:        c.buildAchievementBuckets(allAchievements),
		Education:           c.buildEducation(analyses),
		InterviewReadiness:  c.buildInterviewReadiness(allSkills, allAchievements),
		ContextualInsights: types.ContextualInsights{
			CommunicationStyle:       "Professional and articulate",
			ProblemSolvingApproach:   "Structured and analytical",
			CollaborationPreferences: "Team-oriented with independent execution",
		},
	}

	c.logger.Printf("[Consolidator] 合并完成: 技能=%d, 成就=%d, 分析=%d",
		len(allSkills), len(allAchievements), len(analyses))
	return summary
}

// buildCandidateProfile 步骤2：按数组顺序取每个字段第一个非占位值
func (c *Consolidator) buildCandidateProfile(analyses []*types.DocumentAnalysis) types.CandidateProfile {
	profile := types.CandidateProfile{}

	for _, a := range analyses {
		if profile.Name == "" && usableValue(a.Name) {
			profile.Name = a.Name
		}
		if profile.Title == "" && usableValue(a.Title) {
			profile.Title = a.Title
		}
		if profile.Contact.Email == "" && usableValue(a.ContactInfo.Email) {
			profile.Contact.Email = a.ContactInfo.Email
		}
		if profile.Contact.Phone == "" && usableValue(a.ContactInfo.Phone) {
			profile.Contact.Phone = a.ContactInfo.Phone
		}
		if profile.Contact.Location == "" && usableValue(a.ContactInfo.Location) {
			profile.Contact.Location = a.ContactInfo.Location
		}
		if profile.Contact.LinkedIn == "" && usableValue(a.ContactInfo.LinkedIn) {
			profile.Contact.LinkedIn = a.ContactInfo.LinkedIn
		}
	}

	// title非可选字段，无可用值时落到默认头衔
	if profile.Title == "" {
		profile.Title = constants.DefaultTitle
	}

	return profile
}

// buildProfessionalSummary 步骤3
func (c *Consolidator) buildProfessionalSummary(analyses []*types.DocumentAnalysis, allSkills []string) types.ProfessionalSummary {
	var industries []string
	for _, a := range analyses {
		industries = append(industries, a.ExperienceDetails.Industries...)
	}

	careerLevel := constants.DefaultCareerLevel
	for _, a := range analyses {
		if usableValue(a.ExperienceDetails.CareerLevel) && a.ExperienceDetails.CareerLevel != "Unknown" {
			careerLevel = a.ExperienceDetails.CareerLevel
			break
		}
	}

	return types.ProfessionalSummary{
		Overview:          "Experienced professional with a diverse background across multiple domains.",
		KeyStrengths:      capStrings(allSkills, constants.MaxKeyStrengths),
		CareerLevel:       careerLevel,
		IndustryExpertise: capStrings(unionStrings(industries), constants.MaxIndustryExpertise),
	}
}

// buildWorkExperience 步骤4。currentRole匹配刻意保持与上游约定一致的
// 精确形式：endDate等于"Present"或包含"Current"，不做本地化扩展
func (c *Consolidator) buildWorkExperience(analyses []*types.DocumentAnalysis, allAchievements []string) types.WorkExperienceSummary {
	var history []types.WorkHistoryEntry
	var industries []string
	for _, a := range analyses {
		history = append(history, a.ExperienceDetails.WorkHistory...)
		industries = append(industries, a.ExperienceDetails.Industries...)
	}

	var currentRole *types.WorkHistoryEntry
	for i := range history {
		if history[i].EndDate == "Present" || strings.Contains(history[i].EndDate, "Current") {
			currentRole = &history[i]
			break
		}
	}

	totalYears := constants.DefaultTotalYears
	for _, a := range analyses {
		if usableValue(a.ExperienceDetails.TotalYears) && a.ExperienceDetails.TotalYears != constants.DefaultTotalYears {
			totalYears = a.ExperienceDetails.TotalYears
			break
		}
	}

	return types.WorkExperienceSummary{
		TotalYears:          totalYears,
		CurrentRole:         currentRole,
		CareerHighlights:    capStrings(allAchievements, constants.MaxCareerHighlights),
		IndustryProgression: strings.Join(unionStrings(industries), " -> "),
	}
}

// buildTechnicalProfile 步骤5：四个独立正则做成员测试，桶间不互斥
func (c *Consolidator) buildTechnicalProfile(allSkills []string) types.TechnicalProfile {
	return types.TechnicalProfile{
		CoreTechnologies: capStrings(filterByPattern(allSkills, coreTechPattern), constants.MaxCoreTechnologies),
		Frameworks:       capStrings(filterByPattern(allSkills, frameworkPattern), constants.MaxFrameworks),
		Tools:            capStrings(filterByPattern(allSkills, toolPattern), constants.MaxTools),
		Methodologies:    capStrings(filterByPattern(allSkills, methodologyPattern), constants.MaxMethodologies),
	}
}

// buildAchievementBuckets 步骤6：四个独立正则分桶，桶间不互斥
func (c *Consolidator) buildAchievementBuckets(allAchievements []string) types.AchievementBuckets {
	return types.AchievementBuckets{
		Quantifiable: capStrings(filterByPattern(allAchievements, quantifiablePattern), constants.MaxQuantifiable),
		Leadership:   capStrings(filterByPattern(allAchievements, leadershipPattern), constants.MaxLeadership),
		Technical:    capStrings(filterByPattern(allAchievements, technicalPattern), constants.MaxTechnicalAchieve),
		Business:     capStrings(filterByPattern(allAchievements, businessPattern), constants.MaxBusiness),
	}
}

// buildEducation 步骤7：直接拍平，不设上限
func (c *Consolidator) buildEducation(analyses []*types.DocumentAnalysis) types.EducationSummary {
	edu := types.EducationSummary{
		Formal:             []string{},
		Certifications:     []string{},
		ContinuousLearning: []string{},
	}
	for _, a := range analyses {
		edu.Formal = append(edu.Formal, a.Education.Degrees...)
		edu.Certifications = append(edu.Certifications, a.Education.Certifications...)
		edu.ContinuousLearning = append(edu.ContinuousLearning, a.Education.ContinuousLearning...)
	}
	return edu
}

// buildInterviewReadiness 步骤8：行为面与公司契合度用静态清单
func (c *Consolidator) buildInterviewReadiness(allSkills, allAchievements []string) types.InterviewReadiness {
	return types.InterviewReadiness{
		TechQuestionTopics:  capStrings(allSkills, constants.MaxTechQuestionTopic),
		BehavioralScenarios: staticBehavioralScenarios,
		ProjectExamples:     capStrings(allAchievements, constants.MaxProjectExamples),
		CompanyFitAreas:     staticCompanyFitAreas,
	}
}

func collectSkills(analyses []*types.DocumentAnalysis) []string {
	var skills []string
	for _, a := range analyses {
		skills = append(skills, a.ExtractedSkills...)
	}
	return skills
}

func collectAchievements(analyses []*types.DocumentAnalysis) []string {
	var achievements []string
	for _, a := range analyses {
		achievements = append(achievements, a.KeyAchievements...)
	}
	return achievements
}

// usableValue 非空且不是占位串
func usableValue(value string) bool {
	return value != "" && !contactSentinels[strings.ToLower(value)]
}

// unionStrings 去重，保持首次出现顺序
func unionStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}

// capStrings 截断到上限，输入不足时原样返回
func capStrings(values []string, limit int) []string {
	if values == nil {
		return []string{}
	}
	if len(values) > limit {
		return values[:limit]
	}
	return values
}

func filterByPattern(values []string, pattern *regexp.Regexp) []string {
	var matched []string
	for _, v := range values {
		if pattern.MatchString(v) {
			matched = append(matched, v)
		}
	}
	return matched
}
