package types

// DocumentType 表示上传文档的类型
type DocumentType string

const (
	// DocumentResume 简历/CV文档
	DocumentResume DocumentType = "resume"
	// DocumentCoverLetter 求职信文档
	DocumentCoverLetter DocumentType = "cover_letter"
	// DocumentJobDescription 职位描述文档
	DocumentJobDescription DocumentType = "job_description"
	// DocumentOther 其他未分类文档
	DocumentOther DocumentType = "other"
)

// SectionType 表示文档章节的语义类型
type SectionType string

const (
	// SectionHeader 文档头部章节
	SectionHeader SectionType = "header"
	// SectionExperience 工作经历章节
	SectionExperience SectionType = "experience"
	// SectionEducation 教育经历章节
	SectionEducation SectionType = "education"
	// SectionSkills 技能章节
	SectionSkills SectionType = "skills"
	// SectionContact 联系方式章节
	SectionContact SectionType = "contact"
	// SectionSummary 概述章节
	SectionSummary SectionType = "summary"
	// SectionOther 未分类内容章节
	SectionOther SectionType = "other"
)

// DocumentSection 文档章节结构
// 在单个文档分块时创建，不可变，仅在单次请求内存活
type DocumentSection struct {
	Title    string      `json:"title"`    // 章节标题（如 "Work Experience"）
	Content  string      `json:"content"`  // 属于该章节的原始文本片段
	Type     SectionType `json:"type"`     // 语义类型
	Priority int         `json:"priority"` // 相对重要性，数值越大越重要，由匹配规则赋予
	Keywords []string    `json:"keywords"` // 从内容中提取并去重的领域关键词
}

// ContactInfo 联系方式信息
// 任何字段都可能缺失或等于哨兵值（"not extracted"/"not found"），
// 消费方必须做哨兵值归一化处理
type ContactInfo struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// WorkHistoryEntry 单条工作经历
// 任何字段都不保证完整
type WorkHistoryEntry struct {
	Position         string   `json:"position,omitempty"`
	Company          string   `json:"company,omitempty"`
	StartDate        string   `json:"startDate,omitempty"`
	EndDate          string   `json:"endDate,omitempty"`
	Duration         string   `json:"duration,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	Technologies     []string `json:"technologies,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Achievements     []string `json:"achievements,omitempty"`
}

// ExperienceDetails 工作经验汇总信息
type ExperienceDetails struct {
	TotalYears  string             `json:"totalYears,omitempty"`
	CareerLevel string             `json:"careerLevel,omitempty"`
	Companies   []string           `json:"companies,omitempty"`
	Industries  []string           `json:"industries,omitempty"`
	WorkHistory []WorkHistoryEntry `json:"workHistory,omitempty"`
}

// EducationDetails 教育背景信息
type EducationDetails struct {
	Degrees            []string `json:"degrees,omitempty"`
	Certifications     []string `json:"certifications,omitempty"`
	ContinuousLearning []string `json:"continuousLearning,omitempty"`
}

// DocumentAnalysis 单文档的结构化分析结果
// 由上游文本生成服务产出，属于不可信输入：任何字段都可能缺失、
// 为空或包含哨兵字符串
type DocumentAnalysis struct {
	DocumentType      DocumentType      `json:"documentType"`
	Summary           string            `json:"summary,omitempty"`
	ExtractedSkills   []string          `json:"extractedSkills,omitempty"`
	KeyAchievements   []string          `json:"keyAchievements,omitempty"`
	ExperienceDetails ExperienceDetails `json:"experienceDetails,omitempty"`
	Education         EducationDetails  `json:"education,omitempty"`
	ContactInfo       ContactInfo       `json:"contactInfo,omitempty"`
	Name              string            `json:"name,omitempty"`
	Title             string            `json:"title,omitempty"`
}

// CandidateProfile 候选人基础画像
type CandidateProfile struct {
	Name     string      `json:"name,omitempty"`
	Title    string      `json:"title"`
	Location string      `json:"location,omitempty"`
	Contact  ContactInfo `json:"contact"`
}

// ProfessionalSummary 职业概况
type ProfessionalSummary struct {
	Overview          string   `json:"overview"`
	KeyStrengths      []string `json:"keyStrengths"`
	CareerLevel       string   `json:"careerLevel"`
	IndustryExpertise []string `json:"industryExpertise"`
}

// WorkExperienceSummary 工作经验汇总
type WorkExperienceSummary struct {
	TotalYears          string            `json:"totalYears"`
	CurrentRole         *WorkHistoryEntry `json:"currentRole,omitempty"`
	CareerHighlights    []string          `json:"careerHighlights"`
	IndustryProgression string            `json:"industryProgression"`
}

// TechnicalProfile 技术画像，四个分桶互不排斥
type TechnicalProfile struct {
	CoreTechnologies []string `json:"coreTechnologies"`
	Frameworks       []string `json:"frameworks"`
	Tools            []string `json:"tools"`
	Methodologies    []string `json:"methodologies"`
}

// AchievementBuckets 成就分类，一条成就可同时落入多个分桶
type AchievementBuckets struct {
	Quantifiable []string `json:"quantifiable"`
	Leadership   []string `json:"leadership"`
	Technical    []string `json:"technical"`
	Business     []string `json:"business"`
}

// EducationSummary 教育背景汇总
type EducationSummary struct {
	Formal             []string `json:"formal"`
	Certifications     []string `json:"certifications"`
	ContinuousLearning []string `json:"continuousLearning"`
}

// InterviewReadiness 面试准备要点
type InterviewReadiness struct {
	TechQuestionTopics  []string `json:"techQuestionTopics"`
	BehavioralScenarios []string `json:"behavioralScenarios"`
	ProjectExamples     []string `json:"projectExamples"`
	CompanyFitAreas     []string `json:"companyFitAreas"`
}

// ContextualInsights 语境洞察
// 确定性路径下为固定默认值，仅AI增强成功时才个性化
type ContextualInsights struct {
	CommunicationStyle       string `json:"communicationStyle"`
	ProblemSolvingApproach   string `json:"problemSolvingApproach"`
	LeadershipStyle          string `json:"leadershipStyle,omitempty"`
	CollaborationPreferences string `json:"collaborationPreferences"`
}

// ConsolidatedSummary 多文档合并后的候选人画像
// 不变式：所有列表字段按首次出现顺序去重，默认空列表而非nil，
// 下游消费方无需做空值检查
type ConsolidatedSummary struct {
	CandidateProfile    CandidateProfile      `json:"candidateProfile"`
	ProfessionalSummary ProfessionalSummary   `json:"professionalSummary"`
	WorkExperience      WorkExperienceSummary `json:"workExperience"`
	TechnicalProfile    TechnicalProfile      `json:"technicalProfile"`
	Achievements        AchievementBuckets    `json:"achievements"`
	Education           EducationSummary      `json:"education"`
	InterviewReadiness  InterviewReadiness    `json:"interviewReadiness"`
	ContextualInsights  ContextualInsights    `json:"contextualInsights"`
}

// InterviewContext 面试应答上下文
// 由独立的第二次增强调用产出，失败时退回静态模板
type InterviewContext struct {
	TechnicalTalkingPoints []string `json:"technicalTalkingPoints"`
	BehavioralExamples     []string `json:"behavioralExamples"`
	CompanyAlignment       string   `json:"companyAlignment"`
	GrowthAreas            []string `json:"growthAreas"`
	SuggestedQuestions     []string `json:"suggestedQuestions"`
}

// ExtractedDocument 单文档提取结果
type ExtractedDocument struct {
	DocumentID   string       `json:"document_id"`
	FileName     string       `json:"file_name"`
	DocumentType DocumentType `json:"document_type"`
	Text         string       `json:"-"`
	Method       string       `json:"extraction_method"`
	Error        bool         `json:"error"`
	ErrorDetail  string       `json:"error_detail,omitempty"`
}

// DocumentResult 单文档处理结果，按上传顺序索引
type DocumentResult struct {
	Index     int                `json:"index"`
	Extracted *ExtractedDocument `json:"extracted"`
	Sections  []*DocumentSection `json:"sections,omitempty"`
	Analysis  *DocumentAnalysis  `json:"analysis,omitempty"`
}

// ConsolidationQuality 合并质量报告
type ConsolidationQuality struct {
	SectionsAnalyzed            int `json:"sectionsAnalyzed"`
	DocumentsProcessed          int `json:"documentsProcessed"`
	TechnicalSkillsFound        int `json:"technicalSkillsFound"`
	WorkExperiencesConsolidated int `json:"workExperiencesConsolidated"`
	InterviewReadinessScore     int `json:"interviewReadinessScore"`
}

// AnalysisResult 一次分析请求的完整输出
type AnalysisResult struct {
	RequestID        string                `json:"request_id"`
	Summary          *ConsolidatedSummary  `json:"summary"`
	InterviewContext *InterviewContext     `json:"interview_context,omitempty"`
	Quality          *ConsolidationQuality `json:"consolidation_quality"`
	ProcessingMethod string                `json:"processing_method"`
	Documents        []*DocumentResult     `json:"documents"`
}
