package constants

// 提取方式标识，记录在每个文档的提取结果中
const (
	// ExtractionPlainText 纯文本直接解码
	ExtractionPlainText = "plain_text"
	// ExtractionStructuredDocx DOCX结构化提取成功
	ExtractionStructuredDocx = "structured_docx"
	// ExtractionDocxFallback DOCX结构化提取失败后的字节启发式提取
	ExtractionDocxFallback = "docx_fallback"
	// ExtractionStructuredPDF PDF结构化提取成功
	ExtractionStructuredPDF = "structured_pdf"
	// ExtractionPDFFallback PDF结构化提取失败后的字节启发式提取
	ExtractionPDFFallback = "pdf_fallback"
	// ExtractionBinaryFallback 未知二进制格式的字节启发式提取
	ExtractionBinaryFallback = "binary_fallback"
)

// 处理方式标识，说明最终画像来自哪条路径
const (
	// ProcessingAIConsolidation AI增强合并成功
	ProcessingAIConsolidation = "intelligent_ai_consolidation"
	// ProcessingLocalConsolidation 确定性本地合并（增强失败或未启用）
	ProcessingLocalConsolidation = "enhanced_local_consolidation"
)

// MinExtractedTextLength 提取文本的最小有效长度，
// 低于该长度的文档标记为提取失败
const MinExtractedTextLength = 50

// 分块策略的最小章节长度
const (
	// MinResumeSectionLength 简历章节最小长度
	MinResumeSectionLength = 50
	// MinJobSectionLength 职位描述章节最小长度
	MinJobSectionLength = 30
	// MinParagraphLength 段落策略（求职信/通用）最小段落长度
	MinParagraphLength = 100
)

// 合并阶段各列表字段的上限
const (
	MaxKeyStrengths      = 8
	MaxIndustryExpertise = 4
	MaxCareerHighlights  = 6
	MaxCoreTechnologies  = 8
	MaxFrameworks        = 6
	MaxTools             = 8
	MaxMethodologies     = 4
	MaxQuantifiable      = 4
	MaxLeadership        = 3
	MaxTechnicalAchieve  = 4
	MaxBusiness          = 3
	MaxTechQuestionTopic = 10
	MaxProjectExamples   = 5
)

// 增强阶段的取样参数
const (
	// TopSectionsForEnhancement 参与增强提示词的最高优先级章节数
	TopSectionsForEnhancement = 5
	// MaxSectionContentInPrompt 提示词中每个章节内容的截断长度
	MaxSectionContentInPrompt = 500
)

// 哨兵字符串：上游提取器用来表示"字段缺失"的占位值，
// 必须在边界处归一化为缺失，绝不能当作真实数据
const (
	SentinelNotExtracted = "not extracted"
	SentinelNotFound     = "not found"
)

// 默认值
const (
	// DefaultCareerLevel 职业级别默认值
	DefaultCareerLevel = "Professional"
	// DefaultTotalYears 工作年限默认值
	DefaultTotalYears = "Not specified"
	// DefaultTitle 职位头衔默认值
	DefaultTitle = "Professional"
)
