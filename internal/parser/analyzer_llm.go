package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"

	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/types"
	"interview-agent-go/pkg/ratelimit"
)

// DocumentAnalyzer 使用LLM对单个文档做结构化分析：
// 文档类型、技能、成就、工作经历、教育、联系方式
// LLM被视为不可信的外部协作方，任何失败都降级为最小分析结果
type DocumentAnalyzer struct {
	llmModel model.ToolCallingChatModel

	// 单次调用超时
	callTimeout time.Duration

	// 重试配置
	maxRetries int
	retryDelay time.Duration

	// 可选的QPM限流
	limiter   *ratelimit.LimiterGroup
	modelName string

	logger *log.Logger
}

// AnalyzerOption 分析器的配置选项
type AnalyzerOption func(*DocumentAnalyzer)

// WithAnalyzerTimeout 设置单次LLM调用超时
func WithAnalyzerTimeout(timeout time.Duration) AnalyzerOption {
	return func(a *DocumentAnalyzer) {
		a.callTimeout = timeout
	}
}

// WithAnalyzerRetries 设置重试次数和初始退避时间
func WithAnalyzerRetries(maxRetries int, retryDelay time.Duration) AnalyzerOption {
	return func(a *DocumentAnalyzer) {
		a.maxRetries = maxRetries
		a.retryDelay = retryDelay
	}
}

// WithAnalyzerRateLimiter 设置按模型名的QPM限流
func WithAnalyzerRateLimiter(limiter *ratelimit.LimiterGroup, modelName string) AnalyzerOption {
	return func(a *DocumentAnalyzer) {
		a.limiter = limiter
		a.modelName = modelName
	}
}

// NewDocumentAnalyzer 创建文档分析器
func NewDocumentAnalyzer(llmModel model.ToolCallingChatModel, logger *log.Logger, options ...AnalyzerOption) *DocumentAnalyzer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	analyzer := &DocumentAnalyzer{
		llmModel:    llmModel,
		callTimeout: 60 * time.Second,
		maxRetries:  2,
		retryDelay:  2 * time.Second,
		logger:      logger,
	}

	for _, option := range options {
		option(analyzer)
	}

	return analyzer
}

const analyzerSystemPrompt = `你是一个专业的求职文档分析专家，负责从单个文档的纯文本中提取结构化信息。

核心任务：
1. 判断文档类型：resume、cover_letter、job_description 或 other。
2. 生成一段简短的文档摘要。
3. 提取技能列表与关键成就列表。
4. 提取经验信息：总年限、职业级别、公司、行业、逐条工作经历。
5. 提取教育信息：学位、认证、持续学习。
6. 提取联系方式与候选人姓名、头衔。

重要指令：
- 信息缺失处理：缺失的字符串字段填 "not extracted"，缺失的列表填空数组。请勿编造信息。
- 工作经历的 endDate：在职岗位使用 "Present"。
- totalYears：无法判断时填 "Not specified"。
- careerLevel：从 Junior、Mid-level、Senior、Lead、Executive、Professional 中选择。

JSON输出格式规范：
{
  "documentType": "resume|cover_letter|job_description|other",
  "summary": "string",
  "extractedSkills": ["string"],
  "keyAchievements": ["string"],
  "experienceDetails": {
    "totalYears": "string",
    "careerLevel": "string",
    "companies": ["string"],
    "industries": ["string"],
    "workHistory": [
      {
        "position": "string", "company": "string",
        "startDate": "string", "endDate": "string", "duration": "string",
        "industry": "string", "technologies": ["string"],
        "responsibilities": ["string"], "achievements": ["string"]
      }
    ]
  },
  "education": {
    "degrees": ["string"], "certifications": ["string"], "continuousLearning": ["string"]
  },
  "contactInfo": { "email": "string", "phone": "string", "location": "string", "linkedIn": "string" },
  "name": "string",
  "title": "string"
}

请严格按照上述JSON格式规范输出，不要包含任何解释性文字或Markdown标记。确保JSON的完整性和可解析性。`

// Analyze 分析单个文档。任何LLM或解析失败都降级为最小分析结果，不向上传播错误
func (a *DocumentAnalyzer) Analyze(ctx context.Context, fileName, text string) *types.DocumentAnalysis {
	userPrompt := fmt.Sprintf("文件名: %s\n\n文档内容:\n%s", fileName, text)

	response, err := a.callLLM(ctx, analyzerSystemPrompt, userPrompt)
	if err != nil {
		a.logger.Printf("[DocumentAnalyzer] LLM调用失败，使用最小分析结果: %v", err)
		return minimalAnalysis(fileName, text)
	}

	analysis, err := a.parseResponse(response)
	if err != nil {
		a.logger.Printf("[DocumentAnalyzer] 解析LLM响应失败，使用最小分析结果: %v", err)
		return minimalAnalysis(fileName, text)
	}

	// LLM返回的类型不在枚举内时回退到启发式判断
	if !isKnownDocumentType(analysis.DocumentType) {
		analysis.DocumentType = GuessDocumentType(fileName, text)
	}

	return analysis
}

// callLLM 调用LLM处理提示词，带限流与重试
func (a *DocumentAnalyzer) callLLM(ctx context.Context, systemContent, userContent string) (string, error) {
	messages := []*einoschema.Message{
		{Role: "system", Content: systemContent},
		{Role: "user", Content: userContent},
	}

	retryDelay := a.retryDelay

	var response *einoschema.Message
	var err error

	for retry := 0; retry <= a.maxRetries; retry++ {
		if retry > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("上下文已取消: %w", ctx.Err())
			case <-time.After(retryDelay):
				retryDelay *= 2
				a.logger.Printf("[DocumentAnalyzer] 重试LLM调用 (第%d次)", retry)
			}
		}

		// 限流在每次真实调用前生效
		if a.limiter != nil {
			if waitErr := a.limiter.Wait(ctx, a.modelName); waitErr != nil {
				return "", fmt.Errorf("等待限流令牌失败: %w", waitErr)
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
		response, err = a.llmModel.Generate(callCtx, messages)
		cancel()

		if err == nil {
			break
		}

		if !isRetryableLLMError(err) || retry >= a.maxRetries {
			return "", fmt.Errorf("LLM Generate failed: %w", err)
		}
	}

	return response.Content, nil
}

// parseResponse 从LLM响应中提取并解析JSON
func (a *DocumentAnalyzer) parseResponse(response string) (*types.DocumentAnalysis, error) {
	jsonStr := extractJSONBlock(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("无法从LLM响应中提取有效的JSON")
	}

	var analysis types.DocumentAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
		// 解析失败时尝试修复字符串内部未转义的引号后重试
		fixed := sanitizeJSON(jsonStr)
		if fixErr := json.Unmarshal([]byte(fixed), &analysis); fixErr != nil {
			return nil, fmt.Errorf("解析JSON失败: %w", err)
		}
	}

	return &analysis, nil
}

// minimalAnalysis 最小分析结果：类型走启发式判断，其余为安全默认值
func minimalAnalysis(fileName, text string) *types.DocumentAnalysis {
	return &types.DocumentAnalysis{
		DocumentType:    GuessDocumentType(fileName, text),
		Summary:         "Analysis unavailable",
		ExtractedSkills: []string{},
		KeyAchievements: []string{},
		ExperienceDetails: types.ExperienceDetails{
			TotalYears:  constants.DefaultTotalYears,
			CareerLevel: "Unknown",
			Companies:   []string{},
			Industries:  []string{},
			WorkHistory: []types.WorkHistoryEntry{},
		},
		Education: types.EducationDetails{
			Degrees:            []string{},
			Certifications:     []string{},
			ContinuousLearning: []string{},
		},
		ContactInfo: types.ContactInfo{},
		Name:        "Unknown",
		Title:       "Unknown",
	}
}

func isKnownDocumentType(docType types.DocumentType) bool {
	switch docType {
	case types.DocumentResume, types.DocumentCoverLetter, types.DocumentJobDescription, types.DocumentOther:
		return true
	}
	return false
}

// GuessDocumentType 基于文件名与内容关键词的启发式文档类型判断
func GuessDocumentType(fileName, text string) types.DocumentType {
	name := strings.ToLower(fileName)
	switch {
	case strings.Contains(name, "resume") || strings.Contains(name, "cv"):
		return types.DocumentResume
	case strings.Contains(name, "cover"):
		return types.DocumentCoverLetter
	case strings.Contains(name, "job") || strings.Contains(name, "jd") || strings.Contains(name, "position"):
		return types.DocumentJobDescription
	}

	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "dear hiring") || strings.Contains(lowered, "sincerely"):
		return types.DocumentCoverLetter
	case strings.Contains(lowered, "responsibilities") && strings.Contains(lowered, "requirements"):
		return types.DocumentJobDescription
	case strings.Contains(lowered, "work experience") || strings.Contains(lowered, "education"):
		return types.DocumentResume
	}
	return types.DocumentOther
}

// isRetryableLLMError 判断错误是否应该重试
func isRetryableLLMError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "429")
}

// sanitizeJSON 修复字符串字面量内部未转义的双引号。
// 通过检查 " 之后的首个非空白字符是否为 :、,、] 或 } 判断其是否为真正的字符串结束
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case c == '"' && !escaped:
			if !inStr {
				inStr = true
				b.WriteByte(c)
			} else {
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				if j < len(src) && (src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}') {
					inStr = false
					b.WriteByte(c)
				} else {
					b.WriteString("\\\"")
				}
			}
			escaped = false
		case c == '\\' && !escaped:
			escaped = true
			b.WriteByte(c)
		default:
			b.WriteByte(c)
			escaped = false
		}
	}

	return b.String()
}

var jsonFencePattern = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// extractJSONBlock 从文本中提取JSON：优先匹配```json代码块，回退到首个大括号配对扫描
func extractJSONBlock(text string) string {
	matches := jsonFencePattern.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	level := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			level++
		case '}':
			level--
			if level == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}
