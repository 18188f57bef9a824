package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"

	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/types"
	"interview-agent-go/pkg/ratelimit"
)

// SummaryEnhancer 用LLM对确定性合并结果做整体增强。
// 成功时整体替换，失败时静默回退到输入摘要，绝不产生半AI半确定性的混合结果
type SummaryEnhancer struct {
	llmModel model.ToolCallingChatModel

	callTimeout time.Duration
	maxRetries  int
	retryDelay  time.Duration

	limiter   *ratelimit.LimiterGroup
	modelName string

	logger *log.Logger
}

// EnhancerOption 增强器的配置选项
type EnhancerOption func(*SummaryEnhancer)

// WithEnhancerTimeout 设置单次LLM调用超时
func WithEnhancerTimeout(timeout time.Duration) EnhancerOption {
	return func(e *SummaryEnhancer) {
		e.callTimeout = timeout
	}
}

// WithEnhancerRetries 设置重试次数和初始退避时间
func WithEnhancerRetries(maxRetries int, retryDelay time.Duration) EnhancerOption {
	return func(e *SummaryEnhancer) {
		e.maxRetries = maxRetries
		e.retryDelay = retryDelay
	}
}

// WithEnhancerRateLimiter 设置按模型名的QPM限流
func WithEnhancerRateLimiter(limiter *ratelimit.LimiterGroup, modelName string) EnhancerOption {
	return func(e *SummaryEnhancer) {
		e.limiter = limiter
		e.modelName = modelName
	}
}

// NewSummaryEnhancer 创建摘要增强器
func NewSummaryEnhancer(llmModel model.ToolCallingChatModel, logger *log.Logger, options ...EnhancerOption) *SummaryEnhancer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	enhancer := &SummaryEnhancer{
		llmModel:    llmModel,
		callTimeout: 60 * time.Second,
		maxRetries:  2,
		retryDelay:  2 * time.Second,
		logger:      logger,
	}

	for _, option := range options {
		option(enhancer)
	}

	return enhancer
}

const enhancerSystemPrompt = `你是一个资深的面试辅导专家。你将收到一份由确定性规则合并出的候选人画像JSON，以及原始文档中优先级最高的几个章节摘录。

核心任务：在保持JSON结构完全不变的前提下，重写并润色其中的文本内容：
1. professionalSummary.overview 改写为自然流畅的人物概述。
2. 精炼 keyStrengths、careerHighlights 等列表的措辞。
3. 补充 interviewReadiness 与 contextualInsights 中空泛的条目。

重要指令：
- 输出必须是与输入完全相同结构的JSON，字段一个不少、一个不多。
- 不得编造输入中不存在的事实（公司、年限、技术）。
- 不要包含任何解释性文字或Markdown标记。`

const interviewContextSystemPrompt = `你是一个资深的面试辅导专家。基于候选人画像JSON，生成面试准备上下文。

JSON输出格式规范：
{
  "technicalTalkingPoints": ["string"],
  "behavioralExamples": ["string"],
  "companyAlignment": "string",
  "growthAreas": ["string"],
  "suggestedQuestions": ["string"]
}

每个列表给出3到5条具体、可直接使用的条目；companyAlignment 是一段连贯的叙述文本，
说明候选人经历与目标公司/职位的契合点。不要包含任何解释性文字或Markdown标记。`

// Enhance 对合并结果做整体增强。成功时返回增强后的摘要和true；
// 任何失败都返回输入的base和false，调用方据此如实标注处理方式。
// jobContext 为可选的目标职位描述，用于让润色贴合职位要求
func (e *SummaryEnhancer) Enhance(ctx context.Context, base *types.ConsolidatedSummary, sections []*types.DocumentSection, jobContext string) (*types.ConsolidatedSummary, bool) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		e.logger.Printf("[SummaryEnhancer] 序列化基础摘要失败: %v", err)
		return base, false
	}

	userPrompt := fmt.Sprintf("候选人画像:\n%s\n\n高优先级章节摘录:\n%s",
		string(baseJSON), formatTopSections(sections))
	if jobContext != "" {
		userPrompt += fmt.Sprintf("\n目标职位:\n%s", jobContext)
	}

	response, err := e.callLLM(ctx, enhancerSystemPrompt, userPrompt)
	if err != nil {
		e.logger.Printf("[SummaryEnhancer] LLM调用失败，回退到确定性摘要: %v", err)
		return base, false
	}

	jsonStr := extractJSONBlock(response)
	if jsonStr == "" {
		e.logger.Printf("[SummaryEnhancer] 响应中无有效JSON，回退到确定性摘要")
		return base, false
	}

	var enhanced types.ConsolidatedSummary
	if err := json.Unmarshal([]byte(jsonStr), &enhanced); err != nil {
		if fixErr := json.Unmarshal([]byte(sanitizeJSON(jsonStr)), &enhanced); fixErr != nil {
			e.logger.Printf("[SummaryEnhancer] 解析增强结果失败，回退到确定性摘要: %v", err)
			return base, false
		}
	}

	// 整体替换：要么全部采用增强结果，要么全部保留确定性结果
	return &enhanced, true
}

// BuildInterviewContext 独立的第二次调用，生成面试准备上下文。失败时返回静态模板
func (e *SummaryEnhancer) BuildInterviewContext(ctx context.Context, summary *types.ConsolidatedSummary, jobContext string) *types.InterviewContext {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		e.logger.Printf("[SummaryEnhancer] 序列化摘要失败: %v", err)
		return StaticInterviewContext(summary)
	}

	userPrompt := string(summaryJSON)
	if jobContext != "" {
		userPrompt += fmt.Sprintf("\n\n目标职位:\n%s", jobContext)
	}

	response, err := e.callLLM(ctx, interviewContextSystemPrompt, userPrompt)
	if err != nil {
		e.logger.Printf("[SummaryEnhancer] 面试上下文调用失败，使用静态模板: %v", err)
		return StaticInterviewContext(summary)
	}

	jsonStr := extractJSONBlock(response)
	if jsonStr == "" {
		return StaticInterviewContext(summary)
	}

	var interviewCtx types.InterviewContext
	if err := json.Unmarshal([]byte(jsonStr), &interviewCtx); err != nil {
		if fixErr := json.Unmarshal([]byte(sanitizeJSON(jsonStr)), &interviewCtx); fixErr != nil {
			e.logger.Printf("[SummaryEnhancer] 解析面试上下文失败，使用静态模板: %v", err)
			return StaticInterviewContext(summary)
		}
	}

	return &interviewCtx
}

// StaticInterviewContext 基于摘要内容的静态模板，增强不可用时的兜底
func StaticInterviewContext(summary *types.ConsolidatedSummary) *types.InterviewContext {
	talkingPoints := summary.InterviewReadiness.TechQuestionTopics
	if len(talkingPoints) == 0 {
		talkingPoints = []string{"Core technical skills", "Recent project work"}
	}

	return &types.InterviewContext{
		TechnicalTalkingPoints: talkingPoints,
		BehavioralExamples: []string{
			"Describe a challenging project and how you approached it",
			"Tell me about a time you disagreed with a teammate",
		},
		CompanyAlignment: "Research the company's product and recent announcements, and relate your experience to its domain.",
		GrowthAreas: []string{
			"Areas outside current core expertise",
		},
		SuggestedQuestions: []string{
			"What does success look like in this role after six months?",
			"How does the team handle technical debt?",
		},
	}
}

// formatTopSections 取优先级最高的章节，内容截断后拼入提示词。
// 排序是稳定的：同优先级保持原始顺序
func formatTopSections(sections []*types.DocumentSection) string {
	sorted := make([]*types.DocumentSection, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	if len(sorted) > constants.TopSectionsForEnhancement {
		sorted = sorted[:constants.TopSectionsForEnhancement]
	}

	var sb strings.Builder
	for _, s := range sorted {
		content := s.Content
		if len(content) > constants.MaxSectionContentInPrompt {
			content = content[:constants.MaxSectionContentInPrompt]
		}
		sb.WriteString(fmt.Sprintf("[%s] %s\n%s\n\n", s.Type, s.Title, content))
	}
	return sb.String()
}

// callLLM 调用LLM处理提示词，带限流与重试
func (e *SummaryEnhancer) callLLM(ctx context.Context, systemContent, userContent string) (string, error) {
	messages := []*einoschema.Message{
		{Role: "system", Content: systemContent},
		{Role: "user", Content: userContent},
	}

	retryDelay := e.retryDelay

	var response *einoschema.Message
	var err error

	for retry := 0; retry <= e.maxRetries; retry++ {
		if retry > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("上下文已取消: %w", ctx.Err())
			case <-time.After(retryDelay):
				retryDelay *= 2
				e.logger.Printf("[SummaryEnhancer] 重试LLM调用 (第%d次)", retry)
			}
		}

		if e.limiter != nil {
			if waitErr := e.limiter.Wait(ctx, e.modelName); waitErr != nil {
				return "", fmt.Errorf("等待限流令牌失败: %w", waitErr)
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		response, err = e.llmModel.Generate(callCtx, messages)
		cancel()

		if err == nil {
			break
		}

		if !isRetryableLLMError(err) || retry >= e.maxRetries {
			return "", fmt.Errorf("LLM Generate failed: %w", err)
		}
	}

	return response.Content, nil
}
