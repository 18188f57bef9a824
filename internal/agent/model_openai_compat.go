package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	defaultChatAPIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	defaultModelName  = "qwen-plus"
)

// OpenAIChatModel 实现了 model.ChatModel 和 model.ToolCallingChatModel 接口，
// 通过 OpenAI 兼容的 chat/completions 端点与文本生成服务交互。
type OpenAIChatModel struct {
	apiKey      string
	modelName   string
	apiURL      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	boundTools  []openAITool
}

// ChatModelOption OpenAIChatModel 的函数选项
type ChatModelOption func(*OpenAIChatModel)

// WithTemperature 设置采样温度
func WithTemperature(t float64) ChatModelOption {
	return func(m *OpenAIChatModel) {
		m.temperature = t
	}
}

// WithMaxTokens 设置最大输出token数
func WithMaxTokens(n int) ChatModelOption {
	return func(m *OpenAIChatModel) {
		m.maxTokens = n
	}
}

// WithHTTPClient 替换底层HTTP客户端（便于测试注入）
func WithHTTPClient(c *http.Client) ChatModelOption {
	return func(m *OpenAIChatModel) {
		m.httpClient = c
	}
}

// NewOpenAIChatModel 创建一个新的 OpenAIChatModel 实例
func NewOpenAIChatModel(apiKey string, modelName string, apiURL string, opts ...ChatModelOption) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	mn := modelName
	if strings.TrimSpace(mn) == "" {
		mn = defaultModelName
	}

	url := apiURL
	if strings.TrimSpace(url) == "" {
		url = defaultChatAPIURL
	}

	m := &OpenAIChatModel{
		apiKey:     apiKey,
		modelName:  mn,
		apiURL:     url,
		httpClient: &http.Client{},
		boundTools: make([]openAITool, 0),
	}
	for _, opt := range opts {
		opt(m)
	}

	log.Printf("使用 OpenAI 兼容 LLM 客户端，API URL: %s, 模型: %s", url, mn)

	return m, nil
}

// --- OpenAI 兼容请求/响应结构 ---

type openAIFunctionParams struct {
	Type       string                 `json:"type"` // 通常为 "object"
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required,omitempty"`
}

type openAIFunction struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  openAIFunctionParams `json:"parameters"`
}

type openAITool struct {
	Type     string         `json:"type"` // 必须为 "function"
	Function openAIFunction `json:"function"`
}

type openAIChatRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"` // eino schema.Message 的 role/content 与 OpenAI 兼容
	Tools       []openAITool      `json:"tools,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type openAIToolCallData struct {
	Id       string `json:"id"`
	Type     string `json:"type"` // 应为 "function"
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"` // 参数的JSON字符串
	} `json:"function"`
}

type openAIMessage struct {
	Role      string               `json:"role"`
	Content   *string              `json:"content"` // 存在 tool_calls 时可能为 null
	ToolCalls []openAIToolCallData `json:"tool_calls,omitempty"`
}

type openAIChatChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIChatResponse struct {
	Id      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
}

// Generate 实现 model.ChatModel 接口
func (m *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	// 工具配置通过 WithTools -> BindTools 完成，这里只确认通用选项
	for _, opt := range options {
		_ = opt
	}

	reqPayload := openAIChatRequest{
		Model:       m.modelName,
		Messages:    messages,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	}
	if len(m.boundTools) > 0 {
		reqPayload.Tools = m.boundTools
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API 请求失败，状态 %s: %s", httpResp.Status, string(bodyBytes))
	}

	var apiResp openAIChatResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w。响应体: %s", err, string(bodyBytes))
	}

	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("从 API 收到空选项: %s", string(bodyBytes))
	}

	apiMessage := apiResp.Choices[0].Message
	responseContent := ""
	if apiMessage.Content != nil {
		responseContent = *apiMessage.Content
	}

	resultMessage := &schema.Message{
		Role:    schema.RoleType(apiMessage.Role),
		Content: responseContent,
	}

	if len(apiMessage.ToolCalls) > 0 {
		resultMessage.ToolCalls = make([]schema.ToolCall, len(apiMessage.ToolCalls))
		for i, tc := range apiMessage.ToolCalls {
			resultMessage.ToolCalls[i] = schema.ToolCall{
				ID: tc.Id,
				Function: schema.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			}
		}
	}

	if resultMessage.Role == "" {
		resultMessage.Role = schema.RoleType("assistant")
	}

	return resultMessage, nil
}

// Stream 实现 model.ChatModel 接口
// 本服务的LLM调用都是单次结构化输出，未实现流式
func (m *OpenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("OpenAIChatModel 的 Stream 方法未实现")
}

// BindTools 实现 model.ChatModel 接口
// 仅转换工具名称和描述；参数 schema 对本服务的单次结构化调用不需要
func (m *OpenAIChatModel) BindTools(tools []*schema.ToolInfo) error {
	m.boundTools = make([]openAITool, 0, len(tools))
	for _, toolInfo := range tools {
		if toolInfo == nil {
			continue
		}
		m.boundTools = append(m.boundTools, openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        toolInfo.Name,
				Description: toolInfo.Desc,
				Parameters:  openAIFunctionParams{Type: "object", Properties: map[string]interface{}{}},
			},
		})
	}
	return nil
}

// WithTools 实现 model.ToolCallingChatModel 接口，内部复用 BindTools
func (m *OpenAIChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if err := m.BindTools(tools); err != nil {
		return nil, err
	}
	return m, nil
}

var _ model.ChatModel = (*OpenAIChatModel)(nil)
var _ model.ToolCallingChatModel = (*OpenAIChatModel)(nil)
