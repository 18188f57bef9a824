package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigWithCorrectMapSyntax 验证当 YAML 语法正确时，配置能否被成功加载
func TestLoadConfigWithCorrectMapSyntax(t *testing.T) {
	// 1. 创建一个临时的 YAML 配置文件，内容包含正确的 map 结构
	correctYAMLContent := `
llm:
  api_url: "https://example.com/v1/chat/completions"
  model: "qwen-plus"
  task_models:
    document_analysis: "qwen-max"
    summary_enhancement: "qwen-plus"
model_qpm_limits:
  qwen-max: 1200
  qwen-plus: 15000
analyzer:
  analysisTimeout: "45s"
  maxRetries: 3
`
	tmpDir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err, "无法创建临时目录")
	defer os.RemoveAll(tmpDir) // 测试结束后清理目录

	configPath := filepath.Join(tmpDir, "config.yaml")
	err = os.WriteFile(configPath, []byte(correctYAMLContent), 0644)
	require.NoError(t, err, "无法写入临时配置文件")

	// 2. 调用 LoadConfig 函数加载配置
	config, err := LoadConfig(configPath)

	// 3. 断言结果
	require.NoError(t, err, "加载具有正确语法的配置不应返回错误")
	require.NotNil(t, config, "配置对象不应为 nil")

	// 验证 task_models
	expectedTaskModels := map[string]string{
		"document_analysis":   "qwen-max",
		"summary_enhancement": "qwen-plus",
	}
	assert.Equal(t, expectedTaskModels, config.LLM.TaskModels, "LLM.TaskModels 的值与预期不符")

	// 验证 model_qpm_limits
	expectedQPMLimits := map[string]int{
		"qwen-max":  1200,
		"qwen-plus": 15000,
	}
	assert.Equal(t, expectedQPMLimits, config.ModelQPMLimits, "ModelQPMLimits 的值与预期不符")

	// 验证其他字段是否也被加载
	assert.Equal(t, "45s", config.Analyzer.AnalysisTimeout, "AnalysisTimeout 的值与预期不符")
	assert.Equal(t, 3, config.Analyzer.MaxRetries, "MaxRetries 的值与预期不符")
}

// TestLoadConfigWithIncorrectMapSyntax 验证当 YAML 缩进错误时，map 字段无法被正确解析
func TestLoadConfigWithIncorrectMapSyntax(t *testing.T) {
	// 1. 创建一个包含错误缩进的 YAML 配置文件
	incorrectYAMLContent := `
llm:
  model: "qwen-plus"
  task_models: # map类型
  document_analysis: "qwen-max"
  summary_enhancement: "qwen-plus"
`
	tmpDir, err := os.MkdirTemp("", "config-test-incorrect")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	err = os.WriteFile(configPath, []byte(incorrectYAMLContent), 0644)
	require.NoError(t, err)

	// 2. 加载配置
	config, err := LoadConfig(configPath)

	// 3. 断言结果
	// go-yaml/v3 在解析这种格式时不会报错，但会将 task_models 解析为空 map
	require.NoError(t, err, "加载语法错误的配置也不应立即报错")
	require.NotNil(t, config, "配置对象不应为 nil")

	// 关键断言：因为缩进错误，task_models 这个 map 应该是空的 (nil or len 0)
	assert.Empty(t, config.LLM.TaskModels, "由于缩进错误，TaskModels map 应该是空的")
}

// TestGetModelForTask 验证任务专用模型的选取逻辑
func TestGetModelForTask(t *testing.T) {
	config := &Config{}
	config.LLM.Model = "qwen-turbo"
	config.LLM.TaskModels = map[string]string{
		"document_analysis": "qwen-max",
		"empty_task":        "",
	}

	assert.Equal(t, "qwen-max", config.GetModelForTask("document_analysis"), "应返回任务专用模型")
	assert.Equal(t, "qwen-turbo", config.GetModelForTask("unknown_task"), "未注册的任务应返回默认模型")
	assert.Equal(t, "qwen-turbo", config.GetModelForTask("empty_task"), "专用模型为空时应返回默认模型")
}

// TestGetDuration 验证时长解析的默认值行为
func TestGetDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, GetDuration("30s", time.Minute), "合法时长应被解析")
	assert.Equal(t, time.Minute, GetDuration("", time.Minute), "空字符串应返回默认值")
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute), "非法时长应返回默认值")
}
