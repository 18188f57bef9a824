package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"interview-agent-go/internal/logger"
	"interview-agent-go/internal/tracing"

	"gopkg.in/yaml.v3"
)

// RedisConfig Redis配置结构
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`      // 连接池大小
	MinIdleConns int `yaml:"min_idle_conns"` // 最小空闲连接数
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`  // 连接超时(秒)
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`  // 读取超时(秒)
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"` // 写入超时(秒)
	// 重试设置
	MaxRetries        int `yaml:"max_retries"`          // 最大重试次数
	MinRetryBackoffMS int `yaml:"min_retry_backoff_ms"` // 最小重试间隔(毫秒)
	MaxRetryBackoffMS int `yaml:"max_retry_backoff_ms"` // 最大重试间隔(毫秒)
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`  // 连接最大生命周期(分钟)
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"` // 空闲连接最大生命周期(分钟)
}

// LLMConfig 文本生成服务（OpenAI兼容接口）配置
type LLMConfig struct {
	APIKey     string            `yaml:"api_key"`
	APIURL     string            `yaml:"api_url"`
	Model      string            `yaml:"model"`
	TaskModels map[string]string `yaml:"task_models"` // 任务专用模型
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 例如 ":8080" 或 "0.0.0.0:8080"
	APIKey  string `yaml:"api_key"` // 非空时启用keyauth鉴权中间件
}

// AnalyzerConfig 单文档结构化分析的配置
type AnalyzerConfig struct {
	ModelName        string  `yaml:"modelName"`
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"maxTokens"`
	AnalysisTimeout  string  `yaml:"analysisTimeout"`  // 单次分析超时，例如 "60s"
	QPM              int     `yaml:"qpm"`              // 每分钟请求数限制
	MaxRetries       int     `yaml:"maxRetries"`       // 最大重试次数
	RetryWaitSeconds int     `yaml:"retryWaitSeconds"` // 重试等待时间(秒)
}

// EnhancerConfig AI增强合并的配置
type EnhancerConfig struct {
	Enabled          bool    `yaml:"enabled"`          // 是否启用增强（失败时总是本地降级）
	ModelName        string  `yaml:"modelName"`
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"maxTokens"`
	EnhanceTimeout   string  `yaml:"enhanceTimeout"`   // 增强调用超时
	QPM              int     `yaml:"qpm"`              // 每分钟请求数限制
	MaxRetries       int     `yaml:"maxRetries"`       // 最大重试次数
	RetryWaitSeconds int     `yaml:"retryWaitSeconds"` // 重试等待时间(秒)
}

// PointsConfig 积分账本配置
type PointsConfig struct {
	Enabled        bool `yaml:"enabled"`          // 是否启用积分扣减
	FreeGrant      int  `yaml:"free_grant"`       // 新客户端免费额度
	CostPerDoc     int  `yaml:"cost_per_doc"`     // 每个文档扣减的积分数
	BalanceTTLDays int  `yaml:"balance_ttl_days"` // 余额键过期天数
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// Config 应用程序配置
type Config struct {
	// 文本生成服务配置
	LLM LLMConfig `yaml:"llm"`

	// Redis配置（积分账本）
	Redis RedisConfig `yaml:"redis"`

	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 单文档结构化分析配置
	Analyzer AnalyzerConfig `yaml:"analyzer"`

	// AI增强合并配置
	Enhancer EnhancerConfig `yaml:"enhancer"`

	// 积分账本配置
	Points PointsConfig `yaml:"points"`

	// 日志配置
	Logger LoggerConfig `yaml:"logger"`

	// 链路追踪配置
	Tracing tracing.Config `yaml:"tracing"`

	// 模型QPM限制配置
	ModelQPMLimits map[string]int `yaml:"model_qpm_limits"`
}

// LoggerConfigAsLoggerPackage 转换为logger包的配置结构
func (c *Config) LoggerConfigAsLoggerPackage() logger.Config {
	return logger.Config{
		Level:        c.Logger.Level,
		Format:       c.Logger.Format,
		TimeFormat:   c.Logger.TimeFormat,
		ReportCaller: c.Logger.ReportCaller,
	}
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// 如果未指定配置文件路径，则尝试在默认位置查找
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			"../../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".interview-agent", "config.yaml"),
		}

		// 可执行文件所在目录及其上级
		execPath, err := os.Executable()
		if err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths, filepath.Join(execDir, "config.yaml"))
			searchPaths = append(searchPaths, filepath.Join(execDir, "..", "config.yaml"))
		}

		// 测试环境中额外尝试项目根目录
		workDir, err := os.Getwd()
		if err == nil && inTestEnv(workDir) {
			projectRoots := []string{
				workDir,
				filepath.Join(workDir, ".."),
				filepath.Join(workDir, "..", ".."),
				filepath.Join(workDir, "..", "..", ".."),
			}
			for _, root := range projectRoots {
				searchPaths = append(searchPaths, filepath.Join(root, "config.yaml"))
			}
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}

		// 仍找不到配置文件时：测试环境返回默认配置，否则使用默认路径
		if configPath == "" {
			if inTestEnv("") {
				return createDefaultConfig(), nil
			}
			configPath = "config.yaml"
		}
	}

	// 检查文件是否存在
	if _, err := os.Stat(configPath); err != nil {
		if inTestEnv("") {
			return createDefaultConfig(), nil
		}
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 从环境变量覆盖配置（如果存在）
	if envKey := os.Getenv("LLM_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	}
	if envURL := os.Getenv("LLM_API_URL"); envURL != "" {
		config.LLM.APIURL = envURL
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		config.LLM.Model = envModel
	}
	if envAddr := os.Getenv("REDIS_ADDRESS"); envAddr != "" {
		config.Redis.Address = envAddr
	}

	applyDefaults(&config)

	return &config, nil
}

// inTestEnv 粗略检测是否运行在go test环境中
func inTestEnv(workDir string) bool {
	if workDir != "" && strings.Contains(workDir, "tmp") && strings.Contains(workDir, "test") {
		return true
	}
	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			return true
		}
	}
	return false
}

// applyDefaults 补齐缺省配置
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.LLM.APIURL == "" {
		config.LLM.APIURL = "https://api.openai.com/v1/chat/completions"
	}
	if config.Analyzer.AnalysisTimeout == "" {
		config.Analyzer.AnalysisTimeout = "60s"
	}
	if config.Analyzer.MaxRetries == 0 {
		config.Analyzer.MaxRetries = 2
	}
	if config.Enhancer.EnhanceTimeout == "" {
		config.Enhancer.EnhanceTimeout = "60s"
	}
	if config.Points.FreeGrant == 0 {
		config.Points.FreeGrant = 10
	}
	if config.Points.CostPerDoc == 0 {
		config.Points.CostPerDoc = 1
	}
	if config.Points.BalanceTTLDays == 0 {
		config.Points.BalanceTTLDays = 30
	}
	if config.Tracing.ServiceName == "" {
		config.Tracing.ServiceName = "interview-agent-go"
	}
}

// 创建一个默认配置，用于测试环境
func createDefaultConfig() *Config {
	config := &Config{}
	config.LLM.APIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	config.LLM.Model = "qwen-turbo"

	// Redis默认配置
	config.Redis.Address = "localhost:6379"
	config.Redis.Password = ""
	config.Redis.DB = 0
	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3
	config.Redis.MaxRetries = 3
	config.Redis.MinRetryBackoffMS = 8
	config.Redis.MaxRetryBackoffMS = 512
	config.Redis.ConnMaxLifetimeMinutes = 60
	config.Redis.ConnMaxIdleTimeMinutes = 30

	// 分析器与增强器默认配置
	config.Analyzer.Temperature = 0.1
	config.Analyzer.MaxTokens = 4096
	config.Analyzer.AnalysisTimeout = "60s"
	config.Analyzer.MaxRetries = 2
	config.Analyzer.RetryWaitSeconds = 2
	config.Enhancer.Enabled = true
	config.Enhancer.Temperature = 0.3
	config.Enhancer.MaxTokens = 4096
	config.Enhancer.EnhanceTimeout = "60s"
	config.Enhancer.MaxRetries = 1
	config.Enhancer.RetryWaitSeconds = 2

	// 积分默认配置
	config.Points.Enabled = false
	config.Points.FreeGrant = 10
	config.Points.CostPerDoc = 1
	config.Points.BalanceTTLDays = 30

	// 日志默认配置
	config.Logger.Level = "info"
	config.Logger.Format = "pretty" // 开发环境默认使用美化输出
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = true

	// 链路追踪默认关闭
	config.Tracing.Enabled = false
	config.Tracing.ServiceName = "interview-agent-go"
	config.Tracing.Endpoint = "localhost:4317"
	config.Tracing.SampleRatio = 1.0

	// 默认的模型QPM限制
	config.ModelQPMLimits = map[string]int{
		"qwen-max":    1200,
		"qwen-plus":   15000,
		"qwen-turbo":  1200,
		"gpt-4o":      500,
		"gpt-4o-mini": 5000,
	}

	// 获取环境变量
	if envKey := os.Getenv("LLM_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	} else {
		config.LLM.APIKey = "test_api_key"
	}

	applyDefaults(config)

	return config
}

// CreateSampleConfig 创建一个示例配置文件
func CreateSampleConfig(filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("文件 '%s' 已存在，不会覆盖", filePath)
	}

	config := createDefaultConfig()

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	err = os.WriteFile(filePath, data, 0644)
	if err != nil {
		return fmt.Errorf("写入示例配置文件 '%s' 失败: %w", filePath, err)
	}

	fmt.Printf("示例配置文件已创建: %s\n", filePath)
	return nil
}

// GetModelForTask 根据任务名称获取合适的模型
// 如果任务专用模型存在则返回专用模型，否则返回默认模型
func (c *Config) GetModelForTask(taskName string) string {
	if c.LLM.TaskModels != nil {
		if model, ok := c.LLM.TaskModels[taskName]; ok && model != "" {
			return model
		}
	}
	return c.LLM.Model
}

// GetDuration 解析配置中的时长字符串，失败时返回默认值
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
