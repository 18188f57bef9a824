package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interview-agent-go/internal/agent"
	"interview-agent-go/internal/api/handler"
	"interview-agent-go/internal/api/router"
	"interview-agent-go/internal/config"
	appCoreLogger "interview-agent-go/internal/logger"
	"interview-agent-go/internal/parser"
	"interview-agent-go/internal/processor"
	"interview-agent-go/internal/storage"
	"interview-agent-go/internal/tracing"
	"interview-agent-go/pkg/ratelimit"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
)

func main() {
	initLogger()

	// .env存在时加载，便于本地开发注入API密钥
	_ = godotenv.Load()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}
	defer func() {
		flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelFlush()
		if err := shutdownTracing(flushCtx); err != nil {
			glog.Warnf("关闭链路追踪失败: %v", err)
		}
	}()
	glog.Info("链路追踪初始化成功")

	limiter := ratelimit.NewLimiterGroup(cfg.ModelQPMLimits)

	// 为各组件创建stdlib logger，debug级别时输出到stderr
	var extractorLogger, chunkerLogger, analyzerLogger, enhancerLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		extractorLogger = log.New(os.Stderr, "[ExtractorMain] ", log.LstdFlags|log.Lshortfile)
		chunkerLogger = log.New(os.Stderr, "[ChunkerMain] ", log.LstdFlags|log.Lshortfile)
		analyzerLogger = log.New(os.Stderr, "[AnalyzerMain] ", log.LstdFlags|log.Lshortfile)
		enhancerLogger = log.New(os.Stderr, "[EnhancerMain] ", log.LstdFlags|log.Lshortfile)
	} else {
		extractorLogger = log.New(io.Discard, "", 0)
		chunkerLogger = log.New(io.Discard, "", 0)
		analyzerLogger = log.New(io.Discard, "", 0)
		enhancerLogger = log.New(io.Discard, "", 0)
	}

	extractor := parser.NewTextExtractor(ctx, parser.WithExtractorLogger(extractorLogger))
	glog.Info("文本提取器初始化成功")

	chunker, err := parser.NewSemanticChunker(parser.WithChunkerLogger(chunkerLogger))
	if err != nil {
		glog.Fatalf("初始化语义分块器失败: %v", err)
	}
	glog.Info("语义分块器初始化成功")

	analyzerModelName := cfg.GetModelForTask("document_analysis")
	if cfg.Analyzer.ModelName != "" {
		analyzerModelName = cfg.Analyzer.ModelName
	}
	analyzerModel, err := newChatModel(cfg, analyzerModelName, cfg.Analyzer.Temperature, cfg.Analyzer.MaxTokens)
	if err != nil {
		glog.Fatalf("初始化分析模型失败: %v", err)
	}
	analyzer := parser.NewDocumentAnalyzer(analyzerModel, analyzerLogger,
		parser.WithAnalyzerTimeout(config.GetDuration(cfg.Analyzer.AnalysisTimeout, 60*time.Second)),
		parser.WithAnalyzerRetries(cfg.Analyzer.MaxRetries, time.Duration(cfg.Analyzer.RetryWaitSeconds)*time.Second),
		parser.WithAnalyzerRateLimiter(limiter, analyzerModelName),
	)
	glog.Infof("文档分析器初始化成功，模型: %s", analyzerModelName)

	pipelineOptions := []processor.PipelineOption{
		processor.WithPipelineLogger(log.New(appCoreLogger.Logger, "[PipelineMain] ", log.LstdFlags|log.Lshortfile)),
	}

	if cfg.Enhancer.Enabled {
		enhancerModelName := cfg.GetModelForTask("summary_enhancement")
		if cfg.Enhancer.ModelName != "" {
			enhancerModelName = cfg.Enhancer.ModelName
		}
		enhancerModel, err := newChatModel(cfg, enhancerModelName, cfg.Enhancer.Temperature, cfg.Enhancer.MaxTokens)
		if err != nil {
			glog.Fatalf("初始化增强模型失败: %v", err)
		}
		enhancer := parser.NewSummaryEnhancer(enhancerModel, enhancerLogger,
			parser.WithEnhancerTimeout(config.GetDuration(cfg.Enhancer.EnhanceTimeout, 90*time.Second)),
			parser.WithEnhancerRetries(cfg.Enhancer.MaxRetries, time.Duration(cfg.Enhancer.RetryWaitSeconds)*time.Second),
			parser.WithEnhancerRateLimiter(limiter, enhancerModelName),
		)
		pipelineOptions = append(pipelineOptions, processor.WithEnhancer(enhancer))
		glog.Infof("摘要增强器初始化成功，模型: %s", enhancerModelName)
	} else {
		glog.Info("摘要增强未启用，将使用本地合并")
	}

	pipeline, err := processor.NewPipeline(extractor, chunker, analyzer, pipelineOptions...)
	if err != nil {
		glog.Fatalf("初始化处理管线失败: %v", err)
	}
	glog.Info("文档处理管线初始化成功")

	var ledger storage.PointsLedger
	if cfg.Points.Enabled {
		redisLedger, err := storage.NewRedisPointsLedger(&cfg.Redis, &cfg.Points)
		if err != nil {
			// Redis不可用时退化为进程内账本，服务仍可启动
			glog.Warnf("初始化Redis积分账本失败: %v，退化为内存账本", err)
			ledger = storage.NewMemoryPointsLedger(int64(cfg.Points.FreeGrant))
		} else {
			ledger = redisLedger
			glog.Info("Redis积分账本初始化成功")
		}
		defer func() {
			if err := ledger.Close(); err != nil {
				glog.Warnf("关闭积分账本失败: %v", err)
			}
		}()
	} else {
		glog.Info("积分账本未启用")
	}

	analyzeHandler := handler.NewAnalyzeHandler(cfg, pipeline, ledger)
	pointsHandler := handler.NewPointsHandler(ledger)
	glog.Info("Handler初始化成功")

	serverTracer, serverTracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		serverTracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(serverTracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, analyzeHandler, pointsHandler, cfg.Server.APIKey)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func newChatModel(cfg *config.Config, modelName string, temperature float64, maxTokens int) (model.ToolCallingChatModel, error) {
	opts := []agent.ChatModelOption{agent.WithTemperature(temperature)}
	if maxTokens > 0 {
		opts = append(opts, agent.WithMaxTokens(maxTokens))
	}
	return agent.NewOpenAIChatModel(cfg.LLM.APIKey, modelName, cfg.LLM.APIURL, opts...)
}

func initLogger() {
	logFilePath := "logs/app.log"
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatalf("无法创建日志目录: %v", err)
	}
	fileWriter, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("无法打开日志文件 %s: %v", logFilePath, err)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	multiWriter := zerolog.MultiLevelWriter(consoleWriter, fileWriter)

	level := zerolog.DebugLevel
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = "15:04:05"

	logger := zerolog.New(multiWriter).With().Timestamp().Caller().Logger()

	appCoreLogger.Logger = logger
	zlog.Logger = logger

	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)

	glog.SetLogger(hertzCompatibleLogger)
	glog.SetLevel(glog.LevelDebug)

	log.Println("Logger initialized with Zerolog, writing to console and file:", logFilePath)
}
