package router

import (
	"context"
	"errors"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"interview-agent-go/internal/api/handler"
	"interview-agent-go/internal/processor"
)

// 单次请求的上传限制
const (
	maxDocumentsPerRequest = 10
	maxDocumentBytes       = 20 << 20
)

// RegisterRoutes 注册 API 路由。apiKey非空时启用鉴权中间件
func RegisterRoutes(h *server.Hertz, analyzeHandler *handler.AnalyzeHandler, pointsHandler *handler.PointsHandler, apiKey string) {
	api := h.Group("/api/v1")

	if apiKey != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return key == apiKey, nil
			}),
		))
	}

	api.POST("/documents/analyze", func(c context.Context, ctx *app.RequestContext) {
		form, err := ctx.MultipartForm()
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "无效的multipart表单"})
			return
		}

		fileHeaders := form.File["documents"]
		if len(fileHeaders) == 0 {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求中不包含任何文档"})
			return
		}
		if len(fileHeaders) > maxDocumentsPerRequest {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "单次请求的文档数量超出上限"})
			return
		}

		docs := make([]processor.DocumentInput, 0, len(fileHeaders))
		for _, fh := range fileHeaders {
			if fh.Size > maxDocumentBytes {
				ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文档大小超出上限: " + fh.Filename})
				return
			}
			file, err := fh.Open()
			if err != nil {
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败: " + fh.Filename})
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "读取文件失败: " + fh.Filename})
				return
			}
			docs = append(docs, processor.DocumentInput{FileName: fh.Filename, Data: data})
		}

		result, err := analyzeHandler.HandleAnalyze(c, clientID(ctx), docs)
		if err != nil {
			switch {
			case errors.Is(err, processor.ErrPointsExhausted):
				ctx.JSON(consts.StatusPaymentRequired, utils.H{"error": err.Error()})
			case errors.Is(err, processor.ErrNoDocuments), errors.Is(err, processor.ErrNoExtractableText):
				ctx.JSON(consts.StatusUnprocessableEntity, utils.H{"error": err.Error()})
			default:
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			}
			return
		}

		ctx.JSON(consts.StatusOK, result)
	})

	api.GET("/points/balance", func(c context.Context, ctx *app.RequestContext) {
		resp, err := pointsHandler.HandleBalance(c, clientID(ctx))
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 健康检查不走鉴权
	h.GET("/api/v1/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// clientID 从请求头取客户端标识，缺省为anonymous
func clientID(ctx *app.RequestContext) string {
	id := string(ctx.GetHeader("X-Client-ID"))
	if id == "" {
		return "anonymous"
	}
	return id
}
