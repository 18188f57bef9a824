package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrNoDocuments       = errors.New("请求中不包含任何文档")
	ErrNoExtractableText = errors.New("所有文档均无法提取文本")
	ErrExtractFailed     = errors.New("提取文档文本失败")
	ErrPointsExhausted   = errors.New("点数余额不足")
)

// AnalysisError 包含详细错误信息的自定义错误
type AnalysisError struct {
	RequestID string
	Op        string
	BaseErr   error
	Detail    string
}

func (e *AnalysisError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 请求:%s): %s", e.BaseErr, e.Op, e.RequestID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 请求:%s)", e.BaseErr, e.Op, e.RequestID)
}

func (e *AnalysisError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *AnalysisError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewNoDocumentsError(requestID string) error {
	return &AnalysisError{
		RequestID: requestID,
		Op:        "validate",
		BaseErr:   ErrNoDocuments,
	}
}

func NewNoExtractableTextError(requestID, detail string) error {
	return &AnalysisError{
		RequestID: requestID,
		Op:        "extract",
		BaseErr:   ErrNoExtractableText,
		Detail:    detail,
	}
}

func NewExtractError(requestID, detail string) error {
	return &AnalysisError{
		RequestID: requestID,
		Op:        "extract",
		BaseErr:   ErrExtractFailed,
		Detail:    detail,
	}
}

func NewPointsExhaustedError(requestID, detail string) error {
	return &AnalysisError{
		RequestID: requestID,
		Op:        "points",
		BaseErr:   ErrPointsExhausted,
		Detail:    detail,
	}
}
