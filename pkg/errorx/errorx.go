package errorx

import (
	"errors"
	"fmt"
)

// CodeError 带业务错误码的自定义错误
// 支持 %w 包装底层错误，能被 errors.Is/errors.As 识别
type CodeError struct {
	Code  int    // 业务错误码
	Msg   string // 错误消息
	cause error  // 被包装的底层错误
}

// Error 存在底层错误时返回 "消息: 底层错误"，否则仅返回消息
func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

// Unwrap 支持 errors.Is/errors.As 向下追溯
func (e *CodeError) Unwrap() error {
	return e.cause
}

// Is 错误码相同即视为同一类错误
// 使 errors.Is(errorx.Wrap(err, CodeDuplicate, ...), ErrDuplicate) 成立
func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if errors.As(target, &t) {
		return t.cause == nil && t.Code == e.Code
	}
	return false
}

// New 创建一个新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

// Newf 创建一个带格式化消息的 CodeError
func Newf(code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap 包装底层错误，添加业务错误码和消息
// 用法: errorx.Wrap(err, CodeNotFound, "通知不存在")
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   msg,
		cause: err,
	}
}

// Wrapf 包装底层错误，支持格式化消息
func Wrapf(err error, code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// GetCode 从错误中提取业务错误码，如果不是 CodeError 则返回默认码
func GetCode(err error) int {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return CodeServerBusy
}

// 业务状态码常量定义
const (
	CodeSuccess       = 1000 // 成功
	CodeInvalidParam  = 1001 // 请求参数错误
	CodeServerBusy    = 1005 // 服务繁忙
	CodeUnauthorized  = 1006 // 未授权/认证失败
	CodeForbidden     = 1007 // 无权访问
	CodeNotFound      = 1008 // 资源不存在
	CodeDBError       = 1010 // 数据库错误
	CodeCacheError    = 1011 // 缓存错误
	CodeDuplicate     = 1012 // 唯一约束冲突
	CodeInvalidStatus = 1013 // 非法在线状态
	CodeUnresolvedID  = 1014 // 无法解析的用户标识
	CodeTransport     = 1015 // 推送/消息队列错误
	CodeMissingField  = 1016 // 事件缺少必填字段
)

// 预定义常用错误实例
// 这些实例既可直接返回，也可用于 errors.Is 比较
var (
	ErrInvalidParam  = New(CodeInvalidParam, "请求参数错误")
	ErrServerBusy    = New(CodeServerBusy, "服务繁忙")
	ErrForbidden     = New(CodeForbidden, "无权访问")
	ErrNotFound      = New(CodeNotFound, "资源不存在")
	ErrDuplicate     = New(CodeDuplicate, "记录已存在")
	ErrInvalidStatus = New(CodeInvalidStatus, "状态只能是 online、offline 或 away")
	ErrUnresolvedID  = New(CodeUnresolvedID, "无法解析的用户标识")
	ErrMissingField  = New(CodeMissingField, "缺少必填字段")
)

// IsNotFound 检查错误是否为"未找到"类型（包括 gorm.ErrRecordNotFound）
func IsNotFound(err error) bool {
	var codeErr *CodeError
	if errors.As(err, &codeErr) && codeErr.Code == CodeNotFound {
		return true
	}
	return err != nil && err.Error() == "record not found"
}

// IsDuplicate 检查错误是否为唯一约束冲突
func IsDuplicate(err error) bool {
	var codeErr *CodeError
	return errors.As(err, &codeErr) && codeErr.Code == CodeDuplicate
}
