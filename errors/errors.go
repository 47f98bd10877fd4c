// Package errors 提供 pgcrud 统一的错误码与错误包装。
//
// 约定：
//   - facade 与语句构造层不包装驱动错误（约束冲突、连接断开、语法错误），原样返回给调用方；
//   - CLI 边界通过 Wrap / WrapWithLog 为驱动错误附加 DATABASE_ERROR、DUPLICATE_KEY 或 TIMEOUT；
//   - 其余错误码描述 pgcrud 自身产生的错误：参数绑定、输入校验、事务终止、配置。
package errors

import (
	stdErrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode 错误代码类型
type ErrorCode string

// 预定义错误代码
const (
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeUnboundParameter ErrorCode = "UNBOUND_PARAMETER"
	ErrCodeTxDone           ErrorCode = "TX_DONE"
	ErrCodeTimeout          ErrorCode = "TIMEOUT"
	ErrCodeDatabase         ErrorCode = "DATABASE_ERROR"
	ErrCodeConfig           ErrorCode = "CONFIG_ERROR"
	ErrCodeDuplicateKey     ErrorCode = "DUPLICATE_KEY"
)

// IError 错误接口
type IError interface {
	error

	Code() ErrorCode
	Message() string
	Cause() error
	Details() map[string]any
	Stack() string

	WithDetails(details map[string]any) IError
	WithContext(key string, value any) IError
}

// AppError 应用错误实现
type AppError struct {
	code    ErrorCode
	message string
	cause   error
	details map[string]any
	stack   string
}

// NewError 创建新错误
func NewError(code ErrorCode, message string) *AppError {
	return &AppError{
		code:    code,
		message: message,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

// NewErrorWithCause 创建带原因的错误
func NewErrorWithCause(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		cause:   cause,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

// WrapError 包装错误，err 为 nil 时返回 nil
func WrapError(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return NewErrorWithCause(code, message, err)
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *AppError) Code() ErrorCode { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Cause() error    { return e.cause }
func (e *AppError) Stack() string   { return e.stack }

// Details 获取错误详情
func (e *AppError) Details() map[string]any {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	return e.details
}

// Is 同错误码的 AppError 视为同类错误；否则沿 cause 继续比较
func (e *AppError) Is(target error) bool {
	if target == nil {
		return false
	}
	if appErr, ok := target.(*AppError); ok {
		return e.code == appErr.code
	}
	if e.cause != nil {
		return stdErrors.Is(e.cause, target)
	}
	return false
}

// Unwrap 解包错误（支持 errors.Unwrap）
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithDetails 返回合并了 details 的新错误，原错误不变
func (e *AppError) WithDetails(details map[string]any) IError {
	newDetails := copyMap(e.details)
	for k, v := range details {
		newDetails[k] = v
	}
	return &AppError{
		code:    e.code,
		message: e.message,
		cause:   e.cause,
		details: newDetails,
		stack:   e.stack,
	}
}

// WithContext 返回附加单个上下文键值的新错误
func (e *AppError) WithContext(key string, value any) IError {
	newDetails := copyMap(e.details)
	newDetails[key] = value
	return &AppError{
		code:    e.code,
		message: e.message,
		cause:   e.cause,
		details: newDetails,
		stack:   e.stack,
	}
}

// 预定义错误变量，用于 errors.Is 按错误码比较
var (
	ErrInternal         = NewError(ErrCodeInternal, "internal error")
	ErrInvalidInput     = NewError(ErrCodeInvalidInput, "invalid input")
	ErrUnboundParameter = NewError(ErrCodeUnboundParameter, "unbound parameter")
	ErrTxDone           = NewError(ErrCodeTxDone, "transaction already finished")
	ErrTimeout          = NewError(ErrCodeTimeout, "operation timed out")
	ErrDatabase         = NewError(ErrCodeDatabase, "database error")
	ErrConfig           = NewError(ErrCodeConfig, "invalid configuration")
	ErrDuplicateKey     = NewError(ErrCodeDuplicateKey, "duplicate key")
)

// IsErrorCode 检查是否为指定错误代码
func IsErrorCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.code == code
	}
	return false
}

// GetErrorCode 获取错误代码；非 AppError 返回 ErrCodeInternal
func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.code
	}
	return ErrCodeInternal
}

// captureStack 捕获堆栈信息
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var builder strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
	return builder.String()
}

func copyMap(original map[string]any) map[string]any {
	copied := make(map[string]any, len(original))
	for k, v := range original {
		copied[k] = v
	}
	return copied
}
