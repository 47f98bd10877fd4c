package errors

import (
	"context"
	"fmt"
	"runtime"

	"pgcrud/logging"
)

// Wrap 包装错误，添加错误码并以 Debug 级别记录调用位置与堆栈。
// 只在 CLI 边界使用；facade 不包装驱动错误。
func Wrap(ctx context.Context, logger logging.Logger, err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}

	_, file, line, _ := runtime.Caller(1)
	wrapped := NewErrorWithCause(code, msg, err)

	if logger != nil {
		logger.Debug(ctx, "wrap error",
			logging.String("error_code", string(code)),
			logging.String("location", fmt.Sprintf("%s:%d", file, line)),
			logging.Error(err),
			logging.String("stack", wrapped.Stack()),
		)
	}
	return wrapped
}

// WrapWithLog 包装错误并记录警告日志
func WrapWithLog(ctx context.Context, logger logging.Logger, err error, code ErrorCode, msg string, fields ...logging.Field) error {
	if err == nil {
		return nil
	}

	_, file, line, _ := runtime.Caller(1)
	wrapped := WrapError(err, code, msg)

	if logger != nil {
		allFields := append([]logging.Field{
			logging.Error(err),
			logging.String("error_code", string(code)),
			logging.String("location", fmt.Sprintf("%s:%d", file, line)),
		}, fields...)
		logger.Warn(ctx, msg, allFields...)
	}
	return wrapped
}

// Invalid 创建 INVALID_INPUT 错误
func Invalid(format string, args ...any) *AppError {
	return NewError(ErrCodeInvalidInput, fmt.Sprintf(format, args...))
}
