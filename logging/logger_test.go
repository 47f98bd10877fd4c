package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFieldConstructors 测试字段构造函数
func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		wantKey string
	}{
		{name: "String字段", field: String("sql", "SELECT 1"), wantKey: "sql"},
		{name: "Int字段", field: Int("count", 123), wantKey: "count"},
		{name: "Int64字段", field: Int64("rows", int64(456)), wantKey: "rows"},
		{name: "Bool字段", field: Bool("strict", true), wantKey: "strict"},
		{name: "Any字段", field: Any("args", []any{1, "a"}), wantKey: "args"},
		{name: "Error字段", field: Error(errors.New("test error")), wantKey: "error"},
		{name: "Duration字段", field: Duration("cost", time.Millisecond), wantKey: "cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKey, tt.field.Key)
			assert.NotNil(t, tt.field.Value)
		})
	}
}

// TestFormatValue 测试值格式化
func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "字符串", value: "test", want: "test"},
		{name: "错误", value: errors.New("error message"), want: "error message"},
		{name: "整数", value: 123, want: "123"},
		{name: "切片", value: []any{1, "a"}, want: "[1 a]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.value))
		})
	}
}

// TestParseLevel 测试级别解析
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: DebugLevel},
		{in: "INFO", want: InfoLevel},
		{in: "", want: InfoLevel},
		{in: "warning", want: WarnLevel},
		{in: " error ", want: ErrorLevel},
		{in: "verbose", want: InfoLevel, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

// TestStdLogger_Levels 测试各级别输出格式
func TestStdLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLoggerWithWriter(&buf, "pgcrud").WithLevel(DebugLevel)
	ctx := context.Background()

	logger.Debug(ctx, "execute sql", String("sql", "SELECT $1"))
	logger.Info(ctx, "db connected", String("driver", "sqlite"))
	logger.Warn(ctx, "transaction timed out", Duration("timeout", time.Second))
	logger.Error(ctx, "ping failed", Error(errors.New("conn refused")))

	output := buf.String()
	assert.Contains(t, output, "[DEBUG] pgcrud execute sql sql=SELECT $1")
	assert.Contains(t, output, "[INFO] pgcrud db connected driver=sqlite")
	assert.Contains(t, output, "[WARN] pgcrud transaction timed out timeout=1s")
	assert.Contains(t, output, "[ERROR] pgcrud ping failed error=conn refused")
}

// TestStdLogger_LevelFilter 测试低于阈值的日志被丢弃
func TestStdLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLoggerWithWriter(&buf, "").WithLevel(WarnLevel)
	ctx := context.Background()

	logger.Debug(ctx, "dropped debug")
	logger.Info(ctx, "dropped info")
	logger.Warn(ctx, "kept warn")

	output := buf.String()
	assert.NotContains(t, output, "dropped")
	assert.Contains(t, output, "kept warn")
	assert.Equal(t, WarnLevel, logger.Level())
}

// TestStdLogger_WithFields 测试WithFields
func TestStdLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLoggerWithWriter(&buf, "test")
	txLogger := logger.WithFields(String("tx_id", "abc"))

	txLogger.Info(context.Background(), "commit", Int("statements", 2))

	output := buf.String()
	assert.Contains(t, output, "tx_id=abc")
	assert.Contains(t, output, "statements=2")
}

// TestStdLogger_WithFields_Immutable 测试WithFields不改变原Logger
func TestStdLogger_WithFields_Immutable(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLoggerWithWriter(&buf, "test")
	child := logger.WithFields(String("key", "value"))

	require.Len(t, logger.fields, 0)
	require.Len(t, child.(*StdLogger).fields, 1)

	logger.Info(context.Background(), "parent")
	assert.NotContains(t, buf.String(), "key=value")
}

// TestNoopLogger 测试NoopLogger
func TestNoopLogger(t *testing.T) {
	logger := NewNoopLogger()
	ctx := context.Background()

	logger.Debug(ctx, "test")
	logger.Info(ctx, "test")
	logger.Warn(ctx, "test")
	logger.Error(ctx, "test")

	assert.Same(t, logger, logger.WithFields(String("key", "value")))
}

// TestOrNoop 测试nil回退
func TestOrNoop(t *testing.T) {
	assert.IsType(t, &NoopLogger{}, OrNoop(nil))

	std := NewStdLogger("x")
	assert.Same(t, std, OrNoop(std))
}

// TestLoggerInterface 测试Logger接口实现
func TestLoggerInterface(t *testing.T) {
	var _ Logger = (*StdLogger)(nil)
	var _ Logger = (*NoopLogger)(nil)

	var buf bytes.Buffer
	loggers := []Logger{NewStdLoggerWithWriter(&buf, "test"), NewNoopLogger()}
	ctx := context.Background()
	for _, logger := range loggers {
		logger.Info(ctx, "test")
		logger.WithFields(String("key", "value")).Warn(ctx, "test")
	}
	assert.True(t, strings.Count(buf.String(), "test") >= 2)
}

// BenchmarkStdLogger_Info 基准测试：Info日志
func BenchmarkStdLogger_Info(b *testing.B) {
	logger := NewStdLoggerWithWriter(&bytes.Buffer{}, "bench")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "benchmark message", String("key", "value"))
	}
}

// BenchmarkStdLogger_FilteredDebug 基准测试：被过滤的Debug日志
func BenchmarkStdLogger_FilteredDebug(b *testing.B) {
	logger := NewStdLoggerWithWriter(&bytes.Buffer{}, "bench")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug(ctx, "execute sql", String("sql", "SELECT 1"))
	}
}
