package named

import (
	"strconv"
	"strings"

	"pgcrud/errors"
)

// PlaceholderFunc 返回第 n 个（从 1 开始）位置占位符
type PlaceholderFunc func(n int) string

// Dollar 生成 $1, $2 ... 形式的占位符（Postgres）
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Question 生成 ? 形式的占位符（MySQL / SQLite）
func Question(int) string { return "?" }

type options struct {
	placeholder  PlaceholderFunc
	strict       bool
	skipLiterals bool
}

// Option 改写选项
type Option func(*options)

// WithPlaceholder 指定占位符形式，默认 Dollar
func WithPlaceholder(fn PlaceholderFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.placeholder = fn
		}
	}
}

// Strict 未绑定的参数名返回 UNBOUND_PARAMETER 错误，而不是绑定 nil
func Strict() Option {
	return func(o *options) { o.strict = true }
}

// SkipStringLiterals 跳过 '...'、E'...' 字面量与 "..." 引号标识符内的内容。
// 默认关闭，此时除 "::" 外每个 :name 都视为参数。
func SkipStringLiterals() Option {
	return func(o *options) { o.skipLiterals = true }
}

// Rewrite 将命名参数 SQL 改写为位置参数 SQL。
//
// 规则：
//   - 从左到右扫描 ":" 后跟一个或多个单词字符 [A-Za-z0-9_] 的记号，记号贪婪匹配到完整标识符，
//     因此 :id 不会匹配 :identifier 的前缀；
//   - 每次出现都分配下一个占位符编号并追加一份参数值，同名参数不去重；
//   - "::"（类型转换）保持原样；启用 SkipStringLiterals 时引号内的内容也保持原样；
//   - 参数表中缺失的名称默认绑定 nil；启用 Strict 时返回错误。
//
// 对固定输入是纯函数，不修改 params。
func Rewrite(sql string, params *Params, opts ...Option) (string, []any, error) {
	o := options{placeholder: Dollar}
	for _, opt := range opts {
		opt(&o)
	}

	var sb strings.Builder
	sb.Grow(len(sql) + 8)
	args := make([]any, 0, 4)

	err := scan(sql, o.skipLiterals, func(literal string) {
		sb.WriteString(literal)
	}, func(name string) error {
		value, ok := params.Get(name)
		if !ok && o.strict {
			return errors.NewError(errors.ErrCodeUnboundParameter, "unbound parameter :"+name).
				WithContext("name", name)
		}
		args = append(args, value)
		sb.WriteString(o.placeholder(len(args)))
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return sb.String(), args, nil
}

// Names 按出现顺序返回 SQL 中引用的参数名（含重复），只识别 SkipStringLiterals 选项
func Names(sql string, opts ...Option) []string {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var names []string
	_ = scan(sql, o.skipLiterals, func(string) {}, func(name string) error {
		names = append(names, name)
		return nil
	})
	return names
}

// scan 将 sql 拆分为原样输出的文本片段与参数名，依次回调
func scan(sql string, skipLiterals bool, text func(string), param func(string) error) error {
	start := 0
	for i := 0; i < len(sql); i++ {
		switch ch := sql[i]; {
		case skipLiterals && (ch == '\'' || ch == '"'):
			i = quotedEnd(sql, i)
		case ch == ':' && i+1 < len(sql) && sql[i+1] == ':':
			i++
		case ch == ':' && i+1 < len(sql) && isWordChar(sql[i+1]):
			j := i + 1
			for j < len(sql) && isWordChar(sql[j]) {
				j++
			}
			text(sql[start:i])
			if err := param(sql[i+1 : j]); err != nil {
				return err
			}
			start = j
			i = j - 1
		}
	}
	text(sql[start:])
	return nil
}

// quotedEnd 返回从 i 处引号开始的片段的闭合引号下标，未闭合时返回末尾。
// 连续两个引号视为转义；E'...' 内反斜杠转义下一个字符。
func quotedEnd(sql string, i int) int {
	quote := sql[i]
	escaped := quote == '\'' && i > 0 && (sql[i-1] == 'E' || sql[i-1] == 'e') &&
		(i == 1 || !isWordChar(sql[i-2]))
	for j := i + 1; j < len(sql); j++ {
		switch sql[j] {
		case '\\':
			if escaped {
				j++
			}
		case quote:
			if j+1 < len(sql) && sql[j+1] == quote {
				j++
				continue
			}
			return j
		}
	}
	return len(sql) - 1
}

func isWordChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}
