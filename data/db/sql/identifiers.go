package sql

import (
	"strconv"
	"strings"

	"pgcrud/data/named"
)

// 合成参数名前缀：WHERE 与 SET 使用不同前缀，
// 同一列同时出现在 SET 与 WHERE 时不会在参数表中冲突。
const (
	WherePrefix = "w_"
	SetPrefix   = "u_"
)

// binder 向参数表写入合成参数并保证本条语句内参数名唯一
type binder struct {
	params *named.Params
}

func newBinder(base *named.Params) *binder {
	return &binder{params: base}
}

// bind 为列 col 生成参数名并写入值，返回参数名（不含冒号）。
//
// 列名中的非单词字符（如 t.col 中的点）替换为 '_'。
// 候选名已在参数表中（调用方的原始键或先前生成的名称）时依次尝试 _2、_3 ... 后缀，
// 因此生成的参数不会覆盖任何已有键。
func (b *binder) bind(prefix, col string, value any) string {
	base := prefix + sanitizeParamName(col)
	name := base
	for n := 2; b.params.Has(name); n++ {
		name = base + "_" + strconv.Itoa(n)
	}
	b.params.Set(name, value)
	return name
}

// sanitizeParamName 将标识符转换为合法的命名参数（[A-Za-z0-9_]+）
func sanitizeParamName(col string) string {
	var sb strings.Builder
	sb.Grow(len(col))
	for i := 0; i < len(col); i++ {
		ch := col[i]
		if (ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '_' {
			sb.WriteByte(ch)
		} else {
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}
