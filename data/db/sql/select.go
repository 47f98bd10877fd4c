package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"pgcrud/data/named"
	"pgcrud/errors"
)

// 分页默认值
const (
	DefaultLimit  = 20
	DefaultOffset = 0
)

// SelectSQL 生成 SELECT * FROM table [WHERE ...]
func SelectSQL(table string, criteria *named.Params) (string, *named.Params) {
	b := newBinder(criteria.Clone())
	return "SELECT * FROM " + table + whereClause(criteria, b), b.params
}

// ListSQL 在 SelectSQL 基础上追加 ORDER BY
func ListSQL(table string, criteria *named.Params) (string, *named.Params) {
	q, params := SelectSQL(table, criteria)
	return q + BuildOrderBy(criteria), params
}

// PageSQL 在 ListSQL 基础上追加 LIMIT / OFFSET
func PageSQL(table string, criteria *named.Params) (string, *named.Params, error) {
	limit, offset, err := LimitOffset(criteria)
	if err != nil {
		return "", nil, err
	}
	q, params := ListSQL(table, criteria)
	return q + " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset), params, nil
}

// CountSQL 生成 SELECT COUNT(*) AS count FROM table [WHERE ...]，不含排序与分页
func CountSQL(table string, criteria *named.Params) (string, *named.Params) {
	b := newBinder(criteria.Clone())
	return "SELECT COUNT(*) AS count FROM " + table + whereClause(criteria, b), b.params
}

// BuildOrderBy 由 criteria 的 orderBy 生成 " ORDER BY ..."。
//
// orderBy 可以是单个列（字符串，可带 DESC），或 []string / []any 列序列（以 ", " 连接）。
func BuildOrderBy(criteria *named.Params) string {
	v, ok := criteria.Get(KeyOrderBy)
	if !ok || v == nil {
		return ""
	}
	var cols []string
	switch val := v.(type) {
	case string:
		cols = []string{val}
	case []string:
		cols = val
	case []any:
		for _, c := range val {
			cols = append(cols, fmt.Sprint(c))
		}
	default:
		cols = []string{fmt.Sprint(val)}
	}

	var kept []string
	for _, c := range cols {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(kept, ", ")
}

// LimitOffset 解析 criteria 中的 limit / offset。
//
// 缺失、nil 或 0 的 limit 使用 DefaultLimit；缺失的 offset 为 0。
// 接受整数、数字字符串与 JSON 解码得到的浮点数；负数或无法转换时返回 INVALID_INPUT。
func LimitOffset(criteria *named.Params) (limit, offset int, err error) {
	limit, err = intValue(criteria, KeyLimit, DefaultLimit)
	if err != nil {
		return 0, 0, err
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	offset, err = intValue(criteria, KeyOffset, DefaultOffset)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intValue(criteria *named.Params, key string, def int) (int, error) {
	v, ok := criteria.Get(key)
	if !ok || v == nil {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, errors.Invalid("%s must be an integer, got %v", key, v)
	}
	if n < 0 {
		return 0, errors.Invalid("%s must not be negative, got %d", key, n)
	}
	return n, nil
}
