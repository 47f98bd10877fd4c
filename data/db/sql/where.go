// Package sql 由表名与键值对象拼装 SELECT / INSERT / UPDATE / DELETE 语句。
//
// 生成的是命名参数 SQL（:name），参数值写入返回的参数表，由 named.Rewrite 改写为位置参数。
// 表名、列名与 static_where 片段由调用方保证可信，本包不做转义。
package sql

import (
	"strings"

	"pgcrud/data/named"
)

// Criteria 的保留键，不参与等值条件生成
const (
	KeyOrderBy     = "orderBy"
	KeyStaticWhere = "static_where"
	KeyLimit       = "limit"
	KeyOffset      = "offset"
)

// IsReserved 判断 key 是否为保留控制键
func IsReserved(key string) bool {
	switch key {
	case KeyOrderBy, KeyStaticWhere, KeyLimit, KeyOffset:
		return true
	default:
		return false
	}
}

// UnsafeStaticWhere 在 criteria 中设置原样拼接的 WHERE 片段并返回 criteria。
//
// 片段不做参数化与转义，只能传入调用方自行构造的可信 SQL；
// 片段中的 :name 会从 criteria 的原始键中取值。
func UnsafeStaticWhere(criteria *named.Params, fragment string) *named.Params {
	if criteria == nil {
		criteria = named.New()
	}
	return criteria.Set(KeyStaticWhere, fragment)
}

// whereClause 生成 " WHERE k1 = :w_k1 AND k2 = :w_k2 [AND static_where]"，
// 无条件时返回空串。合成参数写入 b。
func whereClause(criteria *named.Params, b *binder) string {
	var parts []string
	for _, key := range criteria.Keys() {
		if IsReserved(key) {
			continue
		}
		v, _ := criteria.Get(key)
		parts = append(parts, key+" = :"+b.bind(WherePrefix, key, v))
	}
	if frag := staticWhere(criteria); frag != "" {
		parts = append(parts, frag)
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

func staticWhere(criteria *named.Params) string {
	v, ok := criteria.Get(KeyStaticWhere)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// BuildWhere 生成 WHERE 子句并返回对应参数表（含 criteria 原始键与 w_ 合成键）
func BuildWhere(criteria *named.Params) (string, *named.Params) {
	b := newBinder(criteria.Clone())
	return whereClause(criteria, b), b.params
}
