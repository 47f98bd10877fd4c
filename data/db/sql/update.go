package sql

import (
	"strings"

	"pgcrud/data/named"
	"pgcrud/errors"
)

// UpdateSQL 生成 UPDATE table SET c1 = :u_c1, c2 = :u_c2 [WHERE k = :w_k ...]。
//
// 参数表依次包含 record 原始键、criteria 原始键（同名覆盖）以及 u_ / w_ 合成键；
// SET 与 WHERE 使用不同前缀，同一列同时出现在两处时分别绑定各自的值。
// record 为空时返回 INVALID_INPUT。
func UpdateSQL(table string, record, criteria *named.Params) (string, *named.Params, error) {
	if record.Len() == 0 {
		return "", nil, errors.Invalid("update %s: record has no columns", table)
	}

	b := newBinder(record.Clone().Merge(criteria))
	cols := record.Keys()
	sets := make([]string, len(cols))
	for i, col := range cols {
		v, _ := record.Get(col)
		sets[i] = col + " = :" + b.bind(SetPrefix, col, v)
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(sets, ", "))
	sb.WriteString(whereClause(criteria, b))
	return sb.String(), b.params, nil
}
