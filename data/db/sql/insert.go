package sql

import (
	"strings"

	"pgcrud/data/named"
	"pgcrud/errors"
)

// InsertSQL 生成 INSERT INTO table (c1, c2) VALUES (:c1, :c2) [RETURNING ...]。
//
// 列顺序即 record 的插入顺序；record 为空时返回 INVALID_INPUT。
func InsertSQL(table string, record *named.Params, returning ...string) (string, *named.Params, error) {
	if record.Len() == 0 {
		return "", nil, errors.Invalid("insert into %s: record has no columns", table)
	}

	b := newBinder(named.New())
	cols := record.Keys()
	values := make([]string, len(cols))
	for i, col := range cols {
		v, _ := record.Get(col)
		values[i] = ":" + b.bind("", col, v)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES (")
	sb.WriteString(strings.Join(values, ", "))
	sb.WriteString(")")
	sb.WriteString(returningClause(returning))
	return sb.String(), b.params, nil
}

func returningClause(cols []string) string {
	var kept []string
	for _, c := range cols {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return " RETURNING " + strings.Join(kept, ", ")
}
