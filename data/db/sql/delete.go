package sql

import (
	"pgcrud/data/named"
)

// DeleteSQL 生成 DELETE FROM table [WHERE ...]。
//
// criteria 为空时生成不带 WHERE 的整表删除，由调用方决定是否允许。
func DeleteSQL(table string, criteria *named.Params) (string, *named.Params) {
	b := newBinder(criteria.Clone())
	return "DELETE FROM " + table + whereClause(criteria, b), b.params
}
