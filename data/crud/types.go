package crud

// Row 驱动返回的一行数据，列名 -> 值，不做类型转换
type Row = map[string]any

// Page 分页查询结果
//
// Rows 与 Total 来自两条独立的查询，并发写入时二者可能反映不同时刻的数据。
type Page struct {
	Rows  []Row
	Total int64
}

// Result 写操作的原始结果
//
// 只有 SaveReturning 填充 Rows，此时 RowsAffected 为返回的行数；
// 需要其它语句的 RETURNING 结果时使用 Query。
// 驱动不支持 LastInsertId（如 Postgres）时 LastInsertID 为 0。
type Result struct {
	RowsAffected int64
	LastInsertID int64
	Rows         []Row
}
