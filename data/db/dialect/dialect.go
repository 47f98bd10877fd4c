package dialect

import (
	"database/sql/driver"
	"reflect"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Name 标准化的数据库方言名称
type Name string

const (
	NameMySQL    Name = "mysql"
	NameSQLite   Name = "sqlite"
	NamePostgres Name = "postgres"
	NameUnknown  Name = ""
)

// Dialect 表示当前数据库的方言能力
//
// 只抽象项目实际用到的能力：
//   - Placeholder: 位置占位符形式（$n 或 ?）
//   - DriverName: database/sql 注册的驱动名
//   - SupportsReturning: 是否支持 INSERT ... RETURNING
//   - BindValue: 绑定前的值转换（Postgres 数组）
//   - IsUniqueViolation: 唯一键/主键冲突错误识别
type Dialect struct {
	name   Name
	driver string
}

// New 根据驱动名或方言名构造方言（大小写不敏感）
//
// "pgx" 会映射为 Postgres 方言并保留 pgx 驱动名；
// 未知名称返回 Unknown 方言，占位符按 $n 处理。
func New(name string) Dialect {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "mysql":
		return Dialect{name: NameMySQL, driver: "mysql"}
	case "sqlite", "sqlite3":
		return Dialect{name: NameSQLite, driver: "sqlite"}
	case "postgres", "postgresql":
		return Dialect{name: NamePostgres, driver: "postgres"}
	case "pgx":
		return Dialect{name: NamePostgres, driver: "pgx"}
	default:
		return Dialect{name: NameUnknown, driver: n}
	}
}

// Name 返回标准化方言名
func (d Dialect) Name() Name {
	return d.name
}

// DriverName 返回 sql.Open 使用的驱动名
func (d Dialect) DriverName() string {
	return d.driver
}

// Known 是否为受支持的方言
func (d Dialect) Known() bool {
	return d.name != NameUnknown
}

// Placeholder 返回第 n 个（从 1 开始）位置占位符。
//
// MySQL 与 SQLite 使用 ?，其余方言（含 Unknown）使用 $n。
func (d Dialect) Placeholder(n int) string {
	switch d.name {
	case NameMySQL, NameSQLite:
		return "?"
	default:
		return "$" + strconv.Itoa(n)
	}
}

// SupportsReturning 当前方言是否支持 RETURNING 子句
func (d Dialect) SupportsReturning() bool {
	switch d.name {
	case NamePostgres, NameSQLite:
		return true
	default:
		return false
	}
}

// BindValue 在绑定前转换参数值。
//
// Postgres 下 Go 切片（[]byte 除外）包装为 pq.Array，以便作为数组参数绑定；
// 已实现 driver.Valuer 的值保持原样。
func (d Dialect) BindValue(v any) any {
	if d.name != NamePostgres || v == nil {
		return v
	}
	if _, ok := v.(driver.Valuer); ok {
		return v
	}
	if _, ok := v.([]byte); ok {
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return pq.Array(v)
	}
	return v
}

// IsUniqueViolation 判断错误是否为唯一键/主键冲突
//
// 使用错误消息关键字匹配；Postgres 下优先识别 *pq.Error 的 23505 错误码。
//
// 支持的数据库及其错误特征：
//   - MySQL: "Duplicate entry", "duplicate key" (Error 1062)
//   - SQLite: "UNIQUE constraint failed"
//   - Postgres: "duplicate key value", "unique constraint" (23505)
func (d Dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	switch d.name {
	case NameMySQL:
		return strings.Contains(msg, "duplicate entry") ||
			strings.Contains(msg, "duplicate key")
	case NameSQLite:
		return strings.Contains(msg, "unique constraint failed")
	default:
		return strings.Contains(msg, "duplicate key") ||
			strings.Contains(msg, "unique constraint")
	}
}
