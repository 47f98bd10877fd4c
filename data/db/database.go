// Package db 定义 pgcrud 与底层数据库连接之间的最小契约
//
// 设计目标：
// 1. facade 只依赖 Queryer，连接池（*sqlx.DB）与独占连接（*sqlx.Conn）都满足该接口
// 2. 连接池、驱动注册与事务生命周期由 basic 子包实现
// 3. 便于在测试中替换为记录 SQL 的包装实现
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Queryer 可执行位置参数 SQL 的连接
//
// *sqlx.DB、*sqlx.Conn、*sqlx.Tx 均实现该接口。
type Queryer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ Queryer = (*sqlx.DB)(nil)
	_ Queryer = (*sqlx.Conn)(nil)
	_ Queryer = (*sqlx.Tx)(nil)
)

// DefaultTxTimeout 事务未提交/回滚时的自动回滚时限
const DefaultTxTimeout = 90 * time.Second

// Config 数据库配置
type Config struct {
	Driver string // postgres, pgx, mysql, sqlite
	DSN    string

	// 连接池配置，零值表示使用 database/sql 默认值
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// TxTimeout 事务超时自动回滚时限，<= 0 时使用 DefaultTxTimeout
	TxTimeout time.Duration

	// StrictParams 未绑定的命名参数报错而不是绑定 NULL
	StrictParams bool
}

// EffectiveTxTimeout 返回生效的事务超时
func (c Config) EffectiveTxTimeout() time.Duration {
	if c.TxTimeout <= 0 {
		return DefaultTxTimeout
	}
	return c.TxTimeout
}
