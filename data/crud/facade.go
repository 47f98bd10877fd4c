// Package crud 提供基于表名与键值对象的 CRUD 便捷操作。
//
// Facade 负责：由 criteria / record 拼装命名参数 SQL（见 data/db/sql），
// 经 named.Rewrite 改写为位置参数，交给注入的连接执行并返回原始行数据。
// 驱动错误原样返回，不重试、不包装。
package crud

import (
	"context"
	"time"

	"github.com/spf13/cast"

	core "pgcrud/data/db"
	"pgcrud/data/db/dialect"
	sqlb "pgcrud/data/db/sql"
	"pgcrud/data/named"
	"pgcrud/errors"
	"pgcrud/logging"
)

// Facade CRUD 门面，除注入的连接外无状态，可并发使用
type Facade struct {
	q       core.Queryer
	dialect dialect.Dialect
	logger  logging.Logger
	strict  bool
}

// Option Facade 选项
type Option func(*Facade)

// WithLogger 注入日志
func WithLogger(logger logging.Logger) Option {
	return func(f *Facade) { f.logger = logging.OrNoop(logger) }
}

// WithDialect 指定方言，决定占位符形式与值绑定规则；默认 Unknown（$n 占位符）
func WithDialect(d dialect.Dialect) Option {
	return func(f *Facade) { f.dialect = d }
}

// WithStrictParams 未绑定的命名参数返回 UNBOUND_PARAMETER 错误
func WithStrictParams(strict bool) Option {
	return func(f *Facade) { f.strict = strict }
}

// New 创建绑定到 q 的 Facade
func New(q core.Queryer, opts ...Option) *Facade {
	f := &Facade{
		q:       q,
		dialect: dialect.New(""),
		logger:  logging.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Bind 返回绑定到另一连接的副本，方言、日志与严格模式保持不变
func (f *Facade) Bind(q core.Queryer) *Facade {
	c := *f
	c.q = q
	return &c
}

// Dialect 返回当前方言
func (f *Facade) Dialect() dialect.Dialect { return f.dialect }

// Query 执行任意命名参数 SQL，返回行集合
func (f *Facade) Query(ctx context.Context, sql string, params *named.Params) ([]Row, error) {
	return f.query(ctx, sql, params)
}

// Exec 执行任意命名参数 SQL，返回原始写结果；需要 RETURNING 行时使用 Query
func (f *Facade) Exec(ctx context.Context, sql string, params *named.Params) (Result, error) {
	return f.exec(ctx, sql, params)
}

// SelectOne 返回第一条匹配行；无匹配时返回 (nil, false, nil)
func (f *Facade) SelectOne(ctx context.Context, table string, criteria *named.Params) (Row, bool, error) {
	q, params := sqlb.SelectSQL(table, criteria)
	rows, err := f.query(ctx, q, params)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// SelectList 返回全部匹配行，按 criteria 的 orderBy 排序
func (f *Facade) SelectList(ctx context.Context, table string, criteria *named.Params) ([]Row, error) {
	q, params := sqlb.ListSQL(table, criteria)
	return f.query(ctx, q, params)
}

// SelectPage 返回一页数据与匹配总数。
//
// limit 默认 20，offset 默认 0。总数由独立的 COUNT(*) 查询得到，
// 与分页查询之间不保证快照一致。
func (f *Facade) SelectPage(ctx context.Context, table string, criteria *named.Params) (Page, error) {
	q, params, err := sqlb.PageSQL(table, criteria)
	if err != nil {
		return Page{}, err
	}
	rows, err := f.query(ctx, q, params)
	if err != nil {
		return Page{}, err
	}

	cq, cparams := sqlb.CountSQL(table, criteria)
	counts, err := f.query(ctx, cq, cparams)
	if err != nil {
		return Page{}, err
	}
	total, err := countValue(counts)
	if err != nil {
		return Page{}, err
	}
	return Page{Rows: rows, Total: total}, nil
}

// Save 插入一条记录，列顺序为 record 的插入顺序
func (f *Facade) Save(ctx context.Context, table string, record *named.Params) (Result, error) {
	q, params, err := sqlb.InsertSQL(table, record)
	if err != nil {
		return Result{}, err
	}
	return f.exec(ctx, q, params)
}

// SaveReturning 插入一条记录并返回 RETURNING 列
func (f *Facade) SaveReturning(ctx context.Context, table string, record *named.Params, returning ...string) (Result, error) {
	if f.dialect.Known() && !f.dialect.SupportsReturning() {
		return Result{}, errors.Invalid("dialect %s does not support RETURNING", f.dialect.Name())
	}
	q, params, err := sqlb.InsertSQL(table, record, returning...)
	if err != nil {
		return Result{}, err
	}
	rows, err := f.query(ctx, q, params)
	if err != nil {
		return Result{}, err
	}
	return Result{RowsAffected: int64(len(rows)), Rows: rows}, nil
}

// Update 按 criteria 更新 record 中的列
func (f *Facade) Update(ctx context.Context, table string, record, criteria *named.Params) (Result, error) {
	q, params, err := sqlb.UpdateSQL(table, record, criteria)
	if err != nil {
		return Result{}, err
	}
	return f.exec(ctx, q, params)
}

// Delete 按 criteria 删除；criteria 为空时删除整表
func (f *Facade) Delete(ctx context.Context, table string, criteria *named.Params) (Result, error) {
	q, params := sqlb.DeleteSQL(table, criteria)
	return f.exec(ctx, q, params)
}

// prepare 改写命名参数并按方言转换参数值
func (f *Facade) prepare(sql string, params *named.Params) (string, []any, error) {
	opts := []named.Option{named.WithPlaceholder(f.dialect.Placeholder)}
	if f.strict {
		opts = append(opts, named.Strict())
	}
	q, args, err := named.Rewrite(sql, params, opts...)
	if err != nil {
		return "", nil, err
	}
	for i, v := range args {
		args[i] = f.dialect.BindValue(v)
	}
	return q, args, nil
}

func (f *Facade) query(ctx context.Context, sql string, params *named.Params) ([]Row, error) {
	q, args, err := f.prepare(sql, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	f.logger.Debug(ctx, "execute sql", logging.String("sql", q), logging.Any("args", args))

	rows, err := f.q.QueryxContext(ctx, q, args...)
	if err != nil {
		f.logger.Debug(ctx, "sql failed", logging.Error(err), logging.Duration("cost", time.Since(start)))
		return nil, err
	}
	defer rows.Close()

	out := make([]Row, 0)
	for rows.Next() {
		row := make(Row)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	f.logger.Debug(ctx, "sql done", logging.Int("rows", len(out)), logging.Duration("cost", time.Since(start)))
	return out, nil
}

func (f *Facade) exec(ctx context.Context, sql string, params *named.Params) (Result, error) {
	q, args, err := f.prepare(sql, params)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	f.logger.Debug(ctx, "execute sql", logging.String("sql", q), logging.Any("args", args))

	res, err := f.q.ExecContext(ctx, q, args...)
	if err != nil {
		f.logger.Debug(ctx, "sql failed", logging.Error(err), logging.Duration("cost", time.Since(start)))
		return Result{}, err
	}

	var out Result
	if out.RowsAffected, err = res.RowsAffected(); err != nil {
		return Result{}, err
	}
	// LastInsertId 在部分驱动上不可用，忽略错误
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}

	f.logger.Debug(ctx, "sql done", logging.Int64("rows_affected", out.RowsAffected), logging.Duration("cost", time.Since(start)))
	return out, nil
}

// countValue 读取 COUNT(*) AS count 的结果；MySQL 驱动以 []byte 返回数字
func countValue(rows []Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	v, ok := rows[0]["count"]
	if !ok {
		for _, val := range rows[0] {
			v = val
			break
		}
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, errors.NewErrorWithCause(errors.ErrCodeDatabase, "unexpected count value", err)
	}
	return n, nil
}
