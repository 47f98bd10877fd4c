// Package basic 基于 sqlx 的连接池与事务实现
//
// DB 内嵌绑定到连接池的 crud.Facade；Begin 检出独占连接并返回绑定到该连接的 Tx。
package basic

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pgcrud/data/crud"
	core "pgcrud/data/db"
	"pgcrud/data/db/dialect"
	"pgcrud/errors"
	"pgcrud/logging"
)

const pingTimeout = 3 * time.Second

// DB 连接池封装
type DB struct {
	*crud.Facade

	db        *sqlx.DB
	dialect   dialect.Dialect
	txTimeout time.Duration
	logger    logging.Logger
}

// Open 按配置打开连接池并验证连通性
func Open(cfg core.Config, logger logging.Logger) (*DB, error) {
	logger = logging.OrNoop(logger)
	d := dialect.New(cfg.Driver)
	if !d.Known() {
		return nil, errors.NewError(errors.ErrCodeConfig, fmt.Sprintf("unsupported driver %q", cfg.Driver))
	}
	if cfg.DSN == "" {
		return nil, errors.NewError(errors.ErrCodeConfig, "database dsn is empty")
	}

	x, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeDatabase, "open database failed")
	}
	applyPool(x, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := x.PingContext(ctx); err != nil {
		_ = x.Close()
		logger.Error(ctx, "db connect failed", logging.String("driver", string(d.Name())), logging.Error(err))
		return nil, pingError(ctx, err)
	}

	logger.Info(ctx, "db connected",
		logging.String("driver", string(d.Name())),
		logging.Bool("strict_params", cfg.StrictParams),
	)
	return New(x, cfg, logger), nil
}

// New 包装已打开的 *sqlx.DB，不做连通性检查
func New(x *sqlx.DB, cfg core.Config, logger logging.Logger) *DB {
	logger = logging.OrNoop(logger)
	d := dialect.New(cfg.Driver)
	if cfg.Driver == "" {
		d = dialect.New(x.DriverName())
	}
	return &DB{
		Facade: crud.New(x,
			crud.WithDialect(d),
			crud.WithLogger(logger),
			crud.WithStrictParams(cfg.StrictParams),
		),
		db:        x,
		dialect:   d,
		txTimeout: cfg.EffectiveTxTimeout(),
		logger:    logger,
	}
}

func applyPool(x *sqlx.DB, cfg core.Config) {
	if cfg.MaxOpenConns > 0 {
		x.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		x.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		x.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		x.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// SQLX 返回底层连接池
func (d *DB) SQLX() *sqlx.DB { return d.db }

// Ping 检查连通性
func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

// Close 关闭连接池
func (d *DB) Close() error { return d.db.Close() }

// pingError 探测超时映射为 TIMEOUT，其余失败为 DATABASE_ERROR
func pingError(ctx context.Context, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.WrapError(err, errors.ErrCodeTimeout, "ping database timed out")
	}
	return errors.WrapError(err, errors.ErrCodeDatabase, "ping database failed")
}

// Watch 周期性探测连接池健康状况，阻塞直到 ctx 结束或探测失败。
//
// 探测失败时记录 error 日志并以 TIMEOUT 或 DATABASE_ERROR 错误调用一次 onError 后返回；
// 是否终止进程由调用方决定。
func (d *DB) Watch(ctx context.Context, interval time.Duration, onError func(error)) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := d.db.PingContext(pctx)
			if err != nil {
				err = pingError(pctx, err)
			}
			cancel()
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			d.logger.Error(ctx, "db pool error", logging.Error(err))
			if onError != nil {
				onError(err)
			}
			return
		}
	}
}

// WithTransaction 在事务中执行 fn：返回 nil 时提交，返回错误或 panic 时回滚
func (d *DB) WithTransaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := d.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.Background())
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.IsErrorCode(rbErr, errors.ErrCodeTxDone) {
			d.logger.Warn(ctx, "rollback failed", logging.String("tx_id", tx.ID()), logging.Error(rbErr))
		}
		return err
	}
	return tx.Commit(ctx)
}
