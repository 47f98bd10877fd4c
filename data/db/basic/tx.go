package basic

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pgcrud/data/crud"
	"pgcrud/errors"
	"pgcrud/logging"
)

// TxState 事务状态
type TxState int32

const (
	TxActive TxState = iota
	TxCommitted
	TxRolledBack
	// TxTimedOut 超时触发的自动回滚
	TxTimedOut
)

func (s TxState) String() string {
	switch s {
	case TxActive:
		return "active"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled_back"
	case TxTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Tx 独占一个连接的事务句柄
//
// 内嵌的 Facade 绑定到该连接。Commit、Rollback 与超时回滚三者只有一个会执行，
// 连接恰好释放一次；释放后句柄上的查询返回 sql.ErrConnDone。
type Tx struct {
	*crud.Facade

	id     string
	conn   *sqlx.Conn
	logger logging.Logger
	start  time.Time

	mu      sync.Mutex
	state   TxState
	timer   *time.Timer
	done    chan struct{}
	release sync.Once
}

// Begin 检出独占连接并开启事务；超过 TxTimeout 未结束的事务自动回滚
func (d *DB) Begin(ctx context.Context) (*Tx, error) {
	conn, err := d.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, "BEGIN"); err != nil {
		discard(conn)
		return nil, err
	}

	tx := &Tx{
		id:    uuid.NewString(),
		conn:  conn,
		start: time.Now(),
		state: TxActive,
		done:  make(chan struct{}),
	}
	tx.logger = d.logger.WithFields(logging.String("tx_id", tx.id))
	tx.Facade = d.Facade.Bind(&txConn{tx: tx})

	tx.mu.Lock()
	tx.timer = time.AfterFunc(d.txTimeout, tx.expire)
	tx.mu.Unlock()

	tx.logger.Debug(ctx, "tx begin", logging.Duration("timeout", d.txTimeout))
	return tx, nil
}

// ID 事务标识
func (t *Tx) ID() string { return t.id }

// State 当前状态
func (t *Tx) State() TxState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done 连接释放后关闭
func (t *Tx) Done() <-chan struct{} { return t.done }

// Commit 提交事务并释放连接；事务已结束时返回 TX_DONE
func (t *Tx) Commit(ctx context.Context) error {
	return t.finish(ctx, "COMMIT", TxCommitted)
}

// Rollback 回滚事务并释放连接；事务已结束时返回 TX_DONE
func (t *Tx) Rollback(ctx context.Context) error {
	return t.finish(ctx, "ROLLBACK", TxRolledBack)
}

func (t *Tx) finish(ctx context.Context, stmt string, next TxState) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TxActive {
		return errors.NewError(errors.ErrCodeTxDone, "transaction already "+t.state.String()).
			WithContext("tx_id", t.id)
	}
	if t.timer != nil {
		t.timer.Stop()
	}

	_, err := t.conn.ExecContext(ctx, stmt)
	if err != nil {
		// 终止语句失败时连接状态未知，服务端会在连接断开时回滚
		t.state = TxRolledBack
		t.releaseConn(true)
		t.logger.Warn(ctx, "tx "+stmt+" failed", logging.Error(err))
		return err
	}

	t.state = next
	t.releaseConn(false)
	t.logger.Debug(ctx, "tx "+next.String(), logging.Duration("cost", time.Since(t.start)))
	return nil
}

// expire 超时回调：仍处于 Active 时强制回滚
func (t *Tx) expire() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TxActive {
		return
	}
	ctx := context.Background()
	t.state = TxTimedOut
	_, err := t.conn.ExecContext(ctx, "ROLLBACK")
	t.releaseConn(err != nil)

	fields := []logging.Field{logging.Duration("elapsed", time.Since(t.start))}
	if err != nil {
		fields = append(fields, logging.Error(err))
	}
	t.logger.Warn(ctx, "tx timed out, rolled back", fields...)
}

// releaseConn 将连接归还连接池，bad 为 true 时丢弃该连接
func (t *Tx) releaseConn(bad bool) {
	t.release.Do(func() {
		if bad {
			discard(t.conn)
		} else {
			_ = t.conn.Close()
		}
		close(t.done)
	})
}

// discard 关闭连接且不放回连接池
func discard(conn *sqlx.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}

// txConn 在事务结束后拒绝继续使用连接
type txConn struct {
	tx *Tx
}

func (c *txConn) active() bool {
	select {
	case <-c.tx.done:
		return false
	default:
		return true
	}
}

func (c *txConn) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	if !c.active() {
		return nil, sql.ErrConnDone
	}
	return c.tx.conn.QueryxContext(ctx, query, args...)
}

func (c *txConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if !c.active() {
		return nil, sql.ErrConnDone
	}
	return c.tx.conn.ExecContext(ctx, query, args...)
}
