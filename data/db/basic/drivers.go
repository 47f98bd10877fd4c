package basic

// 注册受支持的 database/sql 驱动：postgres(lib/pq)、pgx、mysql、sqlite(modernc)
import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)
