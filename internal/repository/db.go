package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

// Dialect names the SQL backend behind a DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func init() {
	// sqlx only knows the cgo driver name "sqlite3"
	sqlx.BindDriver(string(DialectSQLite), sqlx.QUESTION)
}

// DB is a sqlx handle plus the pgx pool backing it, when there is one.
type DB struct {
	*sqlx.DB
	Dialect Dialect
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

// DialectOf picks postgres for postgres:// URLs and sqlite for everything else.
func DialectOf(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to the configured database.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		return nil, common.NewAppError(common.CodeConfig, "database.dsn is required", common.ErrInvalidInput)
	}

	dialect := DialectOf(cfg.DSN)
	logger.Info("connecting to database", "dialect", dialect)

	db := &DB{Dialect: dialect, logger: logger}
	switch dialect {
	case DialectPostgres:
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to parse database dsn", "error", err)
			return nil, common.NewAppError(common.CodeConfig, "parse database dsn", err)
		}
		if cfg.MaxOpenConns > 0 {
			pc.MaxConns = int32(cfg.MaxOpenConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			pc.MaxConnLifetime = cfg.ConnMaxLifetime
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "receipts-eval"

		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, common.NewAppError(common.CodeStorage, "connect postgres", fmt.Errorf("%w: %v", common.ErrDatabase, err))
		}
		db.pool = pool
		db.DB = sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
	default:
		x, err := sqlx.ConnectContext(ctx, string(DialectSQLite), cfg.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, common.NewAppError(common.CodeStorage, "open sqlite", fmt.Errorf("%w: %v", common.ErrDatabase, err))
		}
		db.DB = x
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	logger.Info("successfully connected to database", "dialect", dialect)
	return db, nil
}

// Close closes the database connections gracefully
func (d *DB) Close() {
	d.logger.Info("closing database connections")
	if err := d.DB.Close(); err != nil {
		d.logger.Error("failed to close database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	d.logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	d.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := d.PingContext(ctx); err != nil {
		return common.NewAppError(common.CodeStorage, "ping database", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	d.logger.Debug("database ping successful")
	return nil
}
