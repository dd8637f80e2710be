// Package database opens the optional Postgres pool that backs chat history
// when CHAT_STORE=postgres.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/rider-client/pkg/config"
	"github.com/richxcame/rider-client/pkg/logger"
	"go.uber.org/zap"
)

const chatSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id          TEXT PRIMARY KEY,
	ride_id     TEXT NOT NULL,
	chat_id     TEXT NOT NULL DEFAULT '',
	sender_id   TEXT NOT NULL,
	sender_role TEXT NOT NULL,
	message     TEXT NOT NULL,
	is_read     BOOLEAN NOT NULL DEFAULT false,
	is_deleted  BOOLEAN NOT NULL DEFAULT false,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chat_messages_ride_created_idx ON chat_messages (ride_id, created_at);
`

// Execer runs a statement; *pgxpool.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// OpenChatPool connects to cfg.DatabaseURL and makes sure the chat table exists.
// appName is reported to the server as application_name.
func OpenChatPool(ctx context.Context, cfg config.ChatStoreConfig, appName string, log *zap.Logger) (*pgxpool.Pool, error) {
	log = logger.OrNop(log)
	poolConfig, err := poolConfig(cfg, appName)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping chat database: %w", err)
	}
	if err := EnsureChatSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("chat database ready",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.Int32("max_conns", poolConfig.MaxConns))
	return pool, nil
}

func poolConfig(cfg config.ChatStoreConfig, appName string) (*pgxpool.Config, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("chat database url is not configured")
	}
	pc, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse chat database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = int32(cfg.MaxConns)
	}
	// A CLI session holds the pool for minutes at most.
	pc.MinConns = 0
	pc.MaxConnIdleTime = time.Minute
	if appName != "" {
		pc.ConnConfig.RuntimeParams["application_name"] = appName
	}
	return pc, nil
}

// EnsureChatSchema creates the chat_messages table and its index when missing.
func EnsureChatSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, chatSchema); err != nil {
		return fmt.Errorf("failed to create chat schema: %w", err)
	}
	return nil
}

// Close closes pool when it is set.
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

// retryableClasses are SQLSTATE classes (first two characters) for transient
// server conditions.
var retryableClasses = map[string]bool{
	"08": true, // connection exception
	"57": true, // operator intervention
	"58": true, // system error
}

var retryableCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"53000": true, // insufficient_resources
	"53300": true, // too_many_connections
	"53400": true, // configuration_limit_exceeded
	"XX000": true, // internal_error
}

var retryableMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"timeout",
	"server closed",
	"unexpected eof",
}

// IsRetryable reports whether err is a transient database failure. Canceled
// and expired contexts are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) == 5 && retryableClasses[pgErr.Code[:2]] && pgErr.Code != "57014" {
			return true
		}
		return retryableCodes[pgErr.Code]
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range retryableMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
