package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// maxSQLLength caps logged statements; recurring instance batches expand to
// hundreds of value tuples
const maxSQLLength = 1024

// Postgres codes raised when a row lock cannot be taken
var lockCodes = map[string]string{
	"55P03": "lock_timeout",
	"40P01": "deadlock",
	"40001": "serialization_failure",
}

// GormLogger routes gorm's SQL tracing through slog. Statements that take
// row locks carry row_lock=true.
type GormLogger struct {
	LogLevel      gormlogger.LogLevel
	SlowThreshold time.Duration
}

func NewGormLogger(logLevel gormlogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{
		LogLevel:      logLevel,
		SlowThreshold: slowThreshold,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.LogLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Info {
		Log.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Warn {
		Log.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Error {
		Log.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := sqlAttrs(sql, rows, elapsed)

	switch {
	case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
		// lookups by id miss as part of normal control flow
	case lockFailure(err) != "":
		if l.LogLevel >= gormlogger.Warn {
			attrs = append(attrs, slog.String("lock_failure", lockFailure(err)), slog.String("error", err.Error()))
			Log.WarnContext(ctx, "SQL lock contention", attrs...)
		}
		return
	default:
		if l.LogLevel >= gormlogger.Error {
			attrs = append(attrs, slog.String("error", err.Error()))
			Log.ErrorContext(ctx, "SQL error", attrs...)
		}
		return
	}

	if l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.LogLevel >= gormlogger.Warn {
		Log.WarnContext(ctx, "Slow SQL", attrs...)
		return
	}
	if l.LogLevel >= gormlogger.Info {
		Log.DebugContext(ctx, "SQL", attrs...)
	}
}

func sqlAttrs(sql string, rows int64, elapsed time.Duration) []any {
	attrs := []any{
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if strings.Contains(sql, "FOR UPDATE") {
		attrs = append(attrs, slog.Bool("row_lock", true))
	}
	if len(sql) > maxSQLLength {
		attrs = append(attrs, slog.Int("sql_length", len(sql)))
		sql = sql[:maxSQLLength] + "..."
	}
	return append(attrs, slog.String("sql", sql))
}

// lockFailure names the lock problem behind err, or "" for any other error
func lockFailure(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return lockCodes[pgErr.Code]
	}
	return ""
}
