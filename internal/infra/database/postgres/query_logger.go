package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	applogger "github.com/wonny/quotecatalog/internal/pkg/logger"
)

type queryStartKey struct{}

// QueryLogger implements pgx.QueryTracer and reports slow or failed queries
type QueryLogger struct {
	logger zerolog.Logger
	slow   time.Duration
}

// NewQueryLogger creates a new query logger
func NewQueryLogger(logger zerolog.Logger, slow time.Duration) *QueryLogger {
	return &QueryLogger{
		logger: logger,
		slow:   slow,
	}
}

// TraceQueryStart is called at the beginning of Query, QueryRow, and Exec calls
func (ql *QueryLogger) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

// TraceQueryEnd is called at the end of Query, QueryRow, and Exec calls
func (ql *QueryLogger) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	duration := time.Since(start)

	var event *zerolog.Event
	switch {
	case data.Err != nil:
		// serialization failures are expected under contention
		event = ql.logger.Debug().Err(data.Err)
	case duration > ql.slow:
		event = ql.logger.Warn()
	default:
		return
	}

	if requestID := applogger.RequestID(ctx); requestID != "" {
		event = event.Str("request_id", requestID)
	}

	event.
		Str("sql", data.SQL).
		Int64("duration_ms", duration.Milliseconds()).
		Str("command_tag", data.CommandTag.String()).
		Msg("Query finished")
}

// PgxZerologAdapter adapts zerolog.Logger to pgx's tracelog.Logger interface
type PgxZerologAdapter struct {
	logger zerolog.Logger
}

// NewPgxZerologAdapter creates a new adapter
func NewPgxZerologAdapter(logger zerolog.Logger) *PgxZerologAdapter {
	return &PgxZerologAdapter{logger: logger}
}

// Log implements tracelog.Logger
func (l *PgxZerologAdapter) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	var event *zerolog.Event

	switch level {
	case tracelog.LogLevelTrace:
		event = l.logger.Trace()
	case tracelog.LogLevelDebug:
		event = l.logger.Debug()
	case tracelog.LogLevelInfo:
		event = l.logger.Info()
	case tracelog.LogLevelWarn:
		event = l.logger.Warn()
	case tracelog.LogLevelError:
		event = l.logger.Error()
	default:
		event = l.logger.Info()
	}

	if requestID := applogger.RequestID(ctx); requestID != "" {
		event = event.Str("request_id", requestID)
	}
	event.Fields(data).Msg(msg)
}

// multiTracer fans query events out to the slow-query logger and tracelog
type multiTracer struct {
	query *QueryLogger
	trace *tracelog.TraceLog
}

func (m *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx = m.query.TraceQueryStart(ctx, conn, data)
	return m.trace.TraceQueryStart(ctx, conn, data)
}

func (m *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	m.trace.TraceQueryEnd(ctx, conn, data)
	m.query.TraceQueryEnd(ctx, conn, data)
}
