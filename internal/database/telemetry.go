package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedPool wraps a pgx pool so every statement shows up as a child span
// of the request that issued it. It satisfies DatabasePool.
type TracedPool struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

func NewTracedPool(pool *pgxpool.Pool) *TracedPool {
	return &TracedPool{
		pool:   pool,
		tracer: otel.Tracer("macrobeta/database"),
	}
}

func (p *TracedPool) startSpan(ctx context.Context, name, sql string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", sql),
	))
}

func (p *TracedPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := p.startSpan(ctx, "db.query", sql)
	defer span.End()

	rows, err := p.pool.Query(ctx, sql, args...)
	recordSpanOutcome(span, err)
	return rows, err
}

func (p *TracedPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := p.startSpan(ctx, "db.query_row", sql)
	defer span.End()

	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *TracedPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := p.startSpan(ctx, "db.exec", sql)
	defer span.End()

	tag, err := p.pool.Exec(ctx, sql, args...)
	recordSpanOutcome(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	}
	return tag, err
}

// Begin starts a transaction whose statements are traced individually.
// The transaction itself does not get an enclosing span; long-lived spans
// around held connections age badly in exporters.
func (p *TracedPool) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, span := p.startSpan(ctx, "db.begin", "BEGIN")
	defer span.End()

	tx, err := p.pool.Begin(ctx)
	recordSpanOutcome(span, err)
	if err != nil {
		return nil, err
	}
	return &TracedTx{tx: tx, tracer: p.tracer}, nil
}

// Ping verifies connectivity. Used by health checks, which are excluded
// from request tracing, so no span here.
func (p *TracedPool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// TracedTx traces the statements issued inside a transaction. It
// implements pgx.Tx so callers cannot tell it apart from a bare
// transaction.
type TracedTx struct {
	tx     pgx.Tx
	tracer trace.Tracer
}

func (t *TracedTx) startSpan(ctx context.Context, name, sql string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", sql),
	))
}

func (t *TracedTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := t.startSpan(ctx, "db.tx.query", sql)
	defer span.End()

	rows, err := t.tx.Query(ctx, sql, args...)
	recordSpanOutcome(span, err)
	return rows, err
}

func (t *TracedTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := t.startSpan(ctx, "db.tx.query_row", sql)
	defer span.End()

	return t.tx.QueryRow(ctx, sql, args...)
}

func (t *TracedTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := t.startSpan(ctx, "db.tx.exec", sql)
	defer span.End()

	tag, err := t.tx.Exec(ctx, sql, args...)
	recordSpanOutcome(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	}
	return tag, err
}

func (t *TracedTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	ctx, span := t.tracer.Start(ctx, "db.tx.copy_from", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.table", tableName.Sanitize()),
	))
	defer span.End()

	copied, err := t.tx.CopyFrom(ctx, tableName, columnNames, rowSrc)
	recordSpanOutcome(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", copied))
	}
	return copied, err
}

func (t *TracedTx) Commit(ctx context.Context) error {
	ctx, span := t.startSpan(ctx, "db.tx.commit", "COMMIT")
	defer span.End()

	err := t.tx.Commit(ctx)
	recordSpanOutcome(span, err)
	return err
}

// Rollback is usually deferred after a failure already recorded on the
// failing statement's span, so it stays unspanned.
func (t *TracedTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func (t *TracedTx) Begin(ctx context.Context) (pgx.Tx, error) {
	nested, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &TracedTx{tx: nested, tracer: t.tracer}, nil
}

func (t *TracedTx) Conn() *pgx.Conn {
	return t.tx.Conn()
}

func (t *TracedTx) LargeObjects() pgx.LargeObjects {
	return t.tx.LargeObjects()
}

func (t *TracedTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return t.tx.Prepare(ctx, name, sql)
}

func (t *TracedTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return t.tx.SendBatch(ctx, b)
}

func recordSpanOutcome(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "statement failed")
}
