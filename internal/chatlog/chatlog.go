// Package chatlog provides an optional audit sink that records dispatched
// chat messages and load/construction diagnostics to PostgreSQL. It is a
// fire-and-forget observer: a logging failure never blocks or fails the
// dispatch path it is attached to.
package chatlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one audited record.
type Entry struct {
	// Op is the originating operation; [AuditingSink] records "dispatch".
	Op string
	// Client is the client index involved, or -1 when not applicable (e.g.
	// an asset load).
	Client int
	// SendTo is the dispatch channel used ("say", "say_team", "tell"), or
	// empty when Op did not dispatch anything.
	SendTo string
	// Message is the constructed text, or a diagnostic string for failures.
	Message string
	// At is when the event happened.
	At time.Time
}

// Sink records Entry values to PostgreSQL. Record never returns an error to
// the caller's dispatch path — failures are logged and swallowed, since
// losing an audit row must never break chatting.
type Sink struct {
	pool *pgxpool.Pool
}

// Open connects a pgxpool to dsn and ensures the audit table exists. Callers
// should defer Close.
func Open(ctx context.Context, dsn string) (*Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Sink{pool: pool}, nil
}

// NewWithPool wraps an already-constructed pool, useful for tests that want
// to supply their own pgxpool.Pool (e.g. against a test container).
func NewWithPool(pool *pgxpool.Pool) *Sink {
	return &Sink{pool: pool}
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS botchat_log (
	id        BIGSERIAL PRIMARY KEY,
	op        TEXT NOT NULL,
	client    INTEGER NOT NULL,
	sendto    TEXT NOT NULL DEFAULT '',
	message   TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
)`
	_, err := pool.Exec(ctx, ddl)
	return err
}

// Record inserts entry. On failure it logs a warning and returns; it never
// propagates the error to a caller that is mid-dispatch.
func (s *Sink) Record(ctx context.Context, entry Entry) {
	if s == nil || s.pool == nil {
		return
	}
	const insert = `INSERT INTO botchat_log (op, client, sendto, message, occurred_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.pool.Exec(ctx, insert, entry.Op, entry.Client, entry.SendTo, entry.Message, entry.At); err != nil {
		slog.Warn("chatlog: failed to record audit entry", "op", entry.Op, "err", err)
	}
}

// Close releases the underlying connection pool.
func (s *Sink) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
