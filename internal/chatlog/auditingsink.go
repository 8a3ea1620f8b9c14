package chatlog

import (
	"context"
	"time"

	"github.com/vexscript/botchat/internal/dispatch"
)

// AuditingSink wraps a dispatch.Sink, recording every successfully
// dispatched message to a [Sink] before reporting back to the caller. A nil
// audit Sink makes this a transparent passthrough.
type AuditingSink struct {
	inner dispatch.Sink
	audit *Sink
	now   func() time.Time
}

// NewAuditingSink wraps inner with audit logging. now defaults to
// time.Now; tests may override it for deterministic timestamps.
func NewAuditingSink(inner dispatch.Sink, audit *Sink) *AuditingSink {
	return &AuditingSink{inner: inner, audit: audit, now: time.Now}
}

// Send implements dispatch.Sink: it forwards to inner and, on success,
// records the dispatch. A failed send is not audited — only actually
// delivered messages are.
func (a *AuditingSink) Send(ctx context.Context, sendto dispatch.SendTo, client int, message string) error {
	if err := a.inner.Send(ctx, sendto, client, message); err != nil {
		return err
	}
	if a.audit != nil {
		a.audit.Record(ctx, Entry{
			Op:      "dispatch",
			Client:  client,
			SendTo:  sendto.String(),
			Message: message,
			At:      a.now(),
		})
	}
	return nil
}
