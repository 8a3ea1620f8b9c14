// Package observe provides application-wide observability primitives for
// the botchat engine: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all botchat metrics.
const meterName = "github.com/vexscript/botchat"

// Metrics holds all OpenTelemetry metric instruments for the engine.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Counters ---

	// ChatEvents counts calls into the dispatch facade. Use with attributes:
	//   attribute.String("op", "enter"|"reply"), attribute.String("result", "dispatched"|"blocked"|"no_match"|"construction_failed"|"dispatch_error"|"no_rchats")
	ChatEvents metric.Int64Counter

	// CooldownBlocks counts gate denials. Use with attribute:
	//   attribute.String("gate", "nochat"|"bounds"|"client"|"context")
	CooldownBlocks metric.Int64Counter

	// ConstructionFailures counts chatengine message-construction failures.
	// Use with attribute: attribute.String("reason", ...)
	ConstructionFailures metric.Int64Counter

	// Dispatches counts messages successfully handed to a [dispatch.Sink].
	// Use with attributes: attribute.String("sendto", "say"|"say_team"|"tell"),
	// attribute.String("sink", ...). chatengine passes the constant "sink"
	// for every dispatch; it does not tell sink implementations apart.
	Dispatches metric.Int64Counter

	// DispatchErrors counts sink send failures. Use with attribute:
	//   attribute.String("sink", ...)
	DispatchErrors metric.Int64Counter

	// AssetLoads counts chat-asset load attempts. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	AssetLoads metric.Int64Counter

	// --- Gauges ---

	// ConsoleQueueDepth is an up-down counter for the number of messages
	// buffered in the console queue (0..16). The chat engine's console queue
	// does not update it; only callers that Add to it directly move it.
	ConsoleQueueDepth metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ChatEvents, err = m.Int64Counter("botchat.chat.events",
		metric.WithDescription("Total calls into EnterChat/ReplyChat by op and result."),
	); err != nil {
		return nil, err
	}
	if met.CooldownBlocks, err = m.Int64Counter("botchat.cooldown.blocks",
		metric.WithDescription("Total gate denials by gate kind."),
	); err != nil {
		return nil, err
	}
	if met.ConstructionFailures, err = m.Int64Counter("botchat.construction.failures",
		metric.WithDescription("Total chat message construction failures by reason."),
	); err != nil {
		return nil, err
	}
	if met.Dispatches, err = m.Int64Counter("botchat.dispatch.sent",
		metric.WithDescription("Total messages handed to a dispatch sink by sendto and sink kind."),
	); err != nil {
		return nil, err
	}
	if met.DispatchErrors, err = m.Int64Counter("botchat.dispatch.errors",
		metric.WithDescription("Total dispatch sink send failures by sink kind."),
	); err != nil {
		return nil, err
	}
	if met.AssetLoads, err = m.Int64Counter("botchat.asset.loads",
		metric.WithDescription("Total chat-asset load attempts by status."),
	); err != nil {
		return nil, err
	}

	if met.ConsoleQueueDepth, err = m.Int64UpDownCounter("botchat.console_queue.depth",
		metric.WithDescription("Current number of buffered console messages."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("botchat.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordChatEvent is a convenience method recording a dispatch-facade call.
func (m *Metrics) RecordChatEvent(ctx context.Context, op, result string) {
	m.ChatEvents.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("result", result),
		),
	)
}

// RecordCooldownBlock is a convenience method recording a gate denial.
func (m *Metrics) RecordCooldownBlock(ctx context.Context, gate string) {
	m.CooldownBlocks.Add(ctx, 1, metric.WithAttributes(attribute.String("gate", gate)))
}

// RecordConstructionFailure is a convenience method recording a
// message-construction failure.
func (m *Metrics) RecordConstructionFailure(ctx context.Context, reason string) {
	m.ConstructionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordDispatch is a convenience method recording a successful sink send.
func (m *Metrics) RecordDispatch(ctx context.Context, sendto, sink string) {
	m.Dispatches.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("sendto", sendto),
			attribute.String("sink", sink),
		),
	)
}

// RecordDispatchError is a convenience method recording a failed sink send.
func (m *Metrics) RecordDispatchError(ctx context.Context, sink string) {
	m.DispatchErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}

// RecordAssetLoad is a convenience method recording a chat-asset load attempt.
func (m *Metrics) RecordAssetLoad(ctx context.Context, status string) {
	m.AssetLoads.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
