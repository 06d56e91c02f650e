package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domainkafka "github.com/NordCoder/Placement/internal/domain/kafka"
	"github.com/NordCoder/Placement/internal/domain/outbox"
	"github.com/NordCoder/Placement/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var (
	outboxHandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outboxHandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

func instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle "+kind)
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		outboxHandlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			outboxHandlerErrors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

func MakeGlobalOutboxHandler(pub domainkafka.AccountEvents, pol retry.Policy) outbox.GlobalHandler {
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindAccountRegistered:
			base := func(ctx context.Context, data []byte) error {
				var p outbox.AccountRegisteredPayload
				if err := json.Unmarshal(data, &p); err != nil {
					return fmt.Errorf("unmarshal account-registered payload: %w", err)
				}
				return pub.PublishAccountRegistered(ctx, p)
			}
			return instrument(kind.String(), base, pol), nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
	}
}
