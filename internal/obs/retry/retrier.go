package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Backoff interface {
	Next(attempt int) time.Duration
}

type ExpoJitter struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExpoJitter) Next(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.Base) * math.Pow(2, float64(attempt))
	if b.Max > 0 && time.Duration(d) > b.Max {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		j := 1 + (rand.Float64()*2-1)*b.Jitter
		d *= j
	}
	return time.Duration(d)
}

type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
	OnExhaust func(lastErr error)
}

var (
	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Total retry attempts (including final).",
	}, []string{"name"})
	retryExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_exhausted_total",
		Help: "Operations that exhausted all retries.",
	}, []string{"name"})
	retryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retry_duration_seconds",
		Help:    "Total time spent inside retry.Do (success or fail).",
		Buckets: prometheus.DefBuckets,
	}, []string{"name"})
)

// Do calls fn until it succeeds, the policy gives up, or ctx is done. A canceled ctx wins over
// a pending retry and its error is returned instead of the last fn error.
func Do(ctx context.Context, fn func() error, p Policy) (err error) {
	name := p.Name
	if name == "" {
		name = "default"
	}
	start := time.Now()
	defer func() { retryLatency.WithLabelValues(name).Observe(time.Since(start).Seconds()) }()

	attempts := max(p.Attempts, 1)
	backoff := p.Backoff
	if backoff == nil {
		backoff = ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second}
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(err error) bool { return err != nil }
	}
	span := trace.SpanFromContext(ctx)

	for i := 0; ; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		retryAttempts.WithLabelValues(name).Inc()
		if err = fn(); err == nil {
			return nil
		}
		if p.OnAttempt != nil {
			p.OnAttempt(i, err)
		}
		if span.IsRecording() {
			span.AddEvent("retry.attempt", trace.WithAttributes(
				attribute.String("retry.name", name),
				attribute.Int("retry.attempt", i+1),
				attribute.String("retry.error", err.Error()),
			))
		}
		if i == attempts-1 || !retryable(err) {
			retryExhausted.WithLabelValues(name).Inc()
			if p.OnExhaust != nil {
				p.OnExhaust(err)
			}
			return err
		}

		t := time.NewTimer(backoff.Next(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
