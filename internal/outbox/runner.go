package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/NordCoder/Placement/internal/domain/outbox"
	"github.com/NordCoder/Placement/internal/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	mPicked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_picked_total", Help: "Messages picked into processing.",
	})
	mOk = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_processed_ok_total", Help: "Messages processed successfully.",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_processed_err_total", Help: "Handler errors.",
	})
	mTickDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "outbox_tick_duration_seconds", Help: "Tick duration.",
		Buckets: prometheus.DefBuckets,
	})
	mBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_last_batch_size", Help: "Size of last picked batch.",
	})
)

const (
	defaultWait      = time.Second
	defaultBatchSize = 100
)

// Runner relays committed outbox rows to their kind handler. Delivery is at least once:
// a row whose handler fails stays IN_PROGRESS and is picked again after inProgressTTL.
type Runner struct {
	log      *zap.Logger
	repo     outbox.Repository
	dispatch outbox.GlobalHandler

	workers       int
	batchSize     int
	waitTime      time.Duration
	inProgressTTL time.Duration

	wg sync.WaitGroup
}

func NewOutboxRunner(
	log *zap.Logger,
	repo outbox.Repository,
	dispatch outbox.GlobalHandler,
	workers int,
	batchSize int,
	waitTime time.Duration,
	inProgressTTL time.Duration,
) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	// time.NewTicker panics on a non-positive period.
	if waitTime <= 0 {
		waitTime = defaultWait
	}
	return &Runner{
		log: log, repo: repo, dispatch: dispatch,
		workers: workers, batchSize: batchSize, waitTime: waitTime, inProgressTTL: inProgressTTL,
	}
}

func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
}

// Wait blocks until every worker has observed ctx cancellation.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.log.With(zap.Int("worker", id))
	log.Info("outbox worker started", zap.Duration("wait", r.waitTime))

	ticker := time.NewTicker(r.waitTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stop")
			return
		case <-ticker.C:
			r.tick(ctx, log)
		}
	}
}

func (r *Runner) tick(ctx context.Context, log *zap.Logger) {
	t0 := time.Now()
	tr := otel.Tracer("outbox.runner")
	prop := otel.GetTextMapPropagator()

	ctxSpan, span := tr.Start(ctx, "outbox.tick")
	defer span.End()
	span.SetAttributes(
		attribute.Int("batch.limit", r.batchSize),
		attribute.String("in_progress_ttl", r.inProgressTTL.String()),
	)

	messages, err := r.repo.PickBatch(ctxSpan, r.batchSize, r.inProgressTTL)
	if err != nil {
		span.RecordError(err)
		mErr.Inc()
		obs.WithTrace(ctxSpan, log).Error("outbox pick error", zap.Error(err))
		return
	}
	mPicked.Add(float64(len(messages)))
	mBatchSize.Set(float64(len(messages)))

	okKeys := make([]string, 0, len(messages))
	for _, m := range messages {
		// Continue the trace of the request that enqueued the message, bounded by ctx.
		parent := prop.Extract(ctx, propagation.MapCarrier{
			"traceparent": m.Traceparent,
			"tracestate":  m.Tracestate,
			"baggage":     m.Baggage,
		})
		msgCtx, msgSpan := tr.Start(parent, "outbox.dispatch",
			trace.WithLinks(trace.LinkFromContext(ctxSpan)),
			trace.WithAttributes(
				attribute.String("outbox.key", m.IdempotencyKey),
				attribute.String("outbox.kind", m.Kind.String()),
			),
		)

		if herr := r.handle(msgCtx, log, m); herr != nil {
			msgSpan.RecordError(herr)
		} else {
			okKeys = append(okKeys, m.IdempotencyKey)
		}
		msgSpan.End()
	}

	if err := r.repo.MarkSuccess(ctxSpan, okKeys); err != nil {
		span.RecordError(err)
		mErr.Inc()
		obs.WithTrace(ctxSpan, log).Error("mark success error", zap.Error(err))
	}
	mTickDur.Observe(time.Since(t0).Seconds())
}

func (r *Runner) handle(ctx context.Context, log *zap.Logger, m outbox.Message) error {
	handler, err := r.dispatch(m.Kind)
	if err != nil {
		mErr.Inc()
		obs.WithTrace(ctx, log).Error("no handler for kind", zap.Int("kind", int(m.Kind)), zap.Error(err))
		return err
	}
	if err := handler(ctx, m.Data); err != nil {
		mErr.Inc()
		obs.WithTrace(ctx, log).Error("handler error",
			zap.String("kind", m.Kind.String()), zap.String("key", m.IdempotencyKey), zap.Error(err))
		return err
	}
	mOk.Inc()
	return nil
}
