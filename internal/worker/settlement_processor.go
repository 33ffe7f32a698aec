package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/coursemart/internal/adapter/metrics"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/queue"
)

// SettlementFacade exposes the subset of application functionality required by the worker.
type SettlementFacade interface {
	HandleJob(ctx context.Context, job model.Job) error
}

// JobSource receives deliveries and settles them once handled.
type JobSource interface {
	Receive(ctx context.Context) ([]queue.Delivery, error)
	Settle(ctx context.Context, d queue.Delivery, handleErr error) (queue.Disposition, error)
}

// SettlementProcessor polls the settlement queue and runs jobs on a fixed pool of workers.
type SettlementProcessor struct {
	source        JobSource
	facade        SettlementFacade
	metrics       metrics.Recorder
	pollInterval  time.Duration
	handleTimeout time.Duration
	workers       int
	logger        *slog.Logger

	jobs   chan queue.Delivery
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// ProcessorOptions tune the worker pool.
type ProcessorOptions struct {
	PollInterval  time.Duration
	HandleTimeout time.Duration
	BatchSize     int
	Workers       int
}

// NewSettlementProcessor constructs the settlement worker pool.
func NewSettlementProcessor(source JobSource, facade SettlementFacade, recorder metrics.Recorder, opts ProcessorOptions, logger *slog.Logger) *SettlementProcessor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.HandleTimeout <= 0 {
		opts.HandleTimeout = time.Minute
	}
	return &SettlementProcessor{
		source:        source,
		facade:        facade,
		metrics:       recorder,
		pollInterval:  opts.PollInterval,
		handleTimeout: opts.HandleTimeout,
		workers:       opts.Workers,
		logger:        logger,
		jobs:          make(chan queue.Delivery, opts.BatchSize*opts.Workers),
	}
}

// Start launches background processing.
func (p *SettlementProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for in-flight jobs to finish.
func (p *SettlementProcessor) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *SettlementProcessor) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *SettlementProcessor) fetchAndDispatch(ctx context.Context) {
	deliveries, err := p.source.Receive(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("receive settlement jobs failed", slog.String("error", err.Error()))
		}
		return
	}
	for _, d := range deliveries {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- d:
		}
	}
}

func (p *SettlementProcessor) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handle(ctx, d)
		}
	}
}

// handle runs one delivery to completion even if the pool is stopping, so the
// message is settled instead of waiting out its visibility timeout.
func (p *SettlementProcessor) handle(ctx context.Context, d queue.Delivery) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.handleTimeout)
	defer cancel()

	start := time.Now()
	var handleErr error
	if d.Err == nil {
		handleErr = p.facade.HandleJob(hctx, d.Job)
	}

	disposition, err := p.source.Settle(hctx, d, handleErr)
	logDisposition(p.logger, d, disposition, handleErr)
	if err != nil {
		p.logger.Error("settle delivery failed",
			slog.String("message_id", d.MessageID),
			slog.String("disposition", string(disposition)),
			slog.String("error", err.Error()),
		)
	}

	if err := p.metrics.RecordJob(hctx, jobKind(d), string(disposition), time.Since(start)); err != nil {
		p.logger.Warn("record job metric failed", slog.String("error", err.Error()))
	}
}

func logDisposition(logger *slog.Logger, d queue.Delivery, disposition queue.Disposition, handleErr error) {
	attrs := []any{
		slog.String("job_id", d.Job.ID),
		slog.String("kind", jobKind(d)),
		slog.String("message_id", d.MessageID),
		slog.Int("attempt", d.Attempt),
	}
	if d.Err != nil {
		attrs = append(attrs, slog.String("error", d.Err.Error()))
	} else if handleErr != nil {
		attrs = append(attrs, slog.String("error", handleErr.Error()))
	}

	switch disposition {
	case queue.Processed:
		logger.Debug("settlement job processed", attrs...)
	case queue.Retried:
		logger.Warn("settlement job will be retried", attrs...)
	case queue.Dropped:
		logger.Warn("settlement job dropped", attrs...)
	case queue.DeadLettered:
		logger.Error("settlement job dead-lettered", attrs...)
	}
}

func jobKind(d queue.Delivery) string {
	if d.Job.Kind == "" {
		return "unknown"
	}
	return string(d.Job.Kind)
}
