package worker

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/adapter/metrics"
	"github.com/polkiloo/coursemart/internal/config"
	"github.com/polkiloo/coursemart/internal/queue"
)

// Module wires the settlement worker pool and the Lambda batch handler.
var Module = fx.Provide(newSettlementProcessor, newLambdaHandler)

type workerParams struct {
	fx.In

	Consumer *queue.Consumer
	Facade   SettlementFacade
	Metrics  metrics.Recorder
	Config   *config.Config
	Logger   *slog.Logger
}

func newSettlementProcessor(p workerParams) *SettlementProcessor {
	return NewSettlementProcessor(p.Consumer, p.Facade, p.Metrics, ProcessorOptions{
		PollInterval:  p.Config.OrderPollInterval,
		HandleTimeout: p.Config.QueueVisibilityTimeout,
		BatchSize:     p.Config.MaxJobsBatch,
		Workers:       p.Config.WorkerPoolSize,
	}, p.Logger)
}

func newLambdaHandler(p workerParams) *LambdaHandler {
	return NewLambdaHandler(p.Consumer, p.Facade, p.Metrics, p.Logger)
}
