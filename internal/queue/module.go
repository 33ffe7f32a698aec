package queue

import (
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/adapter/awsclient"
	"github.com/polkiloo/coursemart/internal/config"
)

// Module wires the settlement queue producer and consumer.
var Module = fx.Provide(newProducer, newConsumer)

type queueParams struct {
	fx.In

	SQS    awsclient.SQSAPI
	Config *config.Config
}

func newProducer(p queueParams) *Producer {
	return NewProducer(p.SQS, p.Config.SettlementQueueURL)
}

func newConsumer(p queueParams) *Consumer {
	return NewConsumer(p.SQS, p.Config.SettlementQueueURL, p.Config.SettlementDLQURL, ConsumerOptions{
		BatchSize:         p.Config.MaxJobsBatch,
		WaitTime:          p.Config.QueueWaitTime,
		VisibilityTimeout: p.Config.QueueVisibilityTimeout,
		MaxAttempts:       p.Config.QueueMaxAttempts,
	})
}
