package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/polkiloo/coursemart/internal/adapter/metrics"
	"github.com/polkiloo/coursemart/internal/queue"
)

// BatchSettler settles deliveries handed over by the Lambda SQS event source. Deleting
// successful messages is left to the event source mapping.
type BatchSettler interface {
	Decide(d queue.Delivery, handleErr error) queue.Disposition
	Retry(ctx context.Context, d queue.Delivery) error
	Forward(ctx context.Context, d queue.Delivery, reason string) (bool, error)
}

// LambdaHandler runs settlement jobs delivered as an SQS batch and reports partial failures.
type LambdaHandler struct {
	settler BatchSettler
	facade  SettlementFacade
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewLambdaHandler constructs LambdaHandler.
func NewLambdaHandler(settler BatchSettler, facade SettlementFacade, recorder metrics.Recorder, logger *slog.Logger) *LambdaHandler {
	return &LambdaHandler{settler: settler, facade: facade, metrics: recorder, logger: logger}
}

// Handle processes every record in the batch. Records listed in the response stay on the queue.
func (h *LambdaHandler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, record := range event.Records {
		if !h.handleRecord(ctx, record) {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return resp, nil
}

// handleRecord reports whether the record may be removed from the queue.
func (h *LambdaHandler) handleRecord(ctx context.Context, record events.SQSMessage) bool {
	start := time.Now()
	d := queue.NewDelivery(record.MessageId, record.ReceiptHandle, record.Body, record.Attributes)

	var handleErr error
	if d.Err == nil {
		handleErr = h.facade.HandleJob(ctx, d.Job)
	}
	disposition := h.settler.Decide(d, handleErr)
	logDisposition(h.logger, d, disposition, handleErr)

	done := true
	switch disposition {
	case queue.Retried:
		if err := h.settler.Retry(ctx, d); err != nil {
			h.logger.Warn("delay message failed", slog.String("message_id", d.MessageID), slog.String("error", err.Error()))
		}
		done = false
	case queue.DeadLettered:
		reason := "unknown"
		if d.Err != nil {
			reason = d.Err.Error()
		} else if handleErr != nil {
			reason = handleErr.Error()
		}
		forwarded, err := h.settler.Forward(ctx, d, reason)
		if err != nil {
			h.logger.Error("forward to dead-letter queue failed", slog.String("message_id", d.MessageID), slog.String("error", err.Error()))
		}
		done = forwarded
	}

	if err := h.metrics.RecordJob(ctx, jobKind(d), string(disposition), time.Since(start)); err != nil {
		h.logger.Warn("record job metric failed", slog.String("error", err.Error()))
	}
	return done
}
