package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/polkiloo/coursemart/internal/adapter/awsclient"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

const (
	receiveCountAttribute = string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)
	baseRetryDelay        = 10 * time.Second
	maxRetryDelay         = 15 * time.Minute
)

// Disposition is the outcome of settling one delivery.
type Disposition string

const (
	Processed    Disposition = "processed"
	Retried      Disposition = "retried"
	DeadLettered Disposition = "dead_lettered"
	Dropped      Disposition = "dropped"
)

// Delivery is one received message. Err is set when the body could not be decoded.
type Delivery struct {
	Job           model.Job
	MessageID     string
	ReceiptHandle string
	Body          string
	Attempt       int
	Err           error
}

// NewDelivery decodes a raw message body with its delivery metadata.
func NewDelivery(messageID, receiptHandle, body string, attributes map[string]string) Delivery {
	d := Delivery{
		MessageID:     messageID,
		ReceiptHandle: receiptHandle,
		Body:          body,
		Attempt:       receiveCount(attributes),
	}
	d.Job, d.Err = DecodeJob([]byte(body))
	return d
}

// ConsumerOptions tune polling and redelivery.
type ConsumerOptions struct {
	BatchSize         int
	WaitTime          time.Duration
	VisibilityTimeout time.Duration
	MaxAttempts       int
}

// Consumer receives settlement jobs and settles them after handling.
type Consumer struct {
	sqs      awsclient.SQSAPI
	queueURL string
	dlqURL   string
	opts     ConsumerOptions
}

// NewConsumer builds a consumer. An empty dlqURL leaves dead-lettering to the queue's redrive policy.
func NewConsumer(client awsclient.SQSAPI, queueURL, dlqURL string, opts ConsumerOptions) *Consumer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &Consumer{sqs: client, queueURL: queueURL, dlqURL: dlqURL, opts: opts}
}

// Receive long-polls for up to BatchSize deliveries.
func (c *Consumer) Receive(ctx context.Context) ([]Delivery, error) {
	out, err := c.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    sdkaws.String(c.queueURL),
		MaxNumberOfMessages:         int32(c.opts.BatchSize),
		WaitTimeSeconds:             int32(c.opts.WaitTime / time.Second),
		VisibilityTimeout:           int32(c.opts.VisibilityTimeout / time.Second),
		MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
	})
	if err != nil {
		return nil, fmt.Errorf("receive messages: %w", err)
	}

	deliveries := make([]Delivery, 0, len(out.Messages))
	for _, msg := range out.Messages {
		deliveries = append(deliveries, NewDelivery(
			sdkaws.ToString(msg.MessageId),
			sdkaws.ToString(msg.ReceiptHandle),
			sdkaws.ToString(msg.Body),
			msg.Attributes,
		))
	}
	return deliveries, nil
}

// Decide maps a handler result to a disposition without touching the queue.
func (c *Consumer) Decide(d Delivery, handleErr error) Disposition {
	switch {
	case d.Err != nil:
		return DeadLettered
	case handleErr == nil:
		return Processed
	case IsPermanent(handleErr):
		return Dropped
	case d.Attempt >= c.opts.MaxAttempts:
		return DeadLettered
	default:
		return Retried
	}
}

// Settle acknowledges, delays or dead-letters d according to handleErr.
func (c *Consumer) Settle(ctx context.Context, d Delivery, handleErr error) (Disposition, error) {
	disposition := c.Decide(d, handleErr)
	var err error
	switch disposition {
	case Processed, Dropped:
		err = c.Ack(ctx, d)
	case Retried:
		err = c.Retry(ctx, d)
	case DeadLettered:
		err = c.DeadLetter(ctx, d, deadLetterReason(d, handleErr))
	}
	return disposition, err
}

// Ack deletes the message from the queue.
func (c *Consumer) Ack(ctx context.Context, d Delivery) error {
	_, err := c.sqs.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      sdkaws.String(c.queueURL),
		ReceiptHandle: sdkaws.String(d.ReceiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete message %s: %w", d.MessageID, err)
	}
	return nil
}

// Retry makes the message visible again after an exponential backoff.
func (c *Consumer) Retry(ctx context.Context, d Delivery) error {
	_, err := c.sqs.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          sdkaws.String(c.queueURL),
		ReceiptHandle:     sdkaws.String(d.ReceiptHandle),
		VisibilityTimeout: int32(RetryDelay(d.Attempt) / time.Second),
	})
	if err != nil {
		return fmt.Errorf("delay message %s: %w", d.MessageID, err)
	}
	return nil
}

// DeadLetter copies the message to the dead-letter queue and removes it from the main queue.
func (c *Consumer) DeadLetter(ctx context.Context, d Delivery, reason string) error {
	forwarded, err := c.Forward(ctx, d, reason)
	if err != nil {
		return err
	}
	if !forwarded {
		return nil
	}
	return c.Ack(ctx, d)
}

// Forward copies the message body to the dead-letter queue. It reports false when no
// dead-letter queue is configured.
func (c *Consumer) Forward(ctx context.Context, d Delivery, reason string) (bool, error) {
	if c.dlqURL == "" {
		return false, nil
	}
	input := &sqs.SendMessageInput{
		QueueUrl:    sdkaws.String(c.dlqURL),
		MessageBody: sdkaws.String(d.Body),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"reason":        {DataType: sdkaws.String("String"), StringValue: sdkaws.String(reason)},
			"attempt":       {DataType: sdkaws.String("Number"), StringValue: sdkaws.String(strconv.Itoa(d.Attempt))},
			kindAttribute:   {DataType: sdkaws.String("String"), StringValue: sdkaws.String(kindOf(d))},
			"source_msg_id": {DataType: sdkaws.String("String"), StringValue: sdkaws.String(d.MessageID)},
		},
	}
	if _, err := c.sqs.SendMessage(ctx, input); err != nil {
		return false, fmt.Errorf("forward message %s to dead-letter queue: %w", d.MessageID, err)
	}
	return true, nil
}

// RetryDelay returns the backoff applied before the next attempt.
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := baseRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

func receiveCount(attributes map[string]string) int {
	n, err := strconv.Atoi(attributes[receiveCountAttribute])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func deadLetterReason(d Delivery, handleErr error) string {
	if d.Err != nil {
		return d.Err.Error()
	}
	if handleErr != nil {
		return handleErr.Error()
	}
	return "unknown"
}

func kindOf(d Delivery) string {
	if d.Job.Kind != "" {
		return string(d.Job.Kind)
	}
	return "unknown"
}

// IsMalformed reports whether d carries an undecodable body.
func (d Delivery) IsMalformed() bool {
	return errors.Is(d.Err, ErrMalformedJob)
}
