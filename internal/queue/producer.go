package queue

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"github.com/polkiloo/coursemart/internal/adapter/awsclient"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

const kindAttribute = "kind"

// Producer publishes settlement jobs to SQS.
type Producer struct {
	sqs      awsclient.SQSAPI
	queueURL string
}

// NewProducer returns a Producer bound to a queue URL.
func NewProducer(client awsclient.SQSAPI, queueURL string) *Producer {
	return &Producer{sqs: client, queueURL: queueURL}
}

// Enqueue sends job to the settlement queue, assigning an id when missing.
func (p *Producer) Enqueue(ctx context.Context, job model.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	body, err := EncodeJob(job)
	if err != nil {
		return err
	}
	return send(ctx, p.sqs, p.queueURL, body, string(job.Kind))
}

func send(ctx context.Context, client awsclient.SQSAPI, queueURL, body, kind string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    sdkaws.String(queueURL),
		MessageBody: sdkaws.String(body),
	}
	if kind != "" {
		input.MessageAttributes = map[string]sqstypes.MessageAttributeValue{
			kindAttribute: {DataType: sdkaws.String("String"), StringValue: sdkaws.String(kind)},
		}
	}
	if _, err := client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
