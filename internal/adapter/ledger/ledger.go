package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/polkiloo/coursemart/internal/adapter/awsclient"
)

// DefaultRetention keeps side-effect claims long enough to cover every redelivery.
const DefaultRetention = 14 * 24 * time.Hour

// Ledger records side effects that must happen at most once per job target.
type Ledger interface {
	// Claim reports true when the caller is the first to claim key.
	Claim(ctx context.Context, key string) (bool, error)
	// Release drops a claim so a failed side effect can be attempted again.
	Release(ctx context.Context, key string) error
}

type record struct {
	Key       string `dynamodbav:"pk"`
	ClaimedAt string `dynamodbav:"claimed_at"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// DynamoLedger stores claims in a DynamoDB table keyed by pk.
type DynamoLedger struct {
	client    awsclient.DynamoDBAPI
	table     string
	retention time.Duration
	now       func() time.Time
}

// NewDynamoLedger returns a ledger writing to table.
func NewDynamoLedger(client awsclient.DynamoDBAPI, table string, retention time.Duration) *DynamoLedger {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &DynamoLedger{client: client, table: table, retention: retention, now: time.Now}
}

// Claim writes the key only if it does not exist yet.
func (l *DynamoLedger) Claim(ctx context.Context, key string) (bool, error) {
	now := l.now().UTC()
	item, err := attributevalue.MarshalMap(record{
		Key:       key,
		ClaimedAt: now.Format(time.RFC3339),
		ExpiresAt: now.Add(l.retention).Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("marshal ledger record: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           sdkaws.String(l.table),
		Item:                item,
		ConditionExpression: sdkaws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return true, nil
}

// Release deletes the claim.
func (l *DynamoLedger) Release(ctx context.Context, key string) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: sdkaws.String(l.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// MemoryLedger keeps claims in process memory. It is used when no table is configured.
type MemoryLedger struct {
	mu     sync.Mutex
	claims map[string]struct{}
}

// NewMemoryLedger returns an empty in-process ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claims: make(map[string]struct{})}
}

// Claim reports true for the first caller of key.
func (l *MemoryLedger) Claim(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.claims[key]; ok {
		return false, nil
	}
	l.claims[key] = struct{}{}
	return true, nil
}

// Release forgets key.
func (l *MemoryLedger) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.claims, key)
	l.mu.Unlock()
	return nil
}
