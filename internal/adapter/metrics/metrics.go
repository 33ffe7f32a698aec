package metrics

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/polkiloo/coursemart/internal/adapter/awsclient"
)

const (
	metricJobs     = "SettlementJobs"
	metricDuration = "SettlementJobDuration"
)

// Recorder publishes settlement job outcomes.
type Recorder interface {
	RecordJob(ctx context.Context, kind, outcome string, elapsed time.Duration) error
}

// CloudWatchRecorder emits one count and one duration datum per job.
type CloudWatchRecorder struct {
	client    awsclient.CloudWatchAPI
	namespace string
	now       func() time.Time
}

// NewCloudWatchRecorder returns a recorder writing under namespace.
func NewCloudWatchRecorder(client awsclient.CloudWatchAPI, namespace string) *CloudWatchRecorder {
	return &CloudWatchRecorder{client: client, namespace: namespace, now: time.Now}
}

// RecordJob publishes the outcome of a single job.
func (r *CloudWatchRecorder) RecordJob(ctx context.Context, kind, outcome string, elapsed time.Duration) error {
	ts := r.now()
	dims := []types.Dimension{
		{Name: sdkaws.String("Kind"), Value: sdkaws.String(kind)},
		{Name: sdkaws.String("Outcome"), Value: sdkaws.String(outcome)},
	}
	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(r.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: sdkaws.String(metricJobs),
				Dimensions: dims,
				Unit:       types.StandardUnitCount,
				Value:      sdkaws.Float64(1),
				Timestamp:  sdkaws.Time(ts),
			},
			{
				MetricName: sdkaws.String(metricDuration),
				Dimensions: dims,
				Unit:       types.StandardUnitMilliseconds,
				Value:      sdkaws.Float64(float64(elapsed.Milliseconds())),
				Timestamp:  sdkaws.Time(ts),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

// NopRecorder discards metrics.
type NopRecorder struct{}

// RecordJob does nothing.
func (NopRecorder) RecordJob(context.Context, string, string, time.Duration) error { return nil }
