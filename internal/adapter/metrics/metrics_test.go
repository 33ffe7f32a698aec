package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/polkiloo/coursemart/internal/config"
)

type cloudWatchStub struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (c *cloudWatchStub) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	c.inputs = append(c.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, c.err
}

func TestRecordJob(t *testing.T) {
	stub := &cloudWatchStub{}
	r := NewCloudWatchRecorder(stub, "Coursemart")
	if err := r.RecordJob(context.Background(), "payment-approved", "processed", 1500*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := stub.inputs[0]
	if sdkaws.ToString(in.Namespace) != "Coursemart" || len(in.MetricData) != 2 {
		t.Fatalf("unexpected input %+v", in)
	}
	count := in.MetricData[0]
	if sdkaws.ToString(count.MetricName) != metricJobs || sdkaws.ToFloat64(count.Value) != 1 || count.Unit != types.StandardUnitCount {
		t.Fatalf("unexpected count datum %+v", count)
	}
	if sdkaws.ToFloat64(in.MetricData[1].Value) != 1500 {
		t.Fatalf("unexpected duration %v", sdkaws.ToFloat64(in.MetricData[1].Value))
	}
	if sdkaws.ToString(count.Dimensions[1].Value) != "processed" {
		t.Fatal("outcome dimension missing")
	}
}

func TestRecordJobError(t *testing.T) {
	r := NewCloudWatchRecorder(&cloudWatchStub{err: errors.New("denied")}, "ns")
	if err := r.RecordJob(context.Background(), "k", "o", 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewRecorder(t *testing.T) {
	if _, ok := newRecorder(recorderParams{Config: &config.Config{}}).(NopRecorder); !ok {
		t.Fatal("expected nop recorder without namespace")
	}
	if _, ok := newRecorder(recorderParams{CloudWatch: &cloudWatchStub{}, Config: &config.Config{MetricsNamespace: "ns"}}).(*CloudWatchRecorder); !ok {
		t.Fatal("expected cloudwatch recorder")
	}
}
