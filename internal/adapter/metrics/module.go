package metrics

import (
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/adapter/awsclient"
	"github.com/polkiloo/coursemart/internal/config"
)

// Module provides the job metrics recorder.
var Module = fx.Provide(newRecorder)

type recorderParams struct {
	fx.In

	CloudWatch awsclient.CloudWatchAPI
	Config     *config.Config
}

func newRecorder(p recorderParams) Recorder {
	if p.Config.MetricsNamespace == "" {
		return NopRecorder{}
	}
	return NewCloudWatchRecorder(p.CloudWatch, p.Config.MetricsNamespace)
}
