package awsclient

import (
	"context"

	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/config"
)

// Module exposes AWS service clients to the graph.
var Module = fx.Options(
	fx.Provide(newClients),
	fx.Provide(
		func(c *Clients) SQSAPI { return c.SQS },
		func(c *Clients) DynamoDBAPI { return c.DynamoDB },
		func(c *Clients) CloudWatchAPI { return c.CloudWatch },
		func(c *Clients) S3API { return c.S3 },
	),
)

type clientParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
}

func newClients(p clientParams) (*Clients, error) {
	cfg, err := LoadAWSConfig(p.Ctx, p.Config.AWSRegion, p.Config.AWSEndpointURL)
	if err != nil {
		return nil, err
	}
	return NewClients(cfg), nil
}
