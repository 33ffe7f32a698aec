package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/di"
	"github.com/polkiloo/coursemart/internal/worker"
)

func main() {
	ctx := context.Background()

	var handler *worker.LambdaHandler
	app := fx.New(
		fx.NopLogger,
		fx.Provide(func() context.Context { return ctx }),
		di.Core(),
		fx.Populate(&handler),
	)
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start settlement consumer: %v\n", err)
		os.Exit(1)
	}

	lambda.Start(handler.Handle)
}
