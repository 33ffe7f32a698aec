package gateway

import (
	"go.uber.org/fx"
)

// Module exposes the payment gateway implementation to the fx graph.
var Module = fx.Provide(fx.Annotate(NewMockGateway, fx.As(new(Gateway))))
