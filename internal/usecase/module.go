package usecase

import (
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/pkg/numbering"
	"github.com/polkiloo/coursemart/internal/queue"
)

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		NewAuthUseCase,
		NewOrderUseCase,
		NewSettlementUseCase,
		NewSubscriptionUseCase,
	),
	fx.Provide(
		func(p *queue.Producer) JobQueue { return p },
		func(g *numbering.Generator) InvoiceNumberer { return g },
	),
)
