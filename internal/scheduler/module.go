package scheduler

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/config"
)

// Module provides the subscription sweeper.
var Module = fx.Provide(newSweeper)

type sweeperParams struct {
	fx.In

	Facade SubscriptionFacade
	Config *config.Config
	Logger *slog.Logger
}

func newSweeper(p sweeperParams) (*Sweeper, error) {
	return NewSweeper(p.Facade, p.Config.SubscriptionSweepSpec, p.Logger)
}
