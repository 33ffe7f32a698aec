package ledger

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/adapter/awsclient"
	"github.com/polkiloo/coursemart/internal/config"
)

// Module provides the side-effect ledger.
var Module = fx.Provide(newLedger)

type ledgerParams struct {
	fx.In

	DynamoDB awsclient.DynamoDBAPI
	Config   *config.Config
	Logger   *slog.Logger
}

func newLedger(p ledgerParams) Ledger {
	if p.Config.LedgerTable == "" {
		p.Logger.Warn("ledger table not configured, deduplication is process-local")
		return NewMemoryLedger()
	}
	return NewDynamoLedger(p.DynamoDB, p.Config.LedgerTable, DefaultRetention)
}
