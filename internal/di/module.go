package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/adapter/awsclient"
	"github.com/polkiloo/coursemart/internal/adapter/gateway"
	"github.com/polkiloo/coursemart/internal/adapter/ledger"
	"github.com/polkiloo/coursemart/internal/adapter/metrics"
	"github.com/polkiloo/coursemart/internal/adapter/objectstore"
	"github.com/polkiloo/coursemart/internal/adapter/pdf"
	"github.com/polkiloo/coursemart/internal/app"
	"github.com/polkiloo/coursemart/internal/cache"
	"github.com/polkiloo/coursemart/internal/config"
	"github.com/polkiloo/coursemart/internal/logger"
	"github.com/polkiloo/coursemart/internal/pkg/auth"
	"github.com/polkiloo/coursemart/internal/pkg/lock"
	"github.com/polkiloo/coursemart/internal/pkg/numbering"
	"github.com/polkiloo/coursemart/internal/queue"
	"github.com/polkiloo/coursemart/internal/scheduler"
	"github.com/polkiloo/coursemart/internal/server/http/router"
	"github.com/polkiloo/coursemart/internal/storage/postgres"
	"github.com/polkiloo/coursemart/internal/usecase"
	"github.com/polkiloo/coursemart/internal/worker"
)

// Core lists every provider without lifecycle hooks that start background work.
func Core(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		awsclient.Module,
		cache.Module,
		lock.Module,
		numbering.Module,
		auth.Module,
		postgres.Module,
		queue.Module,
		ledger.Module,
		metrics.Module,
		objectstore.Module,
		pdf.Module,
		gateway.Module,
		usecase.Module,
		router.Module,
		app.Facade,
		worker.Module,
		scheduler.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

// Module composes the long-running service: HTTP server, settlement worker and sweeper.
func Module(opts ...fx.Option) fx.Option {
	return Core(append([]fx.Option{app.Lifecycle}, opts...)...)
}
