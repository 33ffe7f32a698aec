package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/config"
	"github.com/polkiloo/coursemart/internal/scheduler"
	"github.com/polkiloo/coursemart/internal/server/http/handlers"
	"github.com/polkiloo/coursemart/internal/worker"
)

// Facade wires the facade and the HTTP server without background runners.
var Facade = fx.Provide(
	NewMarketplaceFacade,
	func(f *MarketplaceFacade) handlers.MarketplaceFacade { return f },
	func(f *MarketplaceFacade) worker.SettlementFacade { return f },
	func(f *MarketplaceFacade) scheduler.SubscriptionFacade { return f },
	newHTTPServer,
)

// Lifecycle starts the HTTP server, the settlement worker and the sweeper with the application.
var Lifecycle = fx.Invoke(registerLifecycle)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(Facade, Lifecycle)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

// Runner is a background component started and stopped with the application.
type Runner interface {
	Start(ctx context.Context)
	Stop()
}

// Scheduler runs periodic jobs.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.SettlementProcessor
	Sweeper    *scheduler.Sweeper
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	register(p.Lifecycle, p.Shutdowner, p.Logger, p.Server, p.Worker, p.Sweeper, p.Config)
}

func register(lc fx.Lifecycle, shutdowner fx.Shutdowner, logger *slog.Logger, server *http.Server, runner Runner, sched Scheduler, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting coursemart", slog.String("addr", server.Addr))
			if err := sched.Start(ctx); err != nil {
				return err
			}
			runner.Start(ctx)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, cfg.ShutdownTimeout)
			}
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			runner.Stop()
			if err := sched.Stop(shutdownCtx); err != nil {
				logger.Warn("subscription sweep still running at shutdown", slog.String("error", err.Error()))
			}
			logger.Info("coursemart stopped")
			return nil
		},
	})
}
