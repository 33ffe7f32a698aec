package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/server/http/handlers"
	"github.com/polkiloo/coursemart/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.MarketplaceFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(middleware.LimitBody(middleware.DefaultMaxBodyBytes))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	v := handlers.NewValidator()
	authHandler := handlers.NewAuthHandler(facade, v)
	orderHandler := handlers.NewOrderHandler(facade, v)
	adminHandler := handlers.NewAdminHandler(facade, v)
	subscriptionHandler := handlers.NewSubscriptionHandler(facade, v)

	api := engine.Group("/api")
	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.POST("/orders", orderHandler.Create)
	authed.GET("/orders", orderHandler.List)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.POST("/orders/:id/proof", orderHandler.UploadProof)

	authed.POST("/subscriptions", subscriptionHandler.Subscribe)
	authed.GET("/subscriptions/me", subscriptionHandler.Mine)
	authed.GET("/subscriptions/:id", subscriptionHandler.Get)
	authed.POST("/subscriptions/:id/cancel", subscriptionHandler.Cancel)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/orders", adminHandler.List)
	admin.POST("/orders/:id/approve", adminHandler.Approve)
	admin.POST("/orders/:id/reject", adminHandler.Reject)
	admin.POST("/orders/:id/resettle", adminHandler.Resettle)

	return engine
}
