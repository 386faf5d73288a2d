package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	apiHandler "github.com/fastygo/dashboard/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Guard   *apiHandler.GuardHandler
	Push    *apiHandler.PushHandler
	Windows *apiHandler.WindowHandler
	Health  *apiHandler.HealthHandler
}

type Options struct {
	EnableMetrics bool
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if opts.EnableMetrics {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	}

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/logout", handlers.Auth.Logout)
	r.GET("/api/v1/auth/status", handlers.Auth.Status)

	// Guards
	r.POST("/api/v1/guards", handlers.Guard.Mount)
	r.GET("/api/v1/guards/{id}", handlers.Guard.View)
	r.POST("/api/v1/guards/{id}/navigate", handlers.Guard.Navigate)
	r.DELETE("/api/v1/guards/{id}", handlers.Guard.Unmount)

	// Protected routes
	r.POST("/api/v1/push", authMiddleware(handlers.Push.Push))
	r.GET("/api/v1/notifications", authMiddleware(handlers.Push.List))
	r.POST("/api/v1/notifications/{tag}/click", authMiddleware(handlers.Push.Click))

	r.POST("/api/v1/windows", authMiddleware(handlers.Windows.Register))
	r.GET("/api/v1/windows", authMiddleware(handlers.Windows.List))
	r.PUT("/api/v1/windows/{id}/heartbeat", authMiddleware(handlers.Windows.Heartbeat))
	r.DELETE("/api/v1/windows/{id}", authMiddleware(handlers.Windows.Unregister))

	return r
}
