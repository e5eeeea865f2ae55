package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/aurahq/aura-backend/internal/http/handlers"
	httpMW "github.com/aurahq/aura-backend/internal/http/middleware"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	ScoreHandler *httpH.ScoreHandler
	EventHandler *httpH.EventHandler
	JobHandler   *httpH.JobHandler
	AdminHandler *httpH.AdminHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.ScoreHandler != nil {
			api.GET("/users/:id/score/live", cfg.ScoreHandler.GetLive)
			api.GET("/users/:id/score/daily", cfg.ScoreHandler.GetDaily)
			api.GET("/users/:id/score/history", cfg.ScoreHandler.ListDaily)
		}

		if cfg.EventHandler != nil {
			api.GET("/users/:id/events", cfg.EventHandler.List)
			api.POST("/users/:id/events", cfg.EventHandler.ReportManual)
		}

		if cfg.JobHandler != nil {
			api.GET("/jobs/:id", cfg.JobHandler.Get)
			api.GET("/users/:id/jobs", cfg.JobHandler.ListForUser)
			api.POST("/users/:id/jobs", cfg.JobHandler.EnqueueManual)
		}

		if cfg.AdminHandler != nil {
			api.POST("/admin/dispatch/tick", cfg.AdminHandler.RunTick)
			api.POST("/admin/worker/batch", cfg.AdminHandler.RunBatch)
		}
	}

	return r
}
