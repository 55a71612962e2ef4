package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.HerdHandler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	farm := r.Group("/farms/:farmID")
	{
		farm.GET("/milestones", handler.Milestones)
		farm.GET("/calendar", handler.Calendar)
		farm.GET("/cows/:cowID/reproduction", handler.Reproduction)

		farm.POST("/confirmations", handler.CreateConfirmation)
		farm.POST("/confirmations/:id/undo", handler.UndoConfirmation)

		farm.POST("/cows/:cowID/inseminations", handler.RecordInsemination)
		farm.POST("/cows/:cowID/calvings", handler.RecordCalving)
		farm.POST("/breeding-events/:eventID/confirm", handler.ConfirmPregnancy)
		farm.POST("/breeding-events/:eventID/unconfirm", handler.UnconfirmPregnancy)
		farm.POST("/breeding-events/:eventID/fail", handler.MarkFailed)

		farm.POST("/graduations", handler.Graduate)
		farm.POST("/digest", handler.Digest)
		farm.POST("/export", handler.Export)

		farm.GET("/settings", handler.Settings)
		farm.PUT("/settings", handler.UpdateSettings)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("actor", c.GetHeader(handlers.ActorHeader)))
	}
}
