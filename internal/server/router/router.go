package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/plotsales/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.SalesHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	// Root routes keep the spreadsheet web-app contract: GET reads, POST appends.
	r.GET("/", handler.ListRecords)
	r.POST("/", handler.SubmitRecord)

	api := r.Group("/api")
	api.POST("/records", handler.SubmitRecord)
	api.GET("/records", handler.ListRecords)

	admin := api.Group("", handler.RequireAdmin())
	admin.GET("/dashboard", handler.Dashboard)
	admin.GET("/schedule", handler.Schedule)
	admin.GET("/export.csv", handler.ExportCSV)
	admin.POST("/analysis", handler.Analysis)
	admin.GET("/snapshots/latest", handler.LatestSnapshot)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

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
			zap.String("client_ip", c.ClientIP()))
	}
}
