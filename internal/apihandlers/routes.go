package apihandlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dubber/internal/metrics"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *APIHandler, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), instrument(m))
	RegisterRoutes(router, h)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	return router
}

// RegisterRoutes mounts the job API under /api/v1 plus /health.
func RegisterRoutes(router gin.IRouter, h *APIHandler) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/upload", h.UploadHandler)

		jobGroup := v1.Group("/job")
		{
			jobGroup.GET("/:id", h.GetJobHandler)
			jobGroup.PATCH("/:id", h.UpdateJobHandler)
			jobGroup.GET("/:id/download", h.DownloadHandler)
		}

		v1.GET("/jobs", h.ListJobsHandler)
	}

	router.GET("/health", h.HealthHandler)
}

func instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
