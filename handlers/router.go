package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs each request through zap instead of gin's default writer.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// LimitBody caps request bodies at n bytes. Declared oversize bodies are
// refused up front; streamed ones fail on read with *http.MaxBytesError.
func LimitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("request body exceeds %d bytes", n)})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// NewRouter sets up the API routes on a fresh gin engine. A positive
// maxUploadBytes caps allocation request bodies.
func NewRouter(h *APIHandler, maxUploadBytes int64) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.logger))

	var limits []gin.HandlerFunc
	if maxUploadBytes > 0 {
		router.MaxMultipartMemory = maxUploadBytes
		limits = append(limits, LimitBody(maxUploadBytes))
	}

	api := router.Group("/api")
	{
		// Allocation routes
		api.POST("/allocations", append(limits, h.CreateAllocation)...)
		api.POST("/allocations/json", append(limits, h.CreateAllocationFromJSON)...)
		api.GET("/allocations", h.ListAllocations)
		api.GET("/allocations/:runId", h.GetAllocation)

		// Downloads
		api.GET("/allocations/:runId/assignments.csv", h.DownloadAssignmentsCSV)
		api.GET("/allocations/:runId/assignments.xlsx", h.DownloadAssignmentsExcel)
		api.GET("/allocations/:runId/friendships.csv", h.DownloadFriendshipsCSV)

		api.GET("/ping", PingHandler)
	}
	return router
}
