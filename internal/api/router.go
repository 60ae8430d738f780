// router.go - Route table and middleware

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// CORSMiddleware allows browser clients from allowedOrigins
func CORSMiddleware(allowedOrigins string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+SessionHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// NewRouter builds the gin engine with every endpoint registered
func NewRouter(h *Handler, allowedOrigins string) *gin.Engine {
	router := gin.Default()
	router.Use(CORSMiddleware(allowedOrigins))

	// Root endpoint for SSL verification
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "document-extractor",
			"version": Version,
		})
	})

	v1 := router.Group("/api/v1")
	v1.POST("/documents", h.UploadDocumentHandler)
	v1.POST("/parse", h.ParseTextHandler)

	sessions := v1.Group("/sessions/:session")
	sessions.GET("/records", h.ListRecordsHandler)
	sessions.GET("/records/export", h.ExportRecordsHandler)
	sessions.DELETE("/records", h.ClearRecordsHandler)

	return router
}
