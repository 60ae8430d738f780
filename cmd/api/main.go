// main.go - The entry point and router setup.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mstr-Creta/Document-Extractor/configs"
	"github.com/Mstr-Creta/Document-Extractor/internal/api"
	"github.com/Mstr-Creta/Document-Extractor/internal/ocr"
	"github.com/Mstr-Creta/Document-Extractor/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	// Step 0: Load configuration from environment variables
	configs.LoadConfig()
	if err := configs.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if ginMode := os.Getenv("GIN_MODE"); ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Step 1: Create the UPLOAD_DIR folder if it doesn't exist
	if err := os.MkdirAll(configs.UPLOAD_DIR, 0755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	// Step 2: OCR provider, created once and shared by all requests
	provider, err := ocr.NewProvider(context.Background(), ocr.ConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to create OCR provider: %v", err)
	}
	defer ocr.Close(provider)

	// Step 3: Record store
	store, err := storage.NewRecordStore(context.Background())
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer store.Close(context.Background())

	// Step 4: Router
	handler := api.NewHandler(provider, store, configs.UPLOAD_DIR, int64(configs.MAX_UPLOAD_MB)<<20)
	router := api.NewRouter(handler, configs.ALLOWED_ORIGINS)

	srv := &http.Server{
		Addr:           ":" + configs.PORT,
		Handler:        router,
		ReadTimeout:    30 * time.Second, // uploads arrive in the request body
		WriteTimeout:   3 * time.Minute,  // Allow up to 3 minutes for OCR with retries
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on :%s (OCR provider: %s)", configs.PORT, provider.Name())
		log.Println("API Endpoints:")
		log.Println("  POST   /api/v1/documents")
		log.Println("  POST   /api/v1/parse")
		log.Println("  GET    /api/v1/sessions/:session/records")
		log.Println("  GET    /api/v1/sessions/:session/records/export")
		log.Println("  DELETE /api/v1/sessions/:session/records")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
