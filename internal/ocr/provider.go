// provider.go - OCR Provider interface and factory

package ocr

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Mstr-Creta/Document-Extractor/configs"
	"github.com/Mstr-Creta/Document-Extractor/internal/common"
	"github.com/Mstr-Creta/Document-Extractor/internal/processor"
	"github.com/Mstr-Creta/Document-Extractor/internal/ratelimit"
)

// Provider turns a document image into recognized text.
// Implementations are constructed once per process and shared across requests.
type Provider interface {
	// ExtractText reads the image at imagePath and returns its text, lines
	// separated by "\n". Empty text is a successful result, not an error.
	ExtractText(ctx context.Context, imagePath string, reqCtx *common.RequestContext) (*Result, *common.TokenUsage, error)

	// Name returns the name of the provider (e.g., "gemini", "mistral")
	Name() string
}

// Metadata contains information about the OCR call
type Metadata struct {
	ModelName        string `json:"model_name"`
	PromptTokens     int32  `json:"prompt_tokens"`
	CandidatesTokens int32  `json:"candidates_tokens"`
	TotalTokens      int32  `json:"total_tokens"`
	Pages            int    `json:"pages,omitempty"`
}

// Result is the raw text recognized in one image
type Result struct {
	Status       string   `json:"status"`
	Text         string   `json:"raw_document_text"`
	TextLength   int      `json:"text_length"`
	IsPartial    bool     `json:"is_partial"`        // true if response was truncated due to token limit
	FallbackUsed bool     `json:"fallback_used"`     // true if plain text fallback was used instead of JSON
	Warning      string   `json:"warning,omitempty"` // warning message if any issues occurred
	Metadata     Metadata `json:"metadata"`
}

// Config contains configuration for OCR providers
type Config struct {
	// Provider name: "gemini" or "mistral"
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	MistralAPIKey  string
	MistralModel   string
	MistralBaseURL string

	// MaxImageDimension <= 0 sends images unresized
	MaxImageDimension int
	Timeout           time.Duration
	Limiter           *ratelimit.RateLimiter
}

// ConfigFromEnv builds a Config from the loaded configs package
func ConfigFromEnv() Config {
	maxDim := configs.MAX_IMAGE_DIMENSION
	if !configs.ENABLE_IMAGE_RESIZE {
		maxDim = 0
	}
	return Config{
		Provider:          configs.OCR_PROVIDER,
		GeminiAPIKey:      configs.GEMINI_API_KEY,
		GeminiModel:       configs.OCR_MODEL_NAME,
		MistralAPIKey:     configs.MISTRAL_API_KEY,
		MistralModel:      configs.MISTRAL_MODEL_NAME,
		MistralBaseURL:    configs.MISTRAL_BASE_URL,
		MaxImageDimension: maxDim,
		Timeout:           time.Duration(configs.OCR_TIMEOUT) * time.Second,
		Limiter: ratelimit.NewRateLimiter(
			configs.OCR_RATE_LIMIT_TOKENS,
			time.Duration(configs.OCR_RATE_LIMIT_REFILL)*time.Second,
		),
	}
}

// NewProvider creates an OCR provider based on configuration
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		log.Printf("🔵 Creating Gemini OCR provider (model: %s)", cfg.GeminiModel)
		return NewGeminiProvider(ctx, cfg)

	case "mistral":
		log.Printf("🔷 Creating Mistral OCR provider (model: %s)", cfg.MistralModel)
		return NewMistralProvider(cfg), nil

	default:
		return nil, fmt.Errorf("%w: %q (supported: gemini, mistral)", ErrUnsupportedProvider, cfg.Provider)
	}
}

// Close releases provider resources when the provider holds any
func Close(p Provider) error {
	if c, ok := p.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// prepareCall applies the rate limit and per-call timeout and loads the image
func prepareCall(ctx context.Context, cfg Config, imagePath string, reqCtx *common.RequestContext) (context.Context, context.CancelFunc, []byte, string, error) {
	info, err := os.Stat(imagePath)
	if err != nil {
		return nil, nil, nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	if info.Size() == 0 {
		return nil, nil, nil, "", ErrEmptyImage
	}

	cancel := context.CancelFunc(func() {})
	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	}

	if cfg.Limiter != nil {
		reqCtx.StartSubStep("rate_limit_wait")
		err := cfg.Limiter.Wait(ctx)
		reqCtx.EndSubStep("")
		if err != nil {
			cancel()
			return nil, nil, nil, "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	reqCtx.StartSubStep("image_preparation")
	imageData, mimeType, err := processor.LoadImageForOCR(imagePath, cfg.MaxImageDimension)
	reqCtx.EndSubStep("")
	if err != nil {
		cancel()
		return nil, nil, nil, "", err
	}
	reqCtx.LogInfo("📄 Image size: %.2f KB, MIME type: %s", float64(len(imageData))/1024.0, mimeType)

	return ctx, cancel, imageData, mimeType, nil
}
