// mistral.go - Mistral OCR provider

package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Mstr-Creta/Document-Extractor/configs"
	"github.com/Mstr-Creta/Document-Extractor/internal/common"
	"github.com/avast/retry-go/v4"
)

// Mistral OCR pricing: $2 per 1,000 pages
const mistralCostPerPage = 0.002

// MistralProvider implements Provider with the Mistral OCR API
type MistralProvider struct {
	cfg     Config
	baseURL string
	client  *http.Client
	retry   RetryConfig
}

// NewMistralProvider creates a new Mistral OCR provider
func NewMistralProvider(cfg Config) *MistralProvider {
	baseURL := strings.TrimRight(cfg.MistralBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.mistral.ai/v1"
	}
	return &MistralProvider{
		cfg:     cfg,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		retry: DefaultRetryConfig,
	}
}

// Name returns "mistral"
func (m *MistralProvider) Name() string {
	return "mistral"
}

type mistralOCRDocument struct {
	Type     string `json:"type"`                // always "image_url"
	ImageURL string `json:"image_url,omitempty"` // base64 data URL
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type mistralOCRUsageInfo struct {
	PagesProcessed int `json:"pages_processed"`
	DocSizeBytes   int `json:"doc_size_bytes,omitempty"`
}

type mistralOCRResponse struct {
	Model     string              `json:"model"`
	Pages     []mistralOCRPage    `json:"pages"`
	UsageInfo mistralOCRUsageInfo `json:"usage_info"`
}

type mistralErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
	Message string `json:"message"`
}

// ExtractText sends the image as a base64 data URL and joins page text
func (m *MistralProvider) ExtractText(ctx context.Context, imagePath string, reqCtx *common.RequestContext) (*Result, *common.TokenUsage, error) {
	ctx, cancel, imageData, mimeType, err := prepareCall(ctx, m.cfg, imagePath, reqCtx)
	if err != nil {
		return nil, nil, err
	}
	defer cancel()

	request := mistralOCRRequest{
		Model: m.cfg.MistralModel,
		Document: mistralOCRDocument{
			Type:     "image_url",
			ImageURL: fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData)),
		},
	}

	reqCtx.StartSubStep("mistral_ocr_api_call")
	response, err := retry.DoWithData(
		func() (*mistralOCRResponse, error) {
			return m.callOCRAPI(ctx, request)
		},
		retry.Context(ctx),
		retry.Attempts(uint(m.retry.MaxAttempts)),
		retry.Delay(m.retry.InitialDelay),
		retry.MaxDelay(m.retry.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			reqCtx.LogWarning("Mistral attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		reqCtx.EndSubStep("❌ FAILED")
		return nil, nil, fmt.Errorf("mistral OCR API call failed: %w", err)
	}
	reqCtx.EndSubStep("")

	var text strings.Builder
	for i, page := range response.Pages {
		if i > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(page.Markdown)
	}
	finalText := text.String()
	reqCtx.LogInfo("✅ Extracted text from %d page(s), length: %d characters", len(response.Pages), len(finalText))

	pages := response.UsageInfo.PagesProcessed
	costUSD := float64(pages) * mistralCostPerPage
	usage := &common.TokenUsage{
		InputTokens: pages, // pages stored as "tokens" for compatibility
		TotalTokens: pages,
		CostUSD:     costUSD,
		CostTHB:     costUSD * configs.USD_TO_THB,
	}

	model := response.Model
	if model == "" {
		model = m.cfg.MistralModel
	}

	return &Result{
		Status:     "success",
		Text:       finalText,
		TextLength: len(finalText),
		Metadata: Metadata{
			ModelName:    model,
			PromptTokens: int32(pages),
			TotalTokens:  int32(pages),
			Pages:        len(response.Pages),
		},
	}, usage, nil
}

// callOCRAPI makes one HTTP request to the Mistral OCR endpoint
func (m *MistralProvider) callOCRAPI(ctx context.Context, request mistralOCRRequest) (*mistralOCRResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/ocr", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.MistralAPIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, categorizeError("mistral", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, categorizeError("mistral", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		apiMessage := string(body)
		var errorResp mistralErrorResponse
		if json.Unmarshal(body, &errorResp) == nil {
			if errorResp.Error.Message != "" {
				apiMessage = errorResp.Error.Message
			} else if errorResp.Message != "" {
				apiMessage = errorResp.Message
			}
		}
		provErr := &ProviderError{
			Provider:      "mistral",
			OriginalError: fmt.Errorf("mistral OCR API error (%d): %s", resp.StatusCode, apiMessage),
		}
		return nil, categorizeStatus(provErr, resp.StatusCode, apiMessage)
	}

	var response mistralOCRResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse OCR response: %w", err)
	}
	return &response, nil
}
