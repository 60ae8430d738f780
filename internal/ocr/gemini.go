// gemini.go - Gemini OCR provider: image in, raw document text out

package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Mstr-Creta/Document-Extractor/internal/common"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiMaxOutputTokens = 8192

// GeminiProvider implements Provider with the Gemini API
type GeminiProvider struct {
	client *genai.Client
	cfg    Config
	retry  RetryConfig
}

// NewGeminiProvider creates the Gemini client once; it is reused by every call
func NewGeminiProvider(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, cfg: cfg, retry: DefaultRetryConfig}, nil
}

// Name returns "gemini"
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// Close releases the underlying Gemini client
func (g *GeminiProvider) Close() error {
	return g.client.Close()
}

// model returns a fresh model handle so per-call settings never leak between requests
func (g *GeminiProvider) model(withSchema bool) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.cfg.GeminiModel)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: ptr(int32(geminiMaxOutputTokens)),
	}
	if withSchema {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = createOCRSchema()
	}
	return model
}

// ExtractText runs structured OCR and falls back to plain text when the JSON
// response cannot be parsed (usually because it was truncated)
func (g *GeminiProvider) ExtractText(ctx context.Context, imagePath string, reqCtx *common.RequestContext) (*Result, *common.TokenUsage, error) {
	ctx, cancel, imageData, mimeType, err := prepareCall(ctx, g.cfg, imagePath, reqCtx)
	if err != nil {
		return nil, nil, err
	}
	defer cancel()

	reqCtx.StartSubStep("call_gemini_api")
	resp, err := callGeminiWithRetry(ctx, g.model(true),
		genai.Text(GetPureOCRPrompt()),
		genai.Blob{MIMEType: mimeType, Data: imageData},
		reqCtx,
		g.retry,
	)
	if err != nil {
		reqCtx.EndSubStep("❌ FAILED")
		return nil, nil, fmt.Errorf("gemini OCR failed: %w", err)
	}
	reqCtx.EndSubStep("")

	reqCtx.StartSubStep("parse_json_response")
	result, parseErr := parseStructuredResponse(resp)
	if parseErr != nil {
		reqCtx.EndSubStep("❌ JSON PARSE FAILED")
		reqCtx.LogWarning("JSON parse error: %v. Trying plain text extraction...", parseErr)

		fallback, usage, fallbackErr := g.extractPlainText(ctx, imageData, mimeType, reqCtx)
		if fallbackErr != nil {
			return nil, nil, fmt.Errorf("JSON parse failed and fallback failed: %w (original error: %v)", fallbackErr, parseErr)
		}
		if fallback.Warning != "" {
			fallback.Warning = "Original JSON response was truncated. " + fallback.Warning
		} else {
			fallback.Warning = "Original JSON response was truncated. Using plain text fallback."
		}
		return fallback, usage, nil
	}
	reqCtx.EndSubStep("")

	result.Metadata.ModelName = g.cfg.GeminiModel
	if result.IsPartial {
		reqCtx.LogWarning("JSON response was truncated (FinishReason: MAX_TOKENS)")
	}
	reqCtx.LogInfo("📄 Recognized %d chars", result.TextLength)

	return result, usageFromResponse(resp, &result.Metadata), nil
}

// extractPlainText asks for the text without a JSON schema
func (g *GeminiProvider) extractPlainText(ctx context.Context, imageData []byte, mimeType string, reqCtx *common.RequestContext) (*Result, *common.TokenUsage, error) {
	reqCtx.StartSubStep("fallback_plain_text_ocr")
	resp, err := callGeminiWithRetry(ctx, g.model(false),
		genai.Text(GetPlainTextOCRPrompt()),
		genai.Blob{MIMEType: mimeType, Data: imageData},
		reqCtx,
		g.retry,
	)
	if err != nil {
		reqCtx.EndSubStep("❌ FALLBACK FAILED")
		return nil, nil, fmt.Errorf("plain text OCR failed: %w", err)
	}
	reqCtx.EndSubStep("✅ FALLBACK SUCCESS")

	result, err := parsePlainTextResponse(resp)
	if err != nil {
		return nil, nil, err
	}
	result.Metadata.ModelName = g.cfg.GeminiModel
	return result, usageFromResponse(resp, &result.Metadata), nil
}

// responseText returns the first text part of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates from Gemini API (possibly blocked or rate limited)")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content parts from Gemini API (FinishReason: %v)", candidate.FinishReason)
	}
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			return string(text), nil
		}
	}
	return "", fmt.Errorf("no text part in Gemini response")
}

func truncated(resp *genai.GenerateContentResponse) bool {
	return len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens
}

// parseStructuredResponse decodes the {status, raw_document_text} JSON answer
func parseStructuredResponse(resp *genai.GenerateContentResponse) (*Result, error) {
	jsonResponse, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	// Gemini sometimes sends literal newlines inside JSON strings
	jsonResponse = fixJSONEscaping(jsonResponse)

	var result Result
	if err := json.Unmarshal([]byte(jsonResponse), &result); err != nil {
		return nil, fmt.Errorf("failed to parse OCR JSON: %w", err)
	}
	if result.Status == "" {
		result.Status = "success"
	}
	result.TextLength = len(result.Text)
	result.IsPartial = truncated(resp)
	if result.IsPartial {
		result.Warning = "JSON response was truncated due to token limit. Data may be incomplete."
	}
	return &result, nil
}

// parsePlainTextResponse wraps a schema-less answer. An empty answer is valid:
// a card with no legible text still produces a record.
func parsePlainTextResponse(resp *genai.GenerateContentResponse) (*Result, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates from Gemini API in plain text mode (possibly blocked or rate limited)")
	}
	text := ""
	if c := resp.Candidates[0].Content; c != nil {
		for _, part := range c.Parts {
			if t, ok := part.(genai.Text); ok {
				text = string(t)
				break
			}
		}
	}

	result := &Result{
		Status:       "success",
		Text:         strings.TrimSpace(text),
		FallbackUsed: true,
	}
	result.TextLength = len(result.Text)
	if truncated(resp) {
		result.IsPartial = true
		result.Warning = "Plain text extraction was truncated due to token limit."
	}
	return result, nil
}

// usageFromResponse copies token counts into meta and prices them
func usageFromResponse(resp *genai.GenerateContentResponse, meta *Metadata) *common.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	meta.PromptTokens = resp.UsageMetadata.PromptTokenCount
	meta.CandidatesTokens = resp.UsageMetadata.CandidatesTokenCount
	meta.TotalTokens = resp.UsageMetadata.TotalTokenCount

	tokens := common.CalculateOCRTokenCost(
		int(resp.UsageMetadata.PromptTokenCount),
		int(resp.UsageMetadata.CandidatesTokenCount),
	)
	return &tokens
}

// createOCRSchema creates the JSON schema for raw text OCR
func createOCRSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"status": {
				Type:        genai.TypeString,
				Description: "Status of the extraction (success or error)",
			},
			"raw_document_text": {
				Type:        genai.TypeString,
				Description: "All visible text on the identity document, top to bottom, left to right. One printed line per line, separated by newline (\\n). Do not format, translate or correct.",
			},
		},
		Required: []string{"status", "raw_document_text"},
	}
}

func ptr(i int32) *int32 {
	return &i
}

var jsonStringPattern = regexp.MustCompile(`"([^"]*(?:\\.[^"]*)*)"`)

// fixJSONEscaping escapes raw control characters inside JSON string values
func fixJSONEscaping(jsonStr string) string {
	return jsonStringPattern.ReplaceAllStringFunc(jsonStr, func(match string) string {
		if len(match) < 2 {
			return match
		}

		content := match[1 : len(match)-1]

		// Order matters: the backslash fix must run before newline escaping
		content = strings.ReplaceAll(content, "\\ ", "\\\\ ")
		content = strings.ReplaceAll(content, "\n", "\\n")
		content = strings.ReplaceAll(content, "\r", "\\r")
		content = strings.ReplaceAll(content, "\t", "\\t")
		content = strings.ReplaceAll(content, "\f", "\\f")
		content = strings.ReplaceAll(content, "\b", "\\b")

		var builder strings.Builder
		for _, ch := range content {
			if ch < 0x20 {
				builder.WriteString(fmt.Sprintf("\\u%04x", ch))
			} else {
				builder.WriteRune(ch)
			}
		}

		return `"` + builder.String() + `"`
	})
}
