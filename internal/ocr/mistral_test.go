package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mstr-Creta/Document-Extractor/internal/common"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffMultiple: 2,
	}
}

func TestMistralProvider_ExtractText(t *testing.T) {
	t.Run("successful OCR", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/ocr" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}

			var req mistralOCRRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("bad request body: %v", err)
			}
			if req.Model != "mistral-ocr-latest" {
				t.Errorf("model = %q", req.Model)
			}
			if req.Document.Type != "image_url" {
				t.Errorf("document type = %q", req.Document.Type)
			}
			if !strings.HasPrefix(req.Document.ImageURL, "data:image/jpeg;base64,") {
				t.Errorf("image url = %.40q", req.Document.ImageURL)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(mistralOCRResponse{
				Model: "mistral-ocr-2505",
				Pages: []mistralOCRPage{
					{Index: 0, Markdown: "INCOME TAX DEPARTMENT\nABCDE1234F"},
					{Index: 1, Markdown: "01/02/1990"},
				},
				UsageInfo: mistralOCRUsageInfo{PagesProcessed: 2},
			})
		}))
		defer server.Close()

		p := NewMistralProvider(Config{
			MistralAPIKey:  "test-key",
			MistralModel:   "mistral-ocr-latest",
			MistralBaseURL: server.URL + "/",
		})
		path := writeFile(t, "pan.jpg", []byte("fake image data"))

		result, usage, err := p.ExtractText(context.Background(), path, common.NewRequestContext("s", "pan.jpg"))
		if err != nil {
			t.Fatalf("ExtractText() error = %v", err)
		}
		if result.Text != "INCOME TAX DEPARTMENT\nABCDE1234F\n\n01/02/1990" {
			t.Errorf("unexpected text: %q", result.Text)
		}
		if result.Metadata.ModelName != "mistral-ocr-2505" || result.Metadata.Pages != 2 {
			t.Errorf("unexpected metadata: %+v", result.Metadata)
		}
		if usage.TotalTokens != 2 || usage.CostUSD != 2*mistralCostPerPage {
			t.Errorf("unexpected usage: %+v", usage)
		}
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"message":"overloaded"}`))
				return
			}
			json.NewEncoder(w).Encode(mistralOCRResponse{Pages: []mistralOCRPage{{Markdown: "PASSPORT"}}})
		}))
		defer server.Close()

		p := NewMistralProvider(Config{MistralAPIKey: "k", MistralModel: "m", MistralBaseURL: server.URL})
		p.retry = fastRetry()
		path := writeFile(t, "p.png", []byte("png-ish"))

		result, _, err := p.ExtractText(context.Background(), path, common.NewRequestContext("s", "p.png"))
		if err != nil {
			t.Fatalf("ExtractText() error = %v", err)
		}
		if result.Text != "PASSPORT" {
			t.Errorf("text = %q", result.Text)
		}
		if got := atomic.LoadInt32(&calls); got != 3 {
			t.Errorf("calls = %d, want 3", got)
		}
	})

	t.Run("does not retry auth errors", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"bad key"}}`))
		}))
		defer server.Close()

		p := NewMistralProvider(Config{MistralAPIKey: "k", MistralBaseURL: server.URL})
		p.retry = fastRetry()
		path := writeFile(t, "a.jpg", []byte("x"))

		_, _, err := p.ExtractText(context.Background(), path, common.NewRequestContext("s", "a.jpg"))
		var provErr *ProviderError
		if !errors.As(err, &provErr) {
			t.Fatalf("error = %v, want ProviderError", err)
		}
		if provErr.Category != "unauthorized" || provErr.Retryable {
			t.Errorf("unexpected categorization: %+v", provErr)
		}
		if got := atomic.LoadInt32(&calls); got != 1 {
			t.Errorf("calls = %d, want 1", got)
		}
	})

	t.Run("empty image", func(t *testing.T) {
		p := NewMistralProvider(Config{MistralAPIKey: "k", MistralBaseURL: "http://127.0.0.1:0"})
		path := writeFile(t, "empty.jpg", nil)
		_, _, err := p.ExtractText(context.Background(), path, common.NewRequestContext("s", "empty.jpg"))
		if !errors.Is(err, ErrEmptyImage) {
			t.Errorf("error = %v, want ErrEmptyImage", err)
		}
	})
}

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "tesseract"})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("error = %v, want ErrUnsupportedProvider", err)
	}
}

func TestNewProvider_Mistral(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mistral", MistralAPIKey: "k"})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Name() != "mistral" {
		t.Errorf("Name() = %q", p.Name())
	}
	if err := Close(p); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
