package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/googleapi"

	"github.com/Mstr-Creta/Document-Extractor/internal/common"
	"github.com/Mstr-Creta/Document-Extractor/internal/document"
	"github.com/Mstr-Creta/Document-Extractor/internal/ocr"
	"github.com/Mstr-Creta/Document-Extractor/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProvider struct {
	text  string
	err   error
	paths []string
}

func (f *fakeProvider) ExtractText(ctx context.Context, imagePath string, reqCtx *common.RequestContext) (*ocr.Result, *common.TokenUsage, error) {
	f.paths = append(f.paths, imagePath)
	if _, err := os.Stat(imagePath); err != nil {
		return nil, nil, err
	}
	if f.err != nil {
		return nil, nil, f.err
	}
	return &ocr.Result{Status: "success", Text: f.text, TextLength: len(f.text)}, &common.TokenUsage{TotalTokens: 10}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func newTestHandler(t *testing.T, provider ocr.Provider) (*Handler, *gin.Engine) {
	t.Helper()
	h := NewHandler(provider, storage.NewMemoryStore(), t.TempDir(), 1<<20)
	h.now = func() time.Time { return time.Date(2024, 1, 2, 10, 11, 12, 0, time.UTC) }
	return h, NewRouter(h, "*")
}

func uploadRequest(t *testing.T, filename, session string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("image bytes"))
	}
	if session != "" {
		w.WriteField("session_id", session)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUploadDocumentHandler(t *testing.T) {
	provider := &fakeProvider{text: "INCOME TAX DEPARTMENT\nABCDE1234F\n01/02/1990"}
	_, router := newTestHandler(t, provider)

	rec := serve(router, uploadRequest(t, "pan.JPG", "s1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Record  document.Record        `json:"record"`
		Request map[string]interface{} `json:"request"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Record.DocumentType != document.PANCard || resp.Record.FileName != "pan.JPG" {
		t.Errorf("unexpected record: %+v", resp.Record)
	}
	if resp.Record.Timestamp != "10:11:12" {
		t.Errorf("timestamp = %q", resp.Record.Timestamp)
	}
	if got := resp.Record.Fields.Keys(); strings.Join(got, ",") != "ID Number,DOB,Name" {
		t.Errorf("field order = %v", got)
	}
	if resp.Request["session_id"] != "s1" {
		t.Errorf("request summary = %v", resp.Request)
	}

	// the temporary upload is removed after processing
	if _, err := os.Stat(provider.paths[0]); !os.IsNotExist(err) {
		t.Errorf("upload %s was not cleaned up", provider.paths[0])
	}
}

func TestUploadDocumentHandler_SessionHeader(t *testing.T) {
	_, router := newTestHandler(t, &fakeProvider{text: "RANDOM CARD\nXYZ98765"})

	req := uploadRequest(t, "card.png", "")
	req.Header.Set(SessionHeader, "from-header")
	rec := serve(router, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	list := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/from-header/records", nil))
	var resp RecordsResponse
	json.Unmarshal(list.Body.Bytes(), &resp)
	if len(resp.Records) != 1 || resp.Rows[0][2] != "XYZ98765" {
		t.Errorf("unexpected records: %+v", resp)
	}
}

func TestUploadDocumentHandler_BadRequests(t *testing.T) {
	_, router := newTestHandler(t, &fakeProvider{text: "x"})

	tests := []struct {
		name     string
		filename string
		session  string
	}{
		{"missing file", "", "s1"},
		{"unsupported extension", "scan.pdf", "s1"},
		{"missing session", "card.jpg", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, uploadRequest(t, tt.filename, tt.session))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUploadDocumentHandler_OCRFailure(t *testing.T) {
	provider := &fakeProvider{err: &ocr.ProviderError{
		Provider:      "fake",
		OriginalError: &googleapi.Error{Code: 503},
		Category:      "server_error",
		Retryable:     true,
	}}
	_, router := newTestHandler(t, provider)

	rec := serve(router, uploadRequest(t, "card.jpg", "s1"))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var payload map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &payload)
	if payload["category"] != "server_error" || payload["request_id"] == nil {
		t.Errorf("unexpected payload: %v", payload)
	}

	list := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/records", nil))
	var resp RecordsResponse
	json.Unmarshal(list.Body.Bytes(), &resp)
	if len(resp.Records) != 0 {
		t.Errorf("failed upload was stored")
	}
}

func TestParseTextHandler(t *testing.T) {
	_, router := newTestHandler(t, &fakeProvider{})

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{
			name:   "aadhaar without year of birth",
			body:   `{"text":"1234 5678 9012 MALE"}`,
			status: http.StatusOK,
			want:   `{"document_type":"Aadhaar Card","fields":{"ID Number":"1234 5678 9012","Gender":"Male"}}`,
		},
		{
			name:   "passport without number",
			body:   `{"text":"Passport\nRepublic of India"}`,
			status: http.StatusOK,
			want:   `{"document_type":"Passport","fields":{"ID Number":null,"DOB":null}}`,
		},
		{
			name:   "empty text",
			body:   `{"text":""}`,
			status: http.StatusOK,
			want:   `{"document_type":"General ID","fields":{"ID Number":"Not Found"}}`,
		},
		{
			name:   "invalid json",
			body:   `{"text":`,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := serve(router, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.want != "" && rec.Body.String() != tt.want {
				t.Errorf("body = %s\nwant %s", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestSessionRecords(t *testing.T) {
	provider := &fakeProvider{}
	_, router := newTestHandler(t, provider)

	for _, text := range []string{
		"GOVERNMENT OF INDIA\nFemale\nYear of Birth : 1985\n1234 5678 9012",
		"INCOME TAX DEPARTMENT\nABCDE1234F\n01/02/1990",
	} {
		provider.text = text
		if rec := serve(router, uploadRequest(t, "doc.jpg", "s1")); rec.Code != http.StatusCreated {
			t.Fatalf("upload status = %d", rec.Code)
		}
	}

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/records", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp RecordsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	wantColumns := "File Name,Document Type,ID Number,DOB,Gender,Name,Timestamp"
	if strings.Join(resp.Columns, ",") != wantColumns {
		t.Errorf("columns = %v", resp.Columns)
	}
	if len(resp.Rows) != 2 || resp.Rows[0][3] != "1985" || resp.Rows[1][5] != "Manual Check Needed" {
		t.Errorf("rows = %v", resp.Rows)
	}

	t.Run("export", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/records/export", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Content-Disposition"), "records-s1.xlsx") {
			t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
		}
		f, err := excelize.OpenReader(io.NopCloser(rec.Body))
		if err != nil {
			t.Fatalf("invalid workbook: %v", err)
		}
		defer f.Close()
		rows, _ := f.GetRows("Records")
		if len(rows) != 3 {
			t.Errorf("workbook rows = %d, want 3", len(rows))
		}
	})

	t.Run("clear", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s1/records", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
		rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/records", nil))
		var resp RecordsResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if len(resp.Records) != 0 || len(resp.Columns) != 0 {
			t.Errorf("records after clear: %+v", resp)
		}
	})
}

func TestExportRecordsHandler_QuotedSession(t *testing.T) {
	provider := &fakeProvider{text: "INCOME TAX DEPARTMENT\nABCDE1234F"}
	_, router := newTestHandler(t, provider)

	session := `a"b; x=1`
	req := uploadRequest(t, "pan.jpg", "")
	req.Header.Set(SessionHeader, session)
	if rec := serve(router, req); rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/a%22b%3B%20x=1/records/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("malformed Content-Disposition %q: %v", rec.Header().Get("Content-Disposition"), err)
	}
	if disposition != "attachment" || params["filename"] != "records-"+session+".xlsx" || len(params) != 1 {
		t.Errorf("disposition = %q params = %v", disposition, params)
	}
}

func TestHealthAndCORS(t *testing.T) {
	_, router := newTestHandler(t, &fakeProvider{})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"version":"1.0.0"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(router, httptest.NewRequest(http.MethodOptions, "/api/v1/documents", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), SessionHeader) {
		t.Errorf("session header not allowed: %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}
