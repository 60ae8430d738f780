// handlers.go - HTTP handlers for document upload, parsing and session records.

package api

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mstr-Creta/Document-Extractor/internal/common"
	"github.com/Mstr-Creta/Document-Extractor/internal/document"
	"github.com/Mstr-Creta/Document-Extractor/internal/export"
	"github.com/Mstr-Creta/Document-Extractor/internal/ocr"
	"github.com/Mstr-Creta/Document-Extractor/internal/processor"
	"github.com/Mstr-Creta/Document-Extractor/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHeader carries the session ID when the form field is not used
const SessionHeader = "X-Session-ID"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler serves the document endpoints. OCR and Store are shared by all requests.
type Handler struct {
	OCR            ocr.Provider
	Store          storage.RecordStore
	Parser         *document.Parser
	UploadDir      string
	MaxUploadBytes int64

	// now is replaced in tests
	now func() time.Time
}

// NewHandler wires a handler with the default parser
func NewHandler(provider ocr.Provider, store storage.RecordStore, uploadDir string, maxUploadBytes int64) *Handler {
	return &Handler{
		OCR:            provider,
		Store:          store,
		Parser:         document.DefaultParser(),
		UploadDir:      uploadDir,
		MaxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// ParseRequest is the body of POST /api/v1/parse
type ParseRequest struct {
	Text string `json:"text"`
}

// ParseResponse is a classification with its extracted fields
type ParseResponse struct {
	DocumentType document.DocumentType `json:"document_type"`
	Fields       document.FieldMap     `json:"fields"`
}

// RecordsResponse is the session table plus the raw records
type RecordsResponse struct {
	Columns []string          `json:"columns"`
	Rows    [][]string        `json:"rows"`
	Records []document.Record `json:"records"`
}

func sessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.PostForm("session_id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.GetHeader(SessionHeader))
}

// UploadDocumentHandler runs OCR on one uploaded image, parses the text and
// appends the resulting record to the caller's session.
func (h *Handler) UploadDocumentHandler(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "file is required",
			"details":  err.Error(),
			"expected": "multipart/form-data with a 'file' image field",
		})
		return
	}

	if err := processor.ValidateImageExtension(file.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Unsupported file type",
			"details": err.Error(),
		})
		return
	}

	session := sessionID(c)
	if session == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("session_id form field or %s header is required", SessionHeader),
		})
		return
	}

	reqCtx := common.NewRequestContext(session, file.Filename)
	reqCtx.LogInfo("🚀 New upload | Session: %s | File: %s | %s", session, file.Filename, h.now().Format(document.TimestampLayout))

	// Step 1: save the upload under a unique name
	reqCtx.StartStep(common.StepSaveUpload)
	savedPath := filepath.Join(h.UploadDir, uuid.New().String()+strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, savedPath); err != nil {
		reqCtx.EndStep(common.StatusFailed, nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to save uploaded file",
			"details":    err.Error(),
			"request_id": reqCtx.RequestID,
		})
		return
	}
	reqCtx.EndStep(common.StatusSuccess, nil, nil)
	defer func() {
		if err := os.Remove(savedPath); err != nil {
			reqCtx.LogWarning("Failed to delete temporary file %s: %v", savedPath, err)
		}
	}()

	// Step 2: OCR
	reqCtx.StartStep(common.StepOCR)
	result, usage, err := h.OCR.ExtractText(c.Request.Context(), savedPath, reqCtx)
	if err != nil {
		reqCtx.EndStep(common.StatusFailed, nil, err)
		status := http.StatusBadGateway
		if errors.Is(err, ocr.ErrEmptyImage) {
			status = http.StatusBadRequest
		}
		payload := ocr.BuildUserFriendlyError(err)
		payload["request_id"] = reqCtx.RequestID
		c.JSON(status, payload)
		return
	}
	reqCtx.EndStep(common.StatusSuccess, usage, nil)
	if result.Warning != "" {
		reqCtx.LogWarning("OCR warning: %s", result.Warning)
	}

	// Step 3: classify and extract
	reqCtx.StartStep(common.StepClassifyAndExtract)
	docType, fields := h.Parser.Parse(result.Text)
	reqCtx.LogInfo("📋 Classified as %s with %d field(s)", docType, fields.Len())
	reqCtx.EndStep(common.StatusSuccess, nil, nil)

	// Step 4: store
	reqCtx.StartStep(common.StepStoreRecord)
	record := document.NewRecord(session, file.Filename, h.now(), docType, fields)
	if err := h.Store.Append(c.Request.Context(), record); err != nil {
		reqCtx.EndStep(common.StatusFailed, nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to store record",
			"details":    err.Error(),
			"request_id": reqCtx.RequestID,
		})
		return
	}
	reqCtx.EndStep(common.StatusSuccess, nil, nil)

	c.JSON(http.StatusCreated, gin.H{
		"record":  record,
		"ocr":     result,
		"request": reqCtx.GetSummary(),
	})
}

// ParseTextHandler classifies already recognized text without OCR
func (h *Handler) ParseTextHandler(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Invalid request format",
			"details":  err.Error(),
			"expected": "JSON with a text field",
		})
		return
	}

	docType, fields := h.Parser.Parse(req.Text)
	c.JSON(http.StatusOK, ParseResponse{DocumentType: docType, Fields: fields})
}

// ListRecordsHandler returns the session's records as a display table
func (h *Handler) ListRecordsHandler(c *gin.Context) {
	records, ok := h.listRecords(c)
	if !ok {
		return
	}

	columns := export.Columns(records)
	c.JSON(http.StatusOK, RecordsResponse{
		Columns: columns,
		Rows:    export.Rows(records, columns),
		Records: records,
	})
}

// ExportRecordsHandler downloads the session's records as an Excel workbook
func (h *Handler) ExportRecordsHandler(c *gin.Context) {
	records, ok := h.listRecords(c)
	if !ok {
		return
	}

	data, err := export.RecordsXLSX(records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to build export",
			"details": err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("records-%s.xlsx", c.Param("session"))
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ClearRecordsHandler drops every record of the session
func (h *Handler) ClearRecordsHandler(c *gin.Context) {
	if err := h.Store.Clear(c.Request.Context(), c.Param("session")); err != nil {
		c.JSON(storeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listRecords(c *gin.Context) ([]document.Record, bool) {
	records, err := h.Store.List(c.Request.Context(), c.Param("session"))
	if err != nil {
		c.JSON(storeErrorStatus(err), gin.H{
			"error":   "Failed to load records",
			"details": err.Error(),
		})
		return nil, false
	}
	return records, true
}

func storeErrorStatus(err error) int {
	if errors.Is(err, storage.ErrSessionRequired) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
