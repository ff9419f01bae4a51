// Package extraction exposes the document upload and extraction HTTP
// API. Handlers hold their collaborators by injection; the store is an
// interface so tests run without Postgres.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finspread/pkg/core/pipeline"
	"finspread/pkg/models"
)

// Uploads above this size are rejected.
const maxUploadBytes = 50 << 20

// allowedExtensions maps accepted upload extensions to their file type.
var allowedExtensions = map[string]models.FileType{
	".pdf":  models.FileTypePDF,
	".docx": models.FileTypeDOCX,
	".xlsx": models.FileTypeXLSX,
	".csv":  models.FileTypeCSV,
	".png":  models.FileTypeImage,
	".jpg":  models.FileTypeImage,
	".jpeg": models.FileTypeImage,
	".tiff": models.FileTypeImage,
}

// Store is the persistence surface the handlers need.
type Store interface {
	InsertDocument(ctx context.Context, doc *models.DocumentUpload) error
	UpdateDocumentStatus(ctx context.Context, documentID string, status models.ProcessingStatus) error
	GetDocument(ctx context.Context, documentID string) (*models.DocumentUpload, error)
	ListDocuments(ctx context.Context, limit int) ([]models.DocumentUpload, error)
	UpsertExtraction(ctx context.Context, result *models.ExtractionResult) error
	GetExtractionByDocument(ctx context.Context, documentID string) (*models.ExtractionResult, error)
	GetProgress(ctx context.Context, documentID string) (string, int, error)
	InsertAuditLog(ctx context.Context, documentID, event string, details map[string]interface{}) error
}

// AgentCatalog describes the registered agents for GET /api/agents.
type AgentCatalog interface {
	Catalog() []map[string]string
}

// Handler carries the wired collaborators for every route.
type Handler struct {
	store        Store
	agents       AgentCatalog
	orchestrator *pipeline.Orchestrator
	uploadDir    string
}

func NewHandler(st Store, agents AgentCatalog, orch *pipeline.Orchestrator, uploadDir string) *Handler {
	return &Handler{store: st, agents: agents, orchestrator: orch, uploadDir: uploadDir}
}

// Register attaches every route to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/documents/upload", h.HandleUpload)
	mux.HandleFunc("/api/documents", h.HandleListDocuments)
	mux.HandleFunc("/api/extract", h.HandleExtract)
	mux.HandleFunc("/api/extractions/", h.HandleGetExtraction)
	mux.HandleFunc("/api/progress/", h.HandleGetProgress)
	mux.HandleFunc("/api/agents", h.HandleListAgents)
	mux.HandleFunc("/health", h.HandleHealth)
}

func cors(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type uploadedFile struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
}

type rejectedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// HandleUpload accepts one or more files as multipart form data under
// the "files" field. Each file is screened independently; one bad file
// never sinks the batch.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if cors(w, r, "POST") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid multipart form: %v", err), http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "no files in upload", http.StatusBadRequest)
		return
	}

	var accepted []uploadedFile
	var rejected []rejectedFile

	for _, header := range files {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		fileType, ok := allowedExtensions[ext]
		if !ok {
			rejected = append(rejected, rejectedFile{Filename: header.Filename, Reason: fmt.Sprintf("unsupported file type %q", ext)})
			continue
		}
		if header.Size > maxUploadBytes {
			rejected = append(rejected, rejectedFile{Filename: header.Filename, Reason: "file exceeds 50MB limit"})
			continue
		}

		doc := models.NewDocumentUpload(header.Filename, fileType, header.Size)
		doc.StoragePath = filepath.Join(h.uploadDir, doc.DocumentID+ext)

		if err := h.saveFile(header, doc.StoragePath); err != nil {
			rejected = append(rejected, rejectedFile{Filename: header.Filename, Reason: fmt.Sprintf("storage failed: %v", err)})
			continue
		}
		if err := h.store.InsertDocument(r.Context(), &doc); err != nil {
			rejected = append(rejected, rejectedFile{Filename: header.Filename, Reason: fmt.Sprintf("database insert failed: %v", err)})
			continue
		}

		fmt.Printf("[API] Uploaded %s as %s (%d bytes)\n", header.Filename, doc.DocumentID, header.Size)
		accepted = append(accepted, uploadedFile{DocumentID: doc.DocumentID, Filename: doc.Filename, Status: string(doc.Status)})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uploaded": accepted,
		"rejected": rejected,
	})
}

func (h *Handler) saveFile(header *multipart.FileHeader, path string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

type extractRequest struct {
	DocumentID string           `json:"document_id"`
	Agent      models.AgentType `json:"agent,omitempty"`
}

// HandleExtract kicks off the pipeline for an uploaded document. The
// run happens in the background; the response returns immediately with
// 202 and the caller polls the progress endpoint.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	if cors(w, r, "POST") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocumentID == "" {
		http.Error(w, "document_id is required", http.StatusBadRequest)
		return
	}
	if req.Agent != "" && !req.Agent.Valid() {
		http.Error(w, fmt.Sprintf("unknown agent %q", req.Agent), http.StatusBadRequest)
		return
	}

	doc, err := h.store.GetDocument(r.Context(), req.DocumentID)
	if err != nil || doc == nil {
		http.Error(w, fmt.Sprintf("document not found: %s", req.DocumentID), http.StatusNotFound)
		return
	}

	go h.runExtraction(doc, req.Agent)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"document_id": doc.DocumentID,
		"status":      string(models.StatusProcessing),
	})
}

// runExtraction is the background body of HandleExtract.
func (h *Handler) runExtraction(doc *models.DocumentUpload, requested models.AgentType) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	_ = h.store.UpdateDocumentStatus(ctx, doc.DocumentID, models.StatusProcessing)

	result, status, err := h.orchestrator.Run(ctx, doc, requested)
	if err != nil {
		fmt.Printf("[API] Extraction failed for %s: %v\n", doc.DocumentID, err)
		_ = h.store.UpdateDocumentStatus(ctx, doc.DocumentID, models.StatusFailed)
		_ = h.store.InsertAuditLog(ctx, doc.DocumentID, "extraction_failed", map[string]interface{}{
			"error":  err.Error(),
			"errors": status.Errors,
		})
		return
	}

	if err := h.store.UpsertExtraction(ctx, result); err != nil {
		fmt.Printf("[API] Failed to persist extraction for %s: %v\n", doc.DocumentID, err)
		_ = h.store.UpdateDocumentStatus(ctx, doc.DocumentID, models.StatusFailed)
		return
	}
	_ = h.store.UpdateDocumentStatus(ctx, doc.DocumentID, result.Status)
	_ = h.store.InsertAuditLog(ctx, doc.DocumentID, "extraction_completed", map[string]interface{}{
		"extraction_id": result.ExtractionID,
		"quality_score": result.QualityScore,
		"agent":         string(result.SelectedAgent),
	})
}

// HandleGetExtraction serves GET /api/extractions/{document_id}.
func (h *Handler) HandleGetExtraction(w http.ResponseWriter, r *http.Request) {
	if cors(w, r, "GET") {
		return
	}
	documentID := strings.TrimPrefix(r.URL.Path, "/api/extractions/")
	if documentID == "" {
		http.Error(w, "document_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.store.GetExtractionByDocument(r.Context(), documentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if result == nil {
		http.Error(w, fmt.Sprintf("no extraction for document %s", documentID), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleGetProgress serves GET /api/progress/{document_id}.
func (h *Handler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	if cors(w, r, "GET") {
		return
	}
	documentID := strings.TrimPrefix(r.URL.Path, "/api/progress/")
	if documentID == "" {
		http.Error(w, "document_id is required", http.StatusBadRequest)
		return
	}

	stage, progress, err := h.store.GetProgress(r.Context(), documentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id":   documentID,
		"current_stage": stage,
		"progress":      progress,
	})
}

// HandleListDocuments serves GET /api/documents.
func (h *Handler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	if cors(w, r, "GET") {
		return
	}
	docs, err := h.store.ListDocuments(r.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []models.DocumentUpload{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// HandleListAgents serves GET /api/agents.
func (h *Handler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	if cors(w, r, "GET") {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"agents": h.agents.Catalog()})
}

// HandleHealth is the liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
