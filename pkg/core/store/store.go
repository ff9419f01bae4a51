package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finspread/pkg/models"
)

// Store wraps a pgx pool with the queries the pipeline and API need.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertDocument records an accepted upload.
func (s *Store) InsertDocument(ctx context.Context, doc *models.DocumentUpload) error {
	query := `
		INSERT INTO documents (id, file_name, file_type, file_size, storage_path, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		doc.DocumentID, doc.Filename, doc.FileType, doc.FileSizeBytes, doc.StoragePath, doc.Status, doc.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// UpdateDocumentStatus moves a document through the processing states.
func (s *Store) UpdateDocumentStatus(ctx context.Context, documentID string, status models.ProcessingStatus) error {
	query := `UPDATE documents SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := s.pool.Exec(ctx, query, documentID, status)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return nil
}

// GetDocument fetches a single upload record, or nil when unknown.
func (s *Store) GetDocument(ctx context.Context, documentID string) (*models.DocumentUpload, error) {
	query := `
		SELECT id, file_name, file_type, file_size, storage_path, status, uploaded_at
		FROM documents
		WHERE id = $1
	`
	var doc models.DocumentUpload
	err := s.pool.QueryRow(ctx, query, documentID).Scan(&doc.DocumentID, &doc.Filename,
		&doc.FileType, &doc.FileSizeBytes, &doc.StoragePath, &doc.Status, &doc.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// ListDocuments returns uploads newest first.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]models.DocumentUpload, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, file_name, file_type, file_size, storage_path, status, uploaded_at
		FROM documents
		ORDER BY uploaded_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.DocumentUpload
	for rows.Next() {
		var doc models.DocumentUpload
		if err := rows.Scan(&doc.DocumentID, &doc.Filename, &doc.FileType, &doc.FileSizeBytes,
			&doc.StoragePath, &doc.Status, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpsertExtraction writes the full extraction result as JSONB, keyed
// by extraction_id. Re-running a document overwrites its prior result.
func (s *Store) UpsertExtraction(ctx context.Context, result *models.ExtractionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction result: %w", err)
	}

	query := `
		INSERT INTO extractions (extraction_id, document_id, quality_score, needs_review, data, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (extraction_id)
		DO UPDATE SET
			quality_score = EXCLUDED.quality_score,
			needs_review = EXCLUDED.needs_review,
			data = EXCLUDED.data,
			updated_at = NOW()
	`
	needsReview := result.Status == models.StatusNeedsReview
	_, err = s.pool.Exec(ctx, query,
		result.ExtractionID, result.DocumentID, result.QualityScore, needsReview, payload)
	if err != nil {
		return fmt.Errorf("failed to upsert extraction: %w", err)
	}
	return nil
}

// GetExtractionByDocument returns the most recent extraction for a
// document, or nil when none exists yet.
func (s *Store) GetExtractionByDocument(ctx context.Context, documentID string) (*models.ExtractionResult, error) {
	query := `
		SELECT data
		FROM extractions
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var payload []byte
	if err := s.pool.QueryRow(ctx, query, documentID).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}

	var result models.ExtractionResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extraction data: %w", err)
	}
	return &result, nil
}

// UpdateProgress records the pipeline's current stage for a document.
// The pipeline calls this fire-and-forget; a failed write only costs
// staleness in the progress endpoint.
func (s *Store) UpdateProgress(ctx context.Context, documentID, stage string, progress int) error {
	query := `
		INSERT INTO extraction_progress (document_id, current_stage, progress, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (document_id)
		DO UPDATE SET current_stage = EXCLUDED.current_stage, progress = EXCLUDED.progress, updated_at = NOW()
	`
	_, err := s.pool.Exec(ctx, query, documentID, stage, progress)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// GetProgress reads the last recorded stage for a document.
func (s *Store) GetProgress(ctx context.Context, documentID string) (stage string, progress int, err error) {
	query := `SELECT current_stage, progress FROM extraction_progress WHERE document_id = $1`
	if err := s.pool.QueryRow(ctx, query, documentID).Scan(&stage, &progress); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, nil
		}
		return "", 0, fmt.Errorf("failed to get progress: %w", err)
	}
	return stage, progress, nil
}

// InsertAuditLog appends one processing event. Details marshal to
// JSONB for ad hoc querying.
func (s *Store) InsertAuditLog(ctx context.Context, documentID, event string, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}
	query := `
		INSERT INTO audit_logs (document_id, event, details, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.pool.Exec(ctx, query, documentID, event, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}
