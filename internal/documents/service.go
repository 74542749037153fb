package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"compliance-analyzer/internal/extract"
	"compliance-analyzer/internal/shared/metrics"
	"compliance-analyzer/internal/shared/telemetry"
	"compliance-analyzer/internal/shared/util"
)

// Service handles uploads and extraction for session documents.
type Service struct {
	Repo           Repo
	MaxUploadBytes int64
}

// Upload reads a PDF, extracts its text and stores it as the session's
// current document. A PDF that cannot be parsed is still stored, with
// ExtractError set, so the session shows the failure instead of stale text.
func (s *Service) Upload(ctx context.Context, sessionID, fileName string, r io.Reader) (Document, error) {
	if sessionID == "" {
		return Document{}, ErrInvalidInput
	}
	fileName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return Document{}, ErrNotPDF
	}

	data, err := s.read(r)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		FileName:  fileName,
		SizeBytes: int64(len(data)),
		Digest:    util.ContentDigest(data),
		CreatedAt: time.Now().UTC(),
	}

	text, err := extract.PDFText(ctx, data)
	switch {
	case err == nil:
		doc.Text = text
	case errors.Is(err, extract.ErrExtraction):
		doc.ExtractError = fmt.Sprintf("Error extracting text from PDF: %v", err)
		metrics.IncExtractionFailed()
		telemetry.Error("document.extract_failed", map[string]any{
			"session_id":  sessionID,
			"document_id": doc.ID,
			"file_name":   fileName,
			"error":       err,
		})
	default:
		return Document{}, err
	}

	if err := s.Repo.Put(ctx, doc); err != nil {
		return Document{}, err
	}
	metrics.IncDocumentsUploaded()
	telemetry.Info("document.uploaded", map[string]any{
		"session_id":  sessionID,
		"document_id": doc.ID,
		"size_bytes":  doc.SizeBytes,
		"digest":      doc.Digest,
		"text_chars":  len(doc.Text),
		"has_text":    doc.HasText(),
	})
	return doc, nil
}

// Current returns the session's document.
func (s *Service) Current(ctx context.Context, sessionID string) (Document, error) {
	if sessionID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.Current(ctx, sessionID)
}

// Discard removes the session's document.
func (s *Service) Discard(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}
	return s.Repo.Delete(ctx, sessionID)
}

func (s *Service) read(r io.Reader) ([]byte, error) {
	if s.MaxUploadBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.MaxUploadBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
