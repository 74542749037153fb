package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID   string    `json:"documentId"`
	FileName     string    `json:"fileName"`
	SizeBytes    int64     `json:"sizeBytes"`
	Digest       string    `json:"sha256"`
	Text         string    `json:"text"`
	HasText      bool      `json:"hasText"`
	ExtractError string    `json:"extractError,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:   doc.ID,
		FileName:     doc.FileName,
		SizeBytes:    doc.SizeBytes,
		Digest:       doc.Digest,
		Text:         doc.Text,
		HasText:      doc.HasText(),
		ExtractError: doc.ExtractError,
		UploadedAt:   doc.CreatedAt,
	}
}
