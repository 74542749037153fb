package documents

import "time"

// Document is the PDF most recently uploaded in a session.
type Document struct {
	ID        string
	SessionID string
	FileName  string
	SizeBytes int64
	Digest    string
	// Text is the extracted plain text. It is meaningful only when
	// ExtractError is empty.
	Text         string
	ExtractError string
	CreatedAt    time.Time
}

// HasText reports whether extraction succeeded.
func (d Document) HasText() bool {
	return d.ExtractError == ""
}
