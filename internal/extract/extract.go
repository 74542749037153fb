package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction marks payloads that cannot be parsed as a PDF at all.
var ErrExtraction = errors.New("pdf extraction failed")

// PDFText returns the plain text of every page joined by newlines.
// Pages whose text cannot be read are skipped; an unreadable document
// yields an error wrapping ErrExtraction.
func PDFText(ctx context.Context, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrExtraction)
	}

	// The pdf package panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrExtraction, rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		txt, ok := pageText(reader.Page(i))
		if !ok {
			continue
		}
		pages = append(pages, txt)
	}

	return strings.TrimSpace(strings.Join(pages, "\n")), nil
}

func pageText(page pdf.Page) (string, bool) {
	if page.V.IsNull() {
		return "", false
	}
	raw, err := page.GetPlainText(nil)
	if err != nil {
		return "", false
	}
	// The reader emits a newline for every BT operator, so leading
	// whitespace is layout noise rather than page content.
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}
