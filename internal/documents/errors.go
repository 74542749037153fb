package documents

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotPDF       = errors.New("only PDF files are supported")
	ErrTooLarge     = errors.New("file exceeds upload limit")
)
