package analyses

import (
	"encoding/json"
	"errors"
)

var (
	ErrNoDocument = errors.New("upload a PDF document first")
	ErrNoText     = errors.New("the uploaded document has no extractable text")
)

// AuthFailure reports that no bearer token could be obtained.
type AuthFailure struct {
	Err error
}

func (e *AuthFailure) Error() string {
	return "Failed to get IAM token: " + e.Err.Error()
}

func (e *AuthFailure) Unwrap() error {
	return e.Err
}

// InferenceFailure carries the error message returned by the inference client.
type InferenceFailure struct {
	Message string
}

func (e *InferenceFailure) Error() string {
	return e.Message
}

// ShapeError reports a success response that cannot be interpreted.
type ShapeError struct {
	Err error
	Raw json.RawMessage
}

func (e *ShapeError) Error() string {
	return "Error processing response: " + e.Err.Error()
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

// FailureReason classifies err for metrics and API error codes.
func FailureReason(err error) string {
	var authErr *AuthFailure
	var shapeErr *ShapeError
	var inferErr *InferenceFailure
	switch {
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &shapeErr):
		return "response_shape"
	case errors.As(err, &inferErr):
		return "inference"
	case errors.Is(err, ErrNoDocument), errors.Is(err, ErrNoText):
		return "document"
	default:
		return "internal"
	}
}
