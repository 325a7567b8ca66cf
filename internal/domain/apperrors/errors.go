package apperrors

import (
	"errors"
	"net/http"
)

// Error kinds surfaced by the chat pipeline. Components wrap the underlying
// cause with one of these so callers can branch with errors.Is.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrEmbeddingProvider = errors.New("embedding provider error")
	ErrVectorIndex       = errors.New("vector index error")
	ErrLLMProvider       = errors.New("llm provider error")
	ErrInvalidRequest    = errors.New("invalid request")
)

// Vector index specifics. Each one is also an ErrVectorIndex.
var (
	ErrCollectionNotFound error = &indexError{msg: "collection not found"}
	ErrDimensionMismatch  error = &indexError{msg: "vector dimension mismatch"}
	ErrIDCollision        error = &indexError{msg: "collection is not empty, rebuild it before upserting sequential ids"}
)

type indexError struct {
	msg string
}

func (e *indexError) Error() string { return e.msg }

func (e *indexError) Is(target error) bool { return target == ErrVectorIndex }

// HTTPStatus maps an error to the status code the HTTP surface answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
