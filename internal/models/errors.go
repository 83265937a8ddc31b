package models

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the classifier error taxonomy. The kinds are
// orthogonal: adapters raise exactly one, services re-raise without wrapping.
type ErrorKind string

// Error kinds.
const (
	KindConfiguration  ErrorKind = "configuration"
	KindAuthentication ErrorKind = "authentication"
	KindEmbedding      ErrorKind = "embedding"
	KindLLM            ErrorKind = "llm"
	KindDatabase       ErrorKind = "database"
	KindRetrieval      ErrorKind = "retrieval"
	KindRerank         ErrorKind = "rerank"
)

// ClassifierError is the single root of the error taxonomy. It exists for
// broad catch-alls at interface boundaries; callers branch on Kind.
type ClassifierError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *ClassifierError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ClassifierError) Unwrap() error { return e.Err }

// NewError builds a ClassifierError wrapping an optional cause.
func NewError(kind ErrorKind, err error, format string, args ...any) *ClassifierError {
	return &ClassifierError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ConfigErrorf reports invalid settings or request parameters.
func ConfigErrorf(format string, args ...any) error {
	return NewError(KindConfiguration, nil, format, args...)
}

// AuthError reports missing, expired, or rejected credentials.
func AuthError(err error, format string, args ...any) error {
	return NewError(KindAuthentication, err, format, args...)
}

// EmbeddingError reports an embedding provider failure after retries.
func EmbeddingError(err error, format string, args ...any) error {
	return NewError(KindEmbedding, err, format, args...)
}

// LLMError reports an LLM provider failure after retries. It is never used
// for empty-but-valid responses.
func LLMError(err error, format string, args ...any) error {
	return NewError(KindLLM, err, format, args...)
}

// DatabaseError reports a datastore transport or query failure.
func DatabaseError(err error, format string, args ...any) error {
	return NewError(KindDatabase, err, format, args...)
}

// RetrievalError reports a Stage 1 logical failure: one search stream down
// while the other is up, or an empty hydrate.
func RetrievalError(err error, format string, args ...any) error {
	return NewError(KindRetrieval, err, format, args...)
}

// RerankError reports a Stage 2 logical failure (parsed but unusable).
func RerankError(err error, format string, args ...any) error {
	return NewError(KindRerank, err, format, args...)
}

// KindOf returns the taxonomy kind of err, or "" if err is not a
// ClassifierError.
func KindOf(err error) ErrorKind {
	var ce *ClassifierError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	return ""
}

// IsKind reports whether err carries the given taxonomy kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
