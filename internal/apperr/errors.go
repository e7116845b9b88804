// Package apperr defines the error taxonomy shared by the storage, resource and API layers.
package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
	ErrReadOnly   = errors.New("read only")
)

// ValidationError reports a payload or schema document that failed validation.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// Is lets errors.Is(err, ErrBadRequest) match validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}

// Message pairs a sentinel with the client-facing text that should accompany it.
type Message struct {
	Kind error
	Text string
}

func (m *Message) Error() string { return m.Text }

func (m *Message) Unwrap() error { return m.Kind }

// WithMessage returns an error that matches kind via errors.Is and renders as text.
func WithMessage(kind error, text string) error {
	return &Message{Kind: kind, Text: text}
}
