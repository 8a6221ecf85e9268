package document

import (
	"errors"
	"fmt"
)

type RenderErrorKind int

const (
	// EmptyContent means there was nothing to lay out.
	EmptyContent RenderErrorKind = iota + 1
	// Internal covers layout failures, including recovered panics.
	Internal
	// EmptyOutput is raised by callers when a written artifact has zero bytes.
	EmptyOutput
)

func (k RenderErrorKind) String() string {
	switch k {
	case EmptyContent:
		return "empty_content"
	case Internal:
		return "internal"
	case EmptyOutput:
		return "empty_output"
	default:
		return "unknown"
	}
}

type RenderError struct {
	Kind RenderErrorKind
	Err  error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("render: %s", e.Kind)
	}
	return fmt.Sprintf("render: %s: %v", e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func NewRenderError(kind RenderErrorKind, err error) *RenderError {
	return &RenderError{Kind: kind, Err: err}
}

// IsKind reports whether err carries a RenderError of the given kind.
func IsKind(err error, kind RenderErrorKind) bool {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}
