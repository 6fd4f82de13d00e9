package densim

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction marks malformed density-matrix, operator or channel input.
	ErrConstruction = errors.New("construction error")
	// ErrApplication marks an operator or channel that cannot be applied to the
	// current state: arity mismatch, bad target indices, trace drift.
	ErrApplication = errors.New("application error")
	// ErrNodeReused is returned when a removed node id shows up again.
	ErrNodeReused = errors.New("node id reused after removal")
	// ErrUnknownNode is returned when a command addresses a node that is not live.
	ErrUnknownNode = errors.New("unknown node")
)

/*
ValidationError carries the failing operation and the reason next to one of
the sentinel kinds, so callers can branch with errors.Is and still report
exactly what was wrong.
*/
type ValidationError struct {
	Op     string
	Reason string
	kind   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.kind, e.Op, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.kind
}

func constructionError(op, format string, args ...any) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...), kind: ErrConstruction}
}

func applicationError(op, format string, args ...any) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...), kind: ErrApplication}
}
