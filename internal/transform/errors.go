package transform

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies why a declaration module could not be transformed.
type Kind int

const (
	KindMissingDefaultExport Kind = iota + 1
	KindDefaultExportNotClass
	KindMissingHeritage
	KindTypeArgumentCount
	KindMissingHelper
	KindMissingHelperMember
)

// Sentinels matched with errors.Is against any *Error of the same kind.
var (
	ErrMissingDefaultExport  = errors.New("no default-exported declaration")
	ErrDefaultExportNotClass = errors.New("default export is not a class")
	ErrMissingHeritage       = errors.New("component class has no extends clause")
	ErrTypeArgumentCount     = errors.New("unexpected base type argument count")
	ErrMissingHelper         = errors.New("prop definition helper variable not found")
	ErrMissingHelperMember   = errors.New("prop definition helper is missing a member")
)

func (k Kind) sentinel() error {
	switch k {
	case KindMissingDefaultExport:
		return ErrMissingDefaultExport
	case KindDefaultExportNotClass:
		return ErrDefaultExportNotClass
	case KindMissingHeritage:
		return ErrMissingHeritage
	case KindTypeArgumentCount:
		return ErrTypeArgumentCount
	case KindMissingHelper:
		return ErrMissingHelper
	case KindMissingHelperMember:
		return ErrMissingHelperMember
	default:
		return errors.New("unknown transform failure")
	}
}

func (k Kind) String() string {
	switch k {
	case KindMissingDefaultExport:
		return "missing-default-export"
	case KindDefaultExportNotClass:
		return "default-export-not-class"
	case KindMissingHeritage:
		return "missing-heritage"
	case KindTypeArgumentCount:
		return "type-argument-count"
	case KindMissingHelper:
		return "missing-helper"
	case KindMissingHelperMember:
		return "missing-helper-member"
	default:
		return "unknown"
	}
}

// Error is a terminal condition of the pass. The source file is left
// unmodified whenever Process returns one.
type Error struct {
	Kind Kind
	// Node describes the offending declaration, e.g. `class "Button"`.
	Node string
}

func (e *Error) Error() string {
	if e.Node == "" {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.sentinel().Error(), e.Node)
}

// Unwrap exposes the kind's sentinel so errors.Is works.
func (e *Error) Unwrap() error {
	return e.Kind.sentinel()
}

// fail builds an *Error wrapped with a user-facing hint.
func fail(kind Kind, node string, hint string) error {
	err := error(&Error{Kind: kind, Node: node})
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return err
}

// KindOf returns the failure kind carried by err, or 0 when err is not a
// transform failure.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
