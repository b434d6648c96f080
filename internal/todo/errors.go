package todo

import (
	"errors"
	"fmt"
)

// ErrEmptyText matches every ValidationError through errors.Is.
var ErrEmptyText = errors.New("empty text")

// ValidationKind tells which input was rejected.
type ValidationKind int

const (
	EmptyCreateText ValidationKind = iota + 1
	EmptyEditText
)

func (k ValidationKind) String() string {
	switch k {
	case EmptyCreateText:
		return "EmptyCreateText"
	case EmptyEditText:
		return "EmptyEditText"
	}
	return fmt.Sprintf("ValidationKind(%d)", int(k))
}

// ValidationError is returned by Create and SaveEdit when the trimmed text
// is empty. The store keeps the last one per input in CreateError/EditError.
type ValidationError struct {
	Kind ValidationKind
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptyCreateText:
		return "create: empty text"
	case EmptyEditText:
		return "edit: empty text"
	}
	return "empty text"
}

func (e *ValidationError) Unwrap() error { return ErrEmptyText }

// IsKind reports whether err is a ValidationError of kind k.
func IsKind(err error, k ValidationKind) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == k
}

// ImportError lists why Import refused a document.
type ImportError struct {
	Problems []Problem
}

func (e *ImportError) Error() string {
	if len(e.Problems) == 1 {
		return "import: " + e.Problems[0].String()
	}
	return fmt.Sprintf("import: %s (and %d more problems)", e.Problems[0], len(e.Problems)-1)
}
