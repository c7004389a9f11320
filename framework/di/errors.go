package di

import (
	"errors"
	"strconv"
	"strings"
)

// ── Sentinels ─────────────────────────────────────────────────────────────────

var (
	// ErrUnknownType is returned when a type identifier has no metadata in the repository.
	ErrUnknownType = errors.New("di: unknown type")

	// ErrUnresolvableType is returned when a type has no concrete candidate.
	ErrUnresolvableType = errors.New("di: no implementation")

	// ErrAmbiguousType is returned when several candidates reach the root with no preference.
	ErrAmbiguousType = errors.New("di: ambiguous type")

	// ErrUnboundVariable is returned when an untyped parameter has no binding in the tree.
	ErrUnboundVariable = errors.New("di: unbound variable")

	// ErrCircularDependency is returned when a class re-enters the active nesting path.
	ErrCircularDependency = errors.New("di: circular dependency")

	// ErrDepthExceeded is returned when the nesting path grows past the container limit.
	ErrDepthExceeded = errors.New("di: resolution depth exceeded")

	// ErrConstruction wraps errors returned by constructors and setters.
	ErrConstruction = errors.New("di: construction failed")

	// ErrTypeMismatch is returned when a resolved value cannot be passed as an argument.
	ErrTypeMismatch = errors.New("di: type mismatch")

	// ErrInvalidConstructor is returned by Register for values that are not constructors.
	ErrInvalidConstructor = errors.New("di: invalid constructor")
)

// ── ResolutionError ───────────────────────────────────────────────────────────

// ResolutionError carries the requested type and the nesting path active when
// a resolution failed.
type ResolutionError struct {
	Op         string   // create, pick, parameter, setter, construct
	Type       string   // requested type identifier
	Param      string   // parameter name, when Op is parameter
	Path       []string // nesting path, innermost first
	Candidates []string // candidates considered, when relevant
	Err        error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("di: ")
	b.WriteString(e.Op)
	if e.Type != "" {
		b.WriteString(" ")
		b.WriteString(strconv.Quote(e.Type))
	}
	if e.Param != "" {
		b.WriteString(" parameter ")
		b.WriteString(strconv.Quote(e.Param))
	}
	if len(e.Candidates) > 0 {
		b.WriteString(" candidates [")
		b.WriteString(strings.Join(e.Candidates, ", "))
		b.WriteString("]")
	}
	if len(e.Path) > 0 {
		b.WriteString(" (path ")
		b.WriteString(strings.Join(e.Path, " <- "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error { return e.Err }

func newError(op, typ string, path *nesting, err error) *ResolutionError {
	return &ResolutionError{Op: op, Type: typ, Path: path.ids(), Err: err}
}
