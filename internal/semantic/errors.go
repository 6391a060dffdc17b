package semantic

import (
	"errors"
	"fmt"
)

// Structural error sentinels. A structural error means the build description
// cannot be analyzed at all; no partial suggestions are produced for it.
var (
	// ErrUnknownStageReference is returned when COPY --from names a stage
	// that is not declared earlier in the build description (unknown,
	// forward, or self reference).
	ErrUnknownStageReference = errors.New("unknown stage reference")

	// ErrDuplicateStageName is returned when two stages share an alias.
	ErrDuplicateStageName = errors.New("duplicate stage name")

	// ErrMalformedInstruction is returned when the build description does
	// not parse into valid instructions.
	ErrMalformedInstruction = errors.New("malformed instruction")
)

// StructuralError describes an unrecoverable defect in a build description,
// including the offending location. It wraps one of the sentinel errors
// above so callers can match with errors.Is.
type StructuralError struct {
	// Err is the sentinel classifying the defect.
	Err error

	// Detail names the offending reference or instruction.
	Detail string

	// Location is where the defect was found.
	Location Location
}

func (e *StructuralError) Error() string {
	loc := e.Location.File
	if !e.Location.IsFileLevel() {
		loc = fmt.Sprintf("%s:%d", e.Location.File, e.Location.Start.Line)
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", loc, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", loc, e.Err, e.Detail)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// newStructuralError builds a StructuralError wrapping the given sentinel.
func newStructuralError(err error, detail string, loc Location) *StructuralError {
	return &StructuralError{Err: err, Detail: detail, Location: loc}
}

// WrapMalformed classifies a parse failure as a malformed-instruction
// structural error at file level.
func WrapMalformed(file string, err error) *StructuralError {
	return &StructuralError{
		Err:      ErrMalformedInstruction,
		Detail:   err.Error(),
		Location: NewFileLocation(file),
	}
}
