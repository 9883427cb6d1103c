package interval

import (
	"errors"
	"fmt"
	"strings"
)

type Reason string

const (
	ReasonMissingField    Reason = "MissingField"
	ReasonNotANumber      Reason = "NotANumber"
	ReasonFromNotBeforeTo Reason = "FromNotLessThanTo"
	ReasonFromNegative    Reason = "FromNegative"
	ReasonToAboveMax      Reason = "ToExceedsUpperBound"
	ReasonToBelowOne      Reason = "ToBelowOne"
)

// ValidationError describes one failed check of one candidate.
type ValidationError struct {
	Index   int      `json:"index"`
	Reason  Reason   `json:"reason"`
	Fields  []string `json:"fields"`
	Message string   `json:"message"`
	Value   any      `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Range at index %d: %s", e.Index, e.Message)
}

// ValidationErrors is the ordered list of every failed check of an operation.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "\n")
}

// Indexes returns the candidate index of every error, in order.
func (e ValidationErrors) Indexes() []int {
	idx := make([]int, 0, len(e))
	for _, err := range e {
		idx = append(idx, err.Index)
	}
	return idx
}

var (
	ErrNotSequence = errors.New("Invalid file format. Expected an array of ranges.")
	ErrEmpty       = errors.New("File contains no ranges.")
)

// StructuralError is returned when a payload does not have the shape of a
// non-empty sequence of ranges.
type StructuralError struct {
	Err error
}

func (e *StructuralError) Error() string  { return e.Err.Error() }
func (e *StructuralError) Unwrap() error { return e.Err }

// ParseError is returned when raw input cannot be decoded at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string  { return fmt.Sprintf("Error parsing JSON file: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }
