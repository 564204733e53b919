package domain

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a referenced record does not resolve.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError is returned on unique-constraint violations, such as a
// duplicate registration number within a round.
type ConflictError struct {
	Entity EntityType
	Detail string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Detail)
}

// InvalidTransitionError is returned when a caller requests an
// unrecognised candidate status.
type InvalidTransitionError struct {
	Status CandidateStatus
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid candidate status %q", e.Status)
}

// IncompleteScoringError is returned when promotion is attempted before
// the configured minimum number of judges have scored the candidate. It
// is a rejected precondition, not a server fault.
type IncompleteScoringError struct {
	CandidateID string
	JudgesCount int
	Required    int
}

func (e IncompleteScoringError) Error() string {
	return fmt.Sprintf("candidate %s scored by %d of %d required judges", e.CandidateID, e.JudgesCount, e.Required)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err wraps a ConflictError.
func IsConflict(err error) bool {
	var c ConflictError
	return errors.As(err, &c)
}

// IsInvalidTransition reports whether err wraps an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var it InvalidTransitionError
	return errors.As(err, &it)
}

// IsIncompleteScoring reports whether err wraps an IncompleteScoringError.
func IsIncompleteScoring(err error) bool {
	var is IncompleteScoringError
	return errors.As(err, &is)
}
