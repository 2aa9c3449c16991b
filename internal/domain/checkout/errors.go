package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionLocked        = errors.New("checkout is in review; go back a step to make changes")
	ErrSessionComplete      = errors.New("checkout is already complete")
	ErrConfirmationRequired = errors.New("review completes only by submitting the order")
	ErrNotInReview          = errors.New("order can only be submitted from the review step")
	ErrSubmissionInProgress = errors.New("order submission already in progress")
	ErrTransportFailure     = errors.New("order service unreachable")
	ErrRejected             = errors.New("order rejected")
)

// ValidationError is a refused step advance. Fields names what is missing.
type ValidationError struct {
	Step   Step
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot leave %s step: missing %s", e.Step, strings.Join(e.Fields, ", "))
}

// RejectedError is a server-side refusal of the order. It matches ErrRejected.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "order rejected: " + e.Reason
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}
