package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a single problem found in a flow.
type ValidationError struct {
	NodeID string // empty for flow-level problems
	EdgeID string // set for edge problems
	Field  string // payload field, when the problem is in one
	Reason string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	switch {
	case e.EdgeID != "":
		fmt.Fprintf(&b, "edge %q: ", e.EdgeID)
	case e.NodeID != "":
		fmt.Fprintf(&b, "node %q: ", e.NodeID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "field %q: ", e.Field)
	}
	b.WriteString(e.Reason)
	return b.String()
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
