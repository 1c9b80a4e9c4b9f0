// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

type (
	// ActionableError reports a failure the caller can fix: the operation
	// that was attempted, the input it was attempted on, and what to try
	// next. The command layer exits with a usage code for these errors.
	//
	// Build one with ErrorContext:
	//
	//	return issue.NewErrorContext().
	//		WithOperation("parse --value").
	//		WithResource(raw).
	//		WithIssue(issue.InvalidInputId).
	//		WithSuggestion(`Pass a JSON object, for example '{"motd": "hi"}'`).
	//		Wrap(err).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "parse --value".
		Operation string
		// Resource names the flag value, file or kind involved.
		Resource string
		// Suggestions are shown one per line below the headline.
		Suggestions []string
		// Cause is the error that triggered the failure.
		Cause error
		// IssueId selects the catalog entry rendered with --verbose.
		IssueId Id
	}

	// ErrorContext collects the parts of an ActionableError. Build copies
	// what was collected, so one context may produce several errors.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext returns an empty ErrorContext.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error returns "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the headline followed by the suggestions. With verbose set
// the causes are listed outermost first under "Error chain:".
func (e *ActionableError) Format(verbose bool) string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		sb.WriteByte('\n')
	}
	for _, s := range e.Suggestions {
		fmt.Fprintf(&sb, "\n  • %s", s)
	}

	if verbose && e.Cause != nil {
		sb.WriteString("\n\nError chain:")
		for depth, cause := 1, e.Cause; cause != nil; depth, cause = depth+1, errors.Unwrap(cause) {
			fmt.Fprintf(&sb, "\n  %d. %s", depth, cause.Error())
		}
	}
	return sb.String()
}

// Issue returns the attached catalog entry, or nil.
func (e *ActionableError) Issue() *Issue {
	return Get(e.IssueId)
}

func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

// WithSuggestion appends a suggestion; suggestions keep their call order.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sug)
	return c
}

func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.err.IssueId = id
	return c
}

func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns the collected error, or nil when no operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.err.Operation == "" {
		return nil
	}
	out := c.err
	out.Suggestions = slices.Clone(c.err.Suggestions)
	return &out
}

// BuildError is Build returning a plain error, so a context without an
// operation yields a nil error rather than a typed nil.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
