package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoQuestions is returned when well-formed input yields no questions.
var ErrNoQuestions = errors.New("no valid questions found")

// Issue is one rejected row or entry.
type Issue struct {
	Label   string // "Row" for tabular input, "Question" for nested entries
	Number  int    // 1-based row line or entry number
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %d: %s", i.Label, i.Number, i.Message)
}

// ValidationError reports every rejected row or entry, in input order.
// Any issue rejects the whole batch.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message listing every issue.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, issue.String())
	}
	return "question validation failed: " + strings.Join(parts, "; ")
}

// First returns the issue shown to the user.
func (err *ValidationError) First() Issue {
	if err == nil || len(err.Issues) == 0 {
		return Issue{}
	}
	return err.Issues[0]
}

// MalformedError reports input that could not be read as the declared format at all.
type MalformedError struct {
	Format Format
	Err    error
}

func (err *MalformedError) Error() string {
	return fmt.Sprintf("parse %s: %v", err.Format, err.Err)
}

func (err *MalformedError) Unwrap() error {
	return err.Err
}

type issueCollector struct {
	label  string
	issues []Issue
}

func (c *issueCollector) add(number int, format string, args ...any) {
	c.issues = append(c.issues, Issue{Label: c.label, Number: number, Message: fmt.Sprintf(format, args...)})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}
