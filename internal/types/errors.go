package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every error that may cross a pipeline stage boundary.
type ErrorKind string

const (
	// KindFetch covers timeouts, connection failures and bad HTTP status codes.
	KindFetch ErrorKind = "fetch"
	// KindExtraction covers empty or unparseable markup.
	KindExtraction ErrorKind = "extraction"
	// KindClustering covers too few usable pages and embedding failures.
	KindClustering ErrorKind = "clustering"
	// KindLowQuality marks a clustering whose silhouette is below threshold. Never fatal.
	KindLowQuality ErrorKind = "low_quality"
	// KindPlanning covers malformed planner input.
	KindPlanning ErrorKind = "planning"
	// KindConfig covers invalid configuration values.
	KindConfig ErrorKind = "config"
)

// FetchReason refines KindFetch errors.
type FetchReason string

const (
	FetchTimeout  FetchReason = "timeout"
	FetchRequest  FetchReason = "request"
	FetchStatus   FetchReason = "status"
	FetchRobots   FetchReason = "robots"
	FetchCritical FetchReason = "critical"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrFetch      = &StageError{Kind: KindFetch}
	ErrExtraction = &StageError{Kind: KindExtraction}
	ErrClustering = &StageError{Kind: KindClustering}
	ErrLowQuality = &StageError{Kind: KindLowQuality}
	ErrPlanning   = &StageError{Kind: KindPlanning}
	ErrConfig     = &StageError{Kind: KindConfig}
)

// StageError is the single error type returned by pipeline stages.
type StageError struct {
	Kind    ErrorKind
	Reason  FetchReason // only set for KindFetch
	URL     string
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	prefix := fmt.Sprintf("%s error", e.Kind)
	if e.Reason != "" {
		prefix = fmt.Sprintf("%s error (%s)", e.Kind, e.Reason)
	}
	if e.URL != "" {
		prefix = fmt.Sprintf("%s for %s", prefix, e.URL)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// Is matches any StageError of the same kind, so errors.Is(err, ErrClustering) works.
func (e *StageError) Is(target error) bool {
	t, ok := target.(*StageError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// NewError builds a StageError of the given kind.
func NewError(kind ErrorKind, message string, cause error) *StageError {
	return &StageError{Kind: kind, Message: message, Cause: cause}
}

// NewFetchError builds a KindFetch error for a URL.
func NewFetchError(reason FetchReason, url, message string, cause error) *StageError {
	return &StageError{Kind: KindFetch, Reason: reason, URL: url, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or "" when err is not a StageError.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
