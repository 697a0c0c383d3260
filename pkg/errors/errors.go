package errors

import (
	"errors"
	"fmt"
)

var (
	ErrQuerySyntax       = errors.New("query syntax error")
	ErrDuplicateDocument = errors.New("duplicate document")
	ErrCacheCorruption   = errors.New("cache entry corrupted")
	ErrConfiguration     = errors.New("invalid configuration")
	ErrInvariant         = errors.New("invariant violation")
)

// Exit codes returned by the retrieval CLI.
const (
	ExitOK            = 0
	ExitInternal      = 1
	ExitConfiguration = 2
	ExitQuerySyntax   = 3
	ExitBuildRejected = 4
)

// QuerySyntaxError reports a malformed boolean query. Token is the offending
// token ("" for an empty query) and Position its 0-based word offset.
type QuerySyntaxError struct {
	Token    string
	Position int
	Reason   string
}

func (e *QuerySyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s: %s", ErrQuerySyntax.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s at %q (position %d)", ErrQuerySyntax.Error(), e.Reason, e.Token, e.Position)
}

func (e *QuerySyntaxError) Unwrap() error {
	return ErrQuerySyntax
}

type DuplicateDocumentError struct {
	DocID string
}

func (e *DuplicateDocumentError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateDocument.Error(), e.DocID)
}

func (e *DuplicateDocumentError) Unwrap() error {
	return ErrDuplicateDocument
}

// CacheCorruptionError never leaves the cache package in practice: stages
// treat it as a miss.
type CacheCorruptionError struct {
	Stage       string
	Fingerprint string
	Err         error
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("%s: stage %s fingerprint %s: %v", ErrCacheCorruption.Error(), e.Stage, e.Fingerprint, e.Err)
}

func (e *CacheCorruptionError) Unwrap() []error {
	return []error{ErrCacheCorruption, e.Err}
}

type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s=%v: %s", ErrConfiguration.Error(), e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func NewConfigurationError(field string, value any, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrQuerySyntax):
		return ExitQuerySyntax
	case errors.Is(err, ErrDuplicateDocument):
		return ExitBuildRejected
	default:
		return ExitInternal
	}
}
