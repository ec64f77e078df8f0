package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSymbol marks a ticker that fails shape validation.
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrUnknownSymbol is returned by providers for tickers they do not cover.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrFactorUnavailable marks a rule input the snapshot does not carry.
	ErrFactorUnavailable = errors.New("factor unavailable")
)

// InsufficientDataError means an indicator needs more history than was supplied.
type InsufficientDataError struct {
	Indicator string
	Required  int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d bars, have %d", e.Indicator, e.Required, e.Available)
}

// DataUnavailableError is surfaced to callers when no usable snapshot could be obtained.
type DataUnavailableError struct {
	Symbol string
	Reason string
	Err    error
}

func NewDataUnavailable(symbol, reason string, err error) *DataUnavailableError {
	return &DataUnavailableError{Symbol: symbol, Reason: reason, Err: err}
}

func (e *DataUnavailableError) Error() string {
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	return fmt.Sprintf("analysis unavailable for %s: %s", e.Symbol, reason)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// ClassificationAmbiguousError describes a sector hint that did not resolve to
// exactly one profile. It is informational: the classifier still returns Generic.
type ClassificationAmbiguousError struct {
	Symbol     string
	Hint       string
	Candidates []Industry
}

func (e *ClassificationAmbiguousError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("classification ambiguous for %s: hint %q matched no profile", e.Symbol, e.Hint)
	}
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.String()
	}
	return fmt.Sprintf("classification ambiguous for %s: hint %q matched %s", e.Symbol, e.Hint, strings.Join(names, ", "))
}

// IsSkippable reports whether err means a rule input is simply not computable.
func IsSkippable(err error) bool {
	var ide *InsufficientDataError
	return errors.As(err, &ide) || errors.Is(err, ErrFactorUnavailable)
}
