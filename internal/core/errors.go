package core

import (
	"errors"
	"strings"
)

var ErrNotFound = errors.New("not found")

// ValidationError is a caller-fixable rule violation on a write payload.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MissingRatesMessage is the caller-facing summary of a ConversionGapError.
const MissingRatesMessage = "Missing exchange rate data for one or more transactions."

// ConversionGapError rejects a report because some transactions in its
// window have no applicable exchange rate.
type ConversionGapError struct {
	Missing []string
}

func (e *ConversionGapError) Error() string {
	return "missing exchange rates: " + strings.Join(e.Missing, ", ")
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConversionGap(err error) bool {
	var ge *ConversionGapError
	return errors.As(err, &ge)
}
