// Package errors provides custom error types for the overload system.
// These errors enable programmatic error checking and carry the offending
// identifiers all the way to the caller, as required for batch processing
// failures that operators need to act on.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the overload system
var (
	// ErrVendorInfoRequired indicates a cataloging record arrived without
	// identified vendor info (matchpoints cannot be derived)
	ErrVendorInfoRequired = errors.New("vendor info required for cataloging workflow")

	// ErrMatchpointsRequired indicates an acquisitions or selection batch
	// was started without matchpoints from its order template
	ErrMatchpointsRequired = errors.New("matchpoints from order template required for selection or acquisitions workflow")

	// ErrTemplateRequired indicates an acquisitions or selection batch was
	// started without order template data
	ErrTemplateRequired = errors.New("order template required for acquisitions or selection workflow")

	// ErrUnsupportedMatchpoint indicates a matchpoint the candidate source
	// cannot query by; this is a programmer error, not a data error
	ErrUnsupportedMatchpoint = errors.New("unsupported matchpoint")

	// ErrNoAnalyzer indicates no decision analyzer exists for a
	// workflow/library/collection combination
	ErrNoAnalyzer = errors.New("no analyzer for processing context")

	// ErrIntegrity indicates a data integrity violation that aborts the batch
	ErrIntegrity = errors.New("data integrity violation")

	// ErrLookup indicates a candidate lookup against the catalog backend failed
	ErrLookup = errors.New("catalog lookup failed")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")
)

// PreconditionError reports a batch or record that cannot be processed
// because required configuration is missing. It aborts the record.
type PreconditionError struct {
	Resource string // identifier of the offending record or batch
	Err      error  // one of the precondition sentinels
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%v (resource %s)", e.Err, e.Resource)
	}
	return e.Err.Error()
}

// Unwrap implements errors.Unwrap
func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// NewPreconditionError creates a new PreconditionError
func NewPreconditionError(resource string, err error) *PreconditionError {
	return &PreconditionError{Resource: resource, Err: err}
}

// CallNumberError reports a call-number reconstruction whose re-joined
// tokens do not reproduce the original string. It aborts the batch.
type CallNumberError struct {
	Original    string
	Constructed string
}

// Error implements the error interface
func (e *CallNumberError) Error() string {
	return fmt.Sprintf("constructed call number does not match original: new=%q original=%q",
		e.Constructed, e.Original)
}

// Is implements errors.Is support
func (e *CallNumberError) Is(target error) bool {
	return target == ErrIntegrity
}

// DuplicateBarcodeError reports duplicate item barcodes discovered among
// incoming records before any processing begins. It aborts the batch.
type DuplicateBarcodeError struct {
	Barcodes []string
}

// Error implements the error interface
func (e *DuplicateBarcodeError) Error() string {
	return fmt.Sprintf("duplicate barcodes found in file: %s", strings.Join(e.Barcodes, ", "))
}

// Is implements errors.Is support
func (e *DuplicateBarcodeError) Is(target error) bool {
	return target == ErrIntegrity
}

// LookupError wraps a transport or auth failure from a catalog search
// backend. Retry policy belongs to the caller; the engine never retries.
type LookupError struct {
	Backend    string
	Matchpoint string
	Value      string
	Err        error
}

// Error implements the error interface
func (e *LookupError) Error() string {
	return fmt.Sprintf("%s lookup by %s=%q failed: %v", e.Backend, e.Matchpoint, e.Value, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}

// MatchpointError reports a query by an identifier kind the backend does
// not support.
type MatchpointError struct {
	Matchpoint string
	Available  []string
}

// Error implements the error interface
func (e *MatchpointError) Error() string {
	return fmt.Sprintf("invalid matchpoint %q, available matchpoints are: %s",
		e.Matchpoint, strings.Join(e.Available, ", "))
}

// Is implements errors.Is support
func (e *MatchpointError) Is(target error) bool {
	return target == ErrUnsupportedMatchpoint
}

// Helper functions for error checking

// IsPrecondition checks if an error is a batch/record precondition violation
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrVendorInfoRequired) ||
		errors.Is(err, ErrMatchpointsRequired) ||
		errors.Is(err, ErrTemplateRequired) ||
		errors.Is(err, ErrNoAnalyzer)
}

// IsIntegrity checks if an error is a data integrity violation
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// IsLookup checks if an error is a failed catalog lookup
func IsLookup(err error) bool {
	return errors.Is(err, ErrLookup)
}
