// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"errors"
	"fmt"
)

// ErrNoRecords is matched by [NoRecordsError] when using errors.Is.
var ErrNoRecords = errors.New("no MX records")

// MalformedAddressError reports an input line that lacks a domain part.
type MalformedAddressError struct {
	Address string
}

func (e *MalformedAddressError) Error() string {
	return fmt.Sprintf("malformed email address %q: missing domain", e.Address)
}

// NoRecordsError reports that a domain either doesn't exist at all (NXDOMAIN)
// or exists but lacks any MX records.
type NoRecordsError struct {
	Domain   string
	NXDomain bool // true if the domain doesn't exist.
}

func (e *NoRecordsError) Error() string {
	if e.NXDomain {
		return fmt.Sprintf("no MX records for %s: no such domain", e.Domain)
	}
	return fmt.Sprintf("no MX records for %s", e.Domain)
}

// Is makes errors.Is(err, ErrNoRecords) work.
func (e *NoRecordsError) Is(target error) bool {
	return target == ErrNoRecords
}

// ResolutionError reports a failed MX lookup, such as a timeout, a server
// failure, or a network error. It is distinct from [NoRecordsError].
type ResolutionError struct {
	Domain string
	Cause  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve MX for %s: %s", e.Domain, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// AppendError reports a failure to append a line to the output destination.
type AppendError struct {
	Path  string
	Cause error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("cannot append to %s: %s", e.Path, e.Cause)
}

func (e *AppendError) Unwrap() error { return e.Cause }
