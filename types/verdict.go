// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Verdict indicates the outcome of checking an email address' MX hosts
// against a match rule, such as matched, unmatched, et cetera.
type Verdict int

// The verdicts of an email address.
const (
	Pending   Verdict = iota // address not yet checked.
	Matched                  // an MX host of the address' domain satisfies the rule.
	Unmatched                // MX hosts resolved, but none satisfies the rule.
	NoRecords                // domain doesn't exist or has no MX records.
	Malformed                // address lacks a domain part.
	Failed                   // MX resolution failed.
)

// String returns the clear-text representation of a Verdict value.
func (v Verdict) String() string {
	switch v {
	case Pending:
		return "pending"
	case Matched:
		return "matched"
	case Unmatched:
		return "unmatched"
	case NoRecords:
		return "no records"
	case Malformed:
		return "malformed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Verdict(%d)", v)
}

// IsFinal returns true if an address has been checked, regardless of the
// outcome.
func (v Verdict) IsFinal() bool {
	return v != Pending
}
