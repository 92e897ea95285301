// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package sink

import (
	"fmt"

	"github.com/siemens/mxdig/types"
)

// Formatter renders a matched result into an output line (without newline).
type Formatter func(types.MatchResult) string

// Bare renders only the email address.
func Bare(r types.MatchResult) string {
	return r.Email
}

// Annotated renders the email address together with the matched MX host, in
// the form "email: Valid MX Host (host)".
func Annotated(r types.MatchResult) string {
	return fmt.Sprintf("%s: Valid MX Host (%s)", r.Email, r.MatchedHost)
}
