// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

// MatchResult is the final outcome of checking a single email address. Each
// email address checked produces exactly one MatchResult.
//
// MatchResults are passed around by value through channels and must be
// treated as immutable; in particular, Hosts might be shared between multiple
// results for the same domain when memoization is enabled.
type MatchResult struct {
	Email       string   `json:"email"`                 // email address as read from the input, unmodified.
	Domain      string   `json:"domain,omitempty"`      // domain as queried, lowercased and in ASCII form.
	Verdict     Verdict  `json:"verdict"`               // outcome of the check.
	MatchedHost string   `json:"matchedHost,omitempty"` // first MX host in priority order satisfying the rule.
	Hosts       []string `json:"hosts,omitempty"`       // MX hosts in priority order, if resolved.
	Err         error    `json:"-"`                     // optional error details for non-matches.
}

// Matched returns true if the email address passed the match rule.
func (r MatchResult) Matched() bool {
	return r.Verdict == Matched
}
