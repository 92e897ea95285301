// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package match

import (
	"errors"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrEmptyRule is returned when trying to create a Rule without any targets or
// markers, or with an empty target or marker.
var ErrEmptyRule = errors.New("match rule needs at least one non-empty target or marker")

// Rule decides whether a list of MX hosts qualifies. The hosts must be in
// priority order; Match then returns the first qualifying host.
type Rule interface {
	Match(hosts []string) (host string, ok bool)
	String() string
}

// ExactSet is a Rule that matches MX hosts that are exactly one of a set of
// target hosts. Comparison is case-insensitive and ignores a trailing root
// label dot.
type ExactSet struct {
	targets mapset.Set[string]
}

var _ Rule = (*ExactSet)(nil)

// NewExactSet returns a new ExactSet rule for the specified target hosts.
func NewExactSet(targets ...string) (*ExactSet, error) {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, target := range targets {
		target = normalize(target)
		if target == "" {
			return nil, ErrEmptyRule
		}
		set.Add(target)
	}
	if set.Cardinality() == 0 {
		return nil, ErrEmptyRule
	}
	return &ExactSet{targets: set}, nil
}

// Match returns the first host in the list that is one of the targets.
func (r *ExactSet) Match(hosts []string) (string, bool) {
	for _, host := range hosts {
		if r.targets.Contains(normalize(host)) {
			return host, true
		}
	}
	return "", false
}

// String returns a textual representation of the rule, listing its targets in
// lexicographical order.
func (r *ExactSet) String() string {
	return "exact(" + strings.Join(sorted(r.targets), ", ") + ")"
}

// SubstringAny is a Rule that matches MX hosts containing any of a set of
// marker strings, such as "strato". Comparison is case-insensitive.
type SubstringAny struct {
	markers []string // lowercased, unique, sorted.
}

var _ Rule = (*SubstringAny)(nil)

// NewSubstringAny returns a new SubstringAny rule for the specified markers.
func NewSubstringAny(markers ...string) (*SubstringAny, error) {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, marker := range markers {
		marker = strings.ToLower(marker)
		if marker == "" {
			return nil, ErrEmptyRule
		}
		set.Add(marker)
	}
	if set.Cardinality() == 0 {
		return nil, ErrEmptyRule
	}
	return &SubstringAny{markers: sorted(set)}, nil
}

// Match returns the first host in the list that contains any of the markers.
func (r *SubstringAny) Match(hosts []string) (string, bool) {
	for _, host := range hosts {
		lhost := strings.ToLower(host)
		for _, marker := range r.markers {
			if strings.Contains(lhost, marker) {
				return host, true
			}
		}
	}
	return "", false
}

// String returns a textual representation of the rule, listing its markers in
// lexicographical order.
func (r *SubstringAny) String() string {
	return "contains(" + strings.Join(r.markers, ", ") + ")"
}

// Evaluate the MX hosts of a domain, given in priority order, against the
// specified rule. It returns true together with the first matching host in
// priority order, or false if there is no matching host. An empty or nil list
// of hosts never matches.
func Evaluate(hosts []string, rule Rule) (matched bool, matchedHost string) {
	if len(hosts) == 0 || rule == nil {
		return false, ""
	}
	matchedHost, matched = rule.Match(hosts)
	return
}

// Primary returns only the highest priority host from the specified list of
// MX hosts in priority order, if any.
func Primary(hosts []string) []string {
	if len(hosts) == 0 {
		return hosts
	}
	return hosts[:1]
}

func normalize(host string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
}

func sorted(set mapset.Set[string]) []string {
	s := set.ToSlice()
	sort.Strings(s)
	return s
}
