// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"errors"
	"io"
	"net"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/thediveo/lxkns/log"
	"golang.org/x/sync/singleflight"
)

// mxCache remembers the outcomes of MX lookups per domain, so that
// unnecessary duplicate lookups can be avoided. Concurrent lookups for the
// same domain are collapsed into a single lookup, with its outcome
// distributed at once to all waiting lookups.
type mxCache struct {
	outcomes *lru.Cache[string, mxOutcome] // domain -> lookup outcome
	inflight singleflight.Group
}

// mxOutcome is what an MX lookup finally told us. The hosts slice is shared
// and thus must never be modified.
type mxOutcome struct {
	hosts []string
	err   error
}

func newMXCache(size int) (*mxCache, error) {
	outcomes, err := lru.New[string, mxOutcome](size)
	if err != nil {
		return nil, err
	}
	return &mxCache{outcomes: outcomes}, nil
}

// Resolve returns the cached outcome for the specified domain, or otherwise
// runs the specified lookup function, unless another lookup for the same
// domain is already in flight. In this case, Resolve waits for the in-flight
// lookup and returns its outcome.
//
// Lookups that failed due to a done context, a timeout or a broken
// connection are never cached, as the next lookup might well succeed.
func (c *mxCache) Resolve(domain string, lookup func() ([]string, error)) ([]string, error) {
	if outcome, ok := c.outcomes.Get(domain); ok {
		log.Debugf("memoized MX lookup for %s", domain)
		return outcome.hosts, outcome.err
	}
	v, _, _ := c.inflight.Do(domain, func() (interface{}, error) {
		// We might have lost a race against a just finished lookup...
		if outcome, ok := c.outcomes.Get(domain); ok {
			return outcome, nil
		}
		hosts, err := lookup()
		outcome := mxOutcome{hosts: hosts, err: err}
		if !transient(err) {
			c.outcomes.Add(domain, outcome)
		}
		return outcome, nil
	})
	outcome := v.(mxOutcome)
	return outcome.hosts, outcome.err
}

// transient returns true for lookup errors that should not stick.
func transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}
	var neterr net.Error
	return errors.As(err, &neterr) && neterr.Timeout()
}
