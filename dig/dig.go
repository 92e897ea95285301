// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/siemens/mxdig/dnsworker"
	"github.com/siemens/mxdig/mailaddr"
	"github.com/siemens/mxdig/match"
	"github.com/siemens/mxdig/types"

	"github.com/miekg/dns"
)

// DefaultTimeout is the default timeout for a single MX query.
const DefaultTimeout = 5 * time.Second

// Digger digs the MX hosts of the domains of email addresses, checks them
// against a [match.Rule], and then streams its verdicts over its “news”
// channel.
type Digger struct {
	workers     *dnsworker.DnsPool
	rule        match.Rule
	primaryOnly bool
	cache       *mxCache
	news        chan types.MatchResult
	stopOnce    sync.Once

	// only used while creating a new Digger.
	netnsref string
	memoize  int
	dnsclnt  dns.Client
}

// DiggerOption can be passed to New when creating new [Digger] objects.
type DiggerOption func(*Digger)

// New returns a new Digger with a maximum worker pool of the specified size,
// querying the DNS resolver at the specified address (such as
// "127.0.0.1:53"), as well as a “news stream”. This news channel sends
// exactly one [types.MatchResult] for each email address dug, in order of
// completion; it is closed by [Digger.StopWait] after all results have been
// sent.
//
// Consumers must keep reading from the news channel until it gets closed,
// even when cancelling digging; otherwise the workers will block.
func New(size int, resolver string, rule match.Rule, options ...DiggerOption) (*Digger, <-chan types.MatchResult, error) {
	if size < 1 {
		return nil, nil, fmt.Errorf("worker pool size must be at least 1, got %d", size)
	}
	if rule == nil {
		return nil, nil, errors.New("missing match rule")
	}
	d := &Digger{
		rule: rule,
		dnsclnt: dns.Client{
			Net:     "udp",
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range options {
		opt(d)
	}
	if d.memoize > 0 {
		cache, err := newMXCache(d.memoize)
		if err != nil {
			return nil, nil, err
		}
		d.cache = cache
	}
	workers, err := dnsworker.New(
		context.Background(), // ...only used for dialing.
		size,
		&d.dnsclnt, resolver,
		dnsworker.InNetworkNamespace(d.netnsref))
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create DNS worker pool for resolver %s: %w", resolver, err)
	}
	d.workers = workers
	d.news = make(chan types.MatchResult, size)
	return d, d.news, nil
}

// InNetworkNamespace queries the DNS resolver from inside the network
// namespace referenced by the specified filesystem path, such as
// "/proc/666/ns/net". An empty path means the current network namespace.
func InNetworkNamespace(netnsref string) DiggerOption {
	return func(d *Digger) {
		d.netnsref = netnsref
	}
}

// WithTimeout sets the timeout for individual MX queries.
func WithTimeout(timeout time.Duration) DiggerOption {
	return func(d *Digger) {
		d.dnsclnt.Timeout = timeout
	}
}

// OverTCP queries the DNS resolver over TCP instead of UDP.
func OverTCP() DiggerOption {
	return func(d *Digger) {
		d.dnsclnt.Net = "tcp"
	}
}

// WithMemoization remembers the MX lookup outcomes of up to the specified
// number of domains for the lifetime of the Digger, so that email addresses
// sharing the same domain cause only a single MX query. A size of zero
// disables memoization, which is the default.
//
// Server failures such as SERVFAIL are remembered like any other outcome;
// timeouts, broken connections and cancellations are not.
func WithMemoization(size int) DiggerOption {
	return func(d *Digger) {
		d.memoize = size
	}
}

// PrimaryOnly checks only the highest priority MX host of a domain against
// the match rule, instead of all MX hosts.
func PrimaryOnly() DiggerOption {
	return func(d *Digger) {
		d.primaryOnly = true
	}
}

// DigEmails digs the MX hosts of the given email addresses and checks them.
// Results are getting sent to the channel returned beforehand by New, in
// order of completion. DigEmails only enqueues the MX lookups, except for
// malformed addresses, for which it sends the results itself; so it might
// block until the consumer catches up.
//
// When the context gets cancelled, enqueued addresses are not queried
// anymore, but still produce (failed) results.
func (d *Digger) DigEmails(ctx context.Context, emails []string) {
	for _, email := range emails {
		email := email
		domain, err := mailaddr.Domain(email)
		if err != nil {
			d.news <- types.MatchResult{
				Email:   email,
				Verdict: types.Malformed,
				Err:     err,
			}
			continue
		}
		d.workers.Submit(func(conn *dns.Conn) {
			d.news <- d.check(ctx, conn, email, domain)
		})
	}
}

// check looks up the MX hosts of the specified domain and then checks them
// against the rule. Panics are turned into failed results, so they never
// affect other email addresses being checked.
func (d *Digger) check(ctx context.Context, conn *dns.Conn, email string, domain string) (result types.MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			result = types.MatchResult{
				Email:   email,
				Domain:  domain,
				Verdict: types.Failed,
				Err:     fmt.Errorf("checking %s panicked: %v", email, r),
			}
		}
	}()
	result = types.MatchResult{
		Email:  email,
		Domain: domain,
	}
	hosts, err := d.lookup(ctx, conn, domain)
	if err != nil {
		result.Err = err
		if errors.Is(err, types.ErrNoRecords) {
			result.Verdict = types.NoRecords
		} else {
			result.Verdict = types.Failed
		}
		return
	}
	result.Hosts = hosts
	if d.primaryOnly {
		hosts = match.Primary(hosts)
	}
	if matched, host := match.Evaluate(hosts, d.rule); matched {
		result.Verdict = types.Matched
		result.MatchedHost = host
		return
	}
	result.Verdict = types.Unmatched
	return
}

// lookup the MX hosts of a domain, consulting the memoization cache first if
// enabled.
func (d *Digger) lookup(ctx context.Context, conn *dns.Conn, domain string) ([]string, error) {
	query := func() ([]string, error) {
		return d.workers.QueryMX(ctx, conn, domain)
	}
	if d.cache == nil {
		return query()
	}
	return d.cache.Resolve(domain, query)
}

// StopWait waits for all queued tasks to get processed and then finally closes
// the news channel.
func (d *Digger) StopWait() {
	d.stopOnce.Do(func() {
		d.workers.StopWait()
		close(d.news)
	})
}
