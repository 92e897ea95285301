// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/siemens/mxdig/types"

	"github.com/miekg/dns"
)

// ErrTruncated is the cause of a [types.ResolutionError] for an answer that
// had its truncation bit set, so its answer section cannot be trusted.
var ErrTruncated = errors.New("truncated answer")

// QueryMX queries the MX records of the specified domain using the given DNS
// client over the given connection. It returns the MX hosts without trailing
// root label dots, ordered by ascending preference; hosts with the same
// preference keep the order of the DNS answer.
//
// If the domain doesn't exist or has no MX records (including a lone “null
// MX”), QueryMX returns a [types.NoRecordsError]. All other failures, such as
// timeouts, network errors and server failures, as well as a done context,
// result in a [types.ResolutionError]. This includes truncated answers, which
// never count as "no records". QueryMX never retries; see [DnsPool.QueryMX]
// for re-dialing broken connections and falling back to TCP.
func QueryMX(ctx context.Context, dnsclnt *dns.Client, conn *dns.Conn, domain string) ([]string, error) {
	// don't try to resolve the domain if the context has been cancelled.
	select {
	case <-ctx.Done():
		return nil, &types.ResolutionError{Domain: domain, Cause: ctx.Err()}
	default:
	}

	msg := dns.Msg{
		MsgHdr: dns.MsgHdr{Id: dns.Id()},
	}
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.SetEdns0(4096, false)
	r, _, err := dnsclnt.ExchangeWithConn(&msg, conn)
	if err != nil {
		return nil, &types.ResolutionError{Domain: domain, Cause: err}
	}
	if r.Truncated {
		return nil, &types.ResolutionError{Domain: domain, Cause: ErrTruncated}
	}
	switch r.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, &types.NoRecordsError{Domain: domain, NXDomain: true}
	default:
		return nil, &types.ResolutionError{
			Domain: domain,
			Cause:  fmt.Errorf("server answered %s", rcodeName(r.Rcode)),
		}
	}

	mxs := make([]*dns.MX, 0, len(r.Answer))
	for _, rr := range r.Answer {
		mx, ok := rr.(*dns.MX)
		if !ok || mx.Mx == "." || mx.Mx == "" {
			continue // CNAMEs and null MX.
		}
		mxs = append(mxs, mx)
	}
	if len(mxs) == 0 {
		return nil, &types.NoRecordsError{Domain: domain}
	}
	sort.SliceStable(mxs, func(a, b int) bool {
		return mxs[a].Preference < mxs[b].Preference
	})
	hosts := make([]string, 0, len(mxs))
	for _, mx := range mxs {
		hosts = append(hosts, strings.TrimSuffix(mx.Mx, "."))
	}
	return hosts, nil
}

func rcodeName(rcode int) string {
	if name, ok := dns.RcodeToString[rcode]; ok {
		return name
	}
	return fmt.Sprintf("rcode %d", rcode)
}
