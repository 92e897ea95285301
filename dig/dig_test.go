// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"fmt"
	"time"

	"github.com/siemens/mxdig/match"
	"github.com/siemens/mxdig/test/fakedns"
	"github.com/siemens/mxdig/types"

	"github.com/miekg/dns"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// collect all results from the news channel until it gets closed.
func collect(news <-chan types.MatchResult) []types.MatchResult {
	results := []types.MatchResult{}
	for result := range news {
		results = append(results, result)
	}
	return results
}

// dig the specified email addresses to completion.
func dig(ctx context.Context, digger *Digger, news <-chan types.MatchResult, emails []string) []types.MatchResult {
	go func() {
		defer GinkgoRecover()
		digger.DigEmails(ctx, emails)
		digger.StopWait()
	}()
	return collect(news)
}

func matchedEmails(results []types.MatchResult) []string {
	emails := []string{}
	for _, result := range results {
		if result.Matched() {
			emails = append(emails, result.Email)
		}
	}
	return emails
}

var _ = Describe("digging in the (MX) dirt", func() {

	var srv *fakedns.Server
	var exact match.Rule

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).Within(3 * time.Second).ProbeEvery(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
		srv = Successful(fakedns.Start(fakedns.Zone{
			"example.com": {{Pref: 10, Host: "mx.example.com"}},
			"example.org": {
				{Pref: 20, Host: "mx.example.com"},
				{Pref: 10, Host: "smtp.example.org"},
			},
			"strato.example": {{Pref: 5, Host: "mx1.strato-hosting.de"}},
			"nomx.example":   nil,
		}, fakedns.WithRcode("bad-domain-xyz-404.test", dns.RcodeServerFailure)))
		DeferCleanup(srv.Stop)
		exact = Successful(match.NewExactSet("mx.example.com"))
	})

	It("rejects invalid configurations", func() {
		Expect(New(0, srv.Addr, exact)).Error().To(MatchError(ContainSubstring("at least 1")))
		Expect(New(1, srv.Addr, nil)).Error().To(MatchError(ContainSubstring("missing match rule")))
		Expect(New(1, srv.Addr, exact, WithMemoization(-1))).Error().To(HaveOccurred())
	})

	It("filters by exact MX host", NodeTimeout(30*time.Second), func(ctx context.Context) {
		digger, news := Successful2R(New(4, srv.Addr, exact, WithTimeout(2*time.Second)))
		results := dig(ctx, digger, news, []string{"a@example.com", "b@bad-domain-xyz-404.test"})
		Expect(results).To(HaveLen(2))
		Expect(results).To(ContainElements(
			And(
				HaveField("Email", "a@example.com"),
				HaveField("Verdict", types.Matched),
				HaveField("MatchedHost", "mx.example.com"),
			),
			And(
				HaveField("Email", "b@bad-domain-xyz-404.test"),
				HaveField("Verdict", types.Failed),
				HaveField("Err", BeAssignableToTypeOf(&types.ResolutionError{})),
			),
		))
	})

	It("filters by MX host substrings", NodeTimeout(30*time.Second), func(ctx context.Context) {
		rule := Successful(match.NewSubstringAny("strato"))
		digger, news := Successful2R(New(2, srv.Addr, rule))
		results := dig(ctx, digger, news, []string{"Bob@Strato.Example", "alice@example.com"})
		Expect(results).To(ConsistOf(
			And(
				HaveField("Email", "Bob@Strato.Example"),
				HaveField("Domain", "strato.example"),
				HaveField("Verdict", types.Matched),
				HaveField("MatchedHost", "mx1.strato-hosting.de"),
			),
			And(
				HaveField("Email", "alice@example.com"),
				HaveField("Verdict", types.Unmatched),
				HaveField("Hosts", HaveExactElements("mx.example.com")),
			),
		))
	})

	It("produces exactly one result per email address", NodeTimeout(30*time.Second), func(ctx context.Context) {
		emails := []string{
			"a@example.com", "a@example.com", "b@example.org", "c@nomx.example",
			"d@nowhere.example", "e@bad-domain-xyz-404.test", "malformed", "f@",
		}
		digger, news := Successful2R(New(3, srv.Addr, exact))
		results := dig(ctx, digger, news, emails)
		Expect(results).To(HaveLen(len(emails)))
		resultEmails := []string{}
		verdicts := map[types.Verdict]int{}
		for _, result := range results {
			resultEmails = append(resultEmails, result.Email)
			verdicts[result.Verdict]++
			Expect(result.Verdict.IsFinal()).To(BeTrue())
		}
		Expect(resultEmails).To(ConsistOf(emails))
		Expect(verdicts).To(Equal(map[types.Verdict]int{
			types.Matched:   3,
			types.NoRecords: 2,
			types.Failed:    1,
			types.Malformed: 2,
		}))
		Expect(results).To(ContainElement(And(
			HaveField("Email", "b@example.org"),
			HaveField("MatchedHost", "mx.example.com"),
			HaveField("Hosts", HaveExactElements("smtp.example.org", "mx.example.com")),
		)))
	})

	It("digs over TCP", NodeTimeout(30*time.Second), func(ctx context.Context) {
		digger, news := Successful2R(New(2, srv.Addr, exact, OverTCP()))
		results := dig(ctx, digger, news, []string{"a@example.com", "b@example.org", "c@nomx.example"})
		Expect(matchedEmails(results)).To(ConsistOf("a@example.com", "b@example.org"))
	})

	It("keeps digging over TCP after the resolver closed connections", NodeTimeout(60*time.Second), func(ctx context.Context) {
		emails := []string{}
		for i := 0; i < 300; i++ {
			emails = append(emails, fmt.Sprintf("u%d@example.com", i))
		}
		digger, news := Successful2R(New(1, srv.Addr, exact, OverTCP()))
		results := dig(ctx, digger, news, emails)
		Expect(results).To(HaveLen(len(emails)))
		Expect(results).To(HaveEach(HaveField("Verdict", types.Matched)))
	})

	It("checks only the primary MX host", NodeTimeout(30*time.Second), func(ctx context.Context) {
		digger, news := Successful2R(New(1, srv.Addr, exact, PrimaryOnly()))
		results := dig(ctx, digger, news, []string{"a@example.com", "b@example.org"})
		Expect(matchedEmails(results)).To(ConsistOf("a@example.com"))
	})

	It("yields the same matches regardless of the number of workers", NodeTimeout(60*time.Second), func(ctx context.Context) {
		emails := []string{}
		for i := 0; i < 20; i++ {
			emails = append(emails,
				fmt.Sprintf("user%d@example.com", i),
				fmt.Sprintf("user%d@example.org", i),
				fmt.Sprintf("user%d@nomx.example", i))
		}
		digger, news := Successful2R(New(1, srv.Addr, exact))
		sequential := dig(ctx, digger, news, emails)
		digger, news = Successful2R(New(20, srv.Addr, exact))
		concurrent := dig(ctx, digger, news, emails)
		Expect(sequential).To(HaveLen(len(emails)))
		Expect(concurrent).To(HaveLen(len(emails)))
		Expect(matchedEmails(concurrent)).To(ConsistOf(matchedEmails(sequential)))
		Expect(matchedEmails(sequential)).To(HaveLen(40))
	})

	It("limits the number of concurrent MX queries", NodeTimeout(30*time.Second), func(ctx context.Context) {
		slowsrv := Successful(fakedns.Start(fakedns.Zone{
			"example.com": {{Pref: 10, Host: "mx.example.com"}},
		}, fakedns.WithDelay(100*time.Millisecond)))
		defer slowsrv.Stop()
		emails := []string{}
		for i := 0; i < 12; i++ {
			emails = append(emails, fmt.Sprintf("user%d@example.com", i))
		}
		digger, news := Successful2R(New(3, slowsrv.Addr, exact))
		Expect(dig(ctx, digger, news, emails)).To(HaveEach(HaveField("Verdict", types.Matched)))
		Expect(slowsrv.Queries("example.com")).To(Equal(12))
		Expect(slowsrv.MaxInflight()).To(And(BeNumerically(">", 1), BeNumerically("<=", 3)))
	})

	It("re-resolves duplicate domains unless memoizing", NodeTimeout(30*time.Second), func(ctx context.Context) {
		emails := []string{"a@example.com", "b@example.com", "c@EXAMPLE.com", "d@example.org"}
		digger, news := Successful2R(New(2, srv.Addr, exact))
		Expect(dig(ctx, digger, news, emails)).To(HaveLen(4))
		Expect(srv.Queries("example.com")).To(Equal(3))

		digger, news = Successful2R(New(2, srv.Addr, exact, WithMemoization(16)))
		results := dig(ctx, digger, news, emails)
		Expect(matchedEmails(results)).To(ConsistOf(emails))
		Expect(srv.Queries("example.com")).To(Equal(3 + 1))
		Expect(srv.Queries("example.org")).To(Equal(1 + 1))
	})

	It("doesn't query anymore after cancellation, but still reports", NodeTimeout(30*time.Second), func(specctx context.Context) {
		ctx, cancel := context.WithCancel(specctx)
		cancel()
		digger, news := Successful2R(New(2, srv.Addr, exact))
		results := dig(ctx, digger, news, []string{"a@example.com", "b@example.org", "nope"})
		Expect(results).To(HaveLen(3))
		Expect(results).To(ContainElements(
			HaveField("Verdict", types.Malformed),
			And(HaveField("Email", "a@example.com"), HaveField("Err", MatchError(context.Canceled))),
		))
		Expect(srv.Queries("example.com")).To(BeZero())
	})

	It("turns panics into failed results", NodeTimeout(30*time.Second), func(ctx context.Context) {
		digger, news := Successful2R(New(1, srv.Addr, panickingRule{}))
		results := dig(ctx, digger, news, []string{"a@example.com", "b@nomx.example"})
		Expect(results).To(ConsistOf(
			And(
				HaveField("Email", "a@example.com"),
				HaveField("Verdict", types.Failed),
				HaveField("Err", MatchError(ContainSubstring("panicked"))),
			),
			HaveField("Verdict", types.NoRecords),
		))
	})

})

// panickingRule panics whenever matching.
type panickingRule struct{}

func (panickingRule) Match([]string) (string, bool) { panic("D'oh!") }
func (panickingRule) String() string                { return "panic" }
