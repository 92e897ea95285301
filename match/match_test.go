// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package match

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("matching MX hosts", func() {

	Context("exact sets", func() {

		It("rejects empty rules", func() {
			Expect(NewExactSet()).Error().To(MatchError(ErrEmptyRule))
			Expect(NewExactSet("mx.example.com", "")).Error().To(MatchError(ErrEmptyRule))
			Expect(NewExactSet(".")).Error().To(MatchError(ErrEmptyRule))
		})

		It("matches the first host in priority order", func() {
			rule := Successful(NewExactSet("mx2.example.com", "MX3.example.com."))
			matched, host := Evaluate(
				[]string{"mx1.example.com", "MX3.Example.com", "mx2.example.com"}, rule)
			Expect(matched).To(BeTrue())
			Expect(host).To(Equal("MX3.Example.com"))
		})

		It("doesn't match substrings", func() {
			rule := Successful(NewExactSet("smtpin.rzone.de"))
			matched, host := Evaluate([]string{"smtpin.rzone.de.example.com"}, rule)
			Expect(matched).To(BeFalse())
			Expect(host).To(BeEmpty())
		})

		It("stringifies", func() {
			rule := Successful(NewExactSet("b.example", "a.example", "A.example"))
			Expect(rule.String()).To(Equal("exact(a.example, b.example)"))
		})

	})

	Context("substring sets", func() {

		It("rejects empty rules", func() {
			Expect(NewSubstringAny()).Error().To(MatchError(ErrEmptyRule))
			Expect(NewSubstringAny("strato", "")).Error().To(MatchError(ErrEmptyRule))
		})

		It("matches any marker", func() {
			rule := Successful(NewSubstringAny("rzone.de", "STRATO"))
			matched, host := Evaluate([]string{"mx1.strato-hosting.de"}, rule)
			Expect(matched).To(BeTrue())
			Expect(host).To(Equal("mx1.strato-hosting.de"))

			matched, host = Evaluate([]string{"mx.example.org", "smtpin.rzone.de"}, rule)
			Expect(matched).To(BeTrue())
			Expect(host).To(Equal("smtpin.rzone.de"))
		})

		It("reports the first matching host regardless of marker order", func() {
			hosts := []string{"mx.example.org", "b.strato.de", "a.rzone.de"}
			for _, markers := range [][]string{{"rzone", "strato"}, {"strato", "rzone"}} {
				rule := Successful(NewSubstringAny(markers...))
				host, ok := rule.Match(hosts)
				Expect(ok).To(BeTrue())
				Expect(host).To(Equal("b.strato.de"))
			}
		})

		It("stringifies", func() {
			rule := Successful(NewSubstringAny("strato", "RZONE.de"))
			Expect(rule.String()).To(Equal("contains(rzone.de, strato)"))
		})

	})

	It("never matches empty host lists", func() {
		exact := Successful(NewExactSet("mx.example.com"))
		substr := Successful(NewSubstringAny("example"))
		for _, rule := range []Rule{exact, substr} {
			Expect(Evaluate(nil, rule)).To(BeFalse())
			Expect(Evaluate([]string{}, rule)).To(BeFalse())
		}
		Expect(Evaluate([]string{"mx.example.com"}, nil)).To(BeFalse())
	})

	It("is deterministic", func() {
		rule := Successful(NewSubstringAny("example", "mx"))
		hosts := []string{"a.example.org", "mx.example.com", "b.example.net"}
		for i := 0; i < 100; i++ {
			matched, host := Evaluate(hosts, rule)
			Expect(matched).To(BeTrue())
			Expect(host).To(Equal("a.example.org"))
		}
	})

	It("picks the primary host", func() {
		Expect(Primary(nil)).To(BeEmpty())
		Expect(Primary([]string{"a", "b"})).To(HaveExactElements("a"))
	})

})
