/*
Package dig implements an email address checker that digs up the MX hosts of
the domains of email addresses and then checks these hosts against a
[github.com/siemens/mxdig/match.Rule]. The knack here is that the MX lookups
run concurrently, but under the constraints of a limited number of DNS
workers, and that the verdicts get streamed as soon as they are available.

	         +---+
	emails-->| D +-->ch MatchResult
	         +---+

Each email address yields exactly one
[github.com/siemens/mxdig/types.MatchResult], regardless of whether its MX
lookup succeeded, found no records, or failed. The order of results follows
the order of completion, not the order of the email addresses.

Optionally, a [Digger] memoizes the MX lookup outcomes per domain, so that
email addresses sharing the same domain (think large mail providers) don't
cause repeated lookups.

Digging is implemented in pure Go, leveraging the incredible Go module
[miekg/dns], as well as [hashicorp/golang-lru] and
[golang.org/x/sync/singleflight] for memoization.

[miekg/dns]: https://github.com/miekg/dns
[hashicorp/golang-lru]: https://github.com/hashicorp/golang-lru
*/
package dig
