/*
Package types defines mxdig's information model. Which is rather simple and
mainly revolves around [MatchResult], the final outcome of checking a single
email address, and its [Verdict].

# Errors

Checking an email address can go wrong in several ways, and mxdig keeps these
ways apart so that diagnostics stay meaningful:

  - [MalformedAddressError]: the input line has no “@” or nothing after it.
  - [NoRecordsError]: the domain doesn't exist or has no MX records; this is
    an answer, not a failure.
  - [ResolutionError]: asking DNS failed, such as timeouts, SERVFAIL, or
    network errors.
  - [AppendError]: writing a match to the output file failed.

None of these errors ever aborts a run; they are attached to the
[MatchResult] of the email address concerned, or logged in case of
[AppendError].

MatchResults travel through channels by value. The Hosts slice isn't copied,
so consumers must not modify it.
*/
package types
