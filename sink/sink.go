// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package sink

import (
	"io"
	"sync"

	"github.com/siemens/mxdig/types"

	"github.com/thediveo/lxkns/log"
)

// Tally counts the results seen so far by verdict, as well as the number of
// failed appends.
type Tally struct {
	Total         int `json:"total"`
	Matched       int `json:"matched"`
	Unmatched     int `json:"unmatched"`
	NoRecords     int `json:"noRecords"`
	Malformed     int `json:"malformed"`
	Failed        int `json:"failed"`
	AppendFailure int `json:"appendFailures"`
}

// Sink consumes a stream of match results, appending the matched ones to an
// [Appender] and logging diagnostics for the others. It keeps a [Tally] of
// what it has seen that can be safely queried while tracking is in progress.
type Sink struct {
	appender Appender
	format   Formatter
	echo     func(types.MatchResult, string) // optional, for operator visibility.

	mu    sync.Mutex
	tally Tally
}

// SinkOption can be passed to New when creating new [Sink] objects.
type SinkOption func(*Sink)

// New returns a new Sink appending matches to the specified appender, using
// the specified formatter. If format is nil, [Bare] is used.
func New(appender Appender, format Formatter, options ...SinkOption) *Sink {
	if format == nil {
		format = Bare
	}
	s := &Sink{
		appender: appender,
		format:   format,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithEcho calls the specified function for each matched result after it has
// been successfully appended, passing it the appended line.
func WithEcho(fn func(r types.MatchResult, line string)) SinkOption {
	return func(s *Sink) {
		s.echo = fn
	}
}

// EchoTo writes each successfully appended line also to the specified
// writer, such as the terminal.
func EchoTo(w io.Writer) SinkOption {
	return WithEcho(func(_ types.MatchResult, line string) {
		_, _ = io.WriteString(w, line+"\n")
	})
}

// Tally returns (a copy of) the current tally.
func (s *Sink) Tally() Tally {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tally
}

// Track match results received from the specified channel until the channel
// is closed. Track only returns after processing all results, and returns
// the final tally.
//
// Please note that Track deliberately keeps draining the channel even when
// the producer has been cancelled, so that producers never block.
func (s *Sink) Track(results <-chan types.MatchResult) Tally {
	for result := range results {
		s.Update(result)
	}
	return s.Tally()
}

// Update the sink with a single result: matched results get appended,
// results for failed checks get logged. Append errors are logged as well, but
// otherwise ignored.
func (s *Sink) Update(result types.MatchResult) {
	var appendErr error
	var line string
	switch result.Verdict {
	case types.Matched:
		line = s.format(result)
		if appendErr = s.appender.Append(line); appendErr != nil {
			log.Errorf("cannot save match %s: %s", result.Email, appendErr)
		} else {
			log.Debugf("MATCH: %s -> %s", result.Email, result.MatchedHost)
		}
	case types.NoRecords:
		log.Debugf("%s: %s", result.Email, result.Err)
	case types.Malformed:
		log.Warnf("%s", result.Err)
	case types.Failed:
		log.Errorf("%s: %v", result.Email, result.Err)
	}

	s.mu.Lock()
	s.tally.Total++
	switch result.Verdict {
	case types.Matched:
		s.tally.Matched++
	case types.Unmatched:
		s.tally.Unmatched++
	case types.NoRecords:
		s.tally.NoRecords++
	case types.Malformed:
		s.tally.Malformed++
	case types.Failed:
		s.tally.Failed++
	}
	if appendErr != nil {
		s.tally.AppendFailure++
	}
	s.mu.Unlock()

	if result.Verdict == types.Matched && appendErr == nil && s.echo != nil {
		s.echo(result, line)
	}
}
