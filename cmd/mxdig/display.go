// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/siemens/mxdig/sink"
)

// renderer renders the terminal progress display, based on the tally passed
// to its Render method.
type renderer struct {
	total    int
	rule     string
	resolver string
	w        io.Writer
	spinner  *spinner
}

// newRenderer returns a renderer rendering to the specified io.Writer the
// progress of checking total email addresses against the specified rule,
// using the specified DNS resolver.
func newRenderer(w io.Writer, total int, rule string, resolver string, interval time.Duration) *renderer {
	sp := newSpinner(interval)
	return &renderer{
		total:    total,
		rule:     rule,
		resolver: resolver,
		w:        w,
		spinner:  sp,
	}
}

// Stop the renderer's background ticker.
func (r *renderer) Stop() {
	r.spinner.Stop()
}

// Render the given tally; done renders the final state without a spinner.
func (r *renderer) Render(t sink.Tally, done bool) {
	fmt.Fprintf(r.w, "checking %d email addresses against %s using resolver %s\n",
		r.total, ruleStyle.Styled(r.rule), r.resolver)
	lead := r.spinner.Spinner()
	if done {
		lead = "✔ "
	}
	fmt.Fprintf(r.w, "%s%d/%d checked: %s\n", lead, t.Total, r.total, summary(t))
}

// summary returns a textual summary of a tally, leaving out zero counts
// except for matches.
func summary(t sink.Tally) string {
	parts := []string{matchedStyle.Styled(fmt.Sprintf("%d matched", t.Matched))}
	add := func(count int, text string, style func(string) string) {
		if count == 0 {
			return
		}
		s := fmt.Sprintf("%d %s", count, text)
		if style != nil {
			s = style(s)
		}
		parts = append(parts, s)
	}
	add(t.Unmatched, "unmatched", nil)
	add(t.NoRecords, "without MX", noRecordsStyle.Styled)
	add(t.Failed, "failed", failedStyle.Styled)
	add(t.Malformed, "malformed", failedStyle.Styled)
	add(t.AppendFailure, "not saved", failedStyle.Styled)
	return strings.Join(parts, ", ")
}

// spinner is yet another blindingly simple (braille) spinner; just enough to
// get the job done, no bells, no frills. It starts spinning immediately when
// created.
type spinner struct {
	phases   []string
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	phase    int
}

// newSpinner returns a new spinner spinning in steps every specified
// interval; call the Stop method to stop it and release background resources.
func newSpinner(interval time.Duration) *spinner {
	phases := []string{}
	for _, r := range "⠉⠘⠰⠤⠆⠃" {
		phases = append(phases, string(r)+" ")
	}
	s := &spinner{
		phases: phases,
		done:   make(chan struct{}),
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				s.phase = (s.phase + 1) % len(s.phases)
				s.mu.Unlock()
			case <-s.done:
				return
			}
		}
	}()
	return s
}

// Spinner returns the spinner string for the current phase.
func (s *spinner) Spinner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phases[s.phase]
}

// Stop the spinner and release the background resources.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
