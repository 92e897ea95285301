// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/siemens/mxdig/dig"
	"github.com/siemens/mxdig/dnsworker"
	"github.com/siemens/mxdig/mailaddr"
	"github.com/siemens/mxdig/mobynet"
	"github.com/siemens/mxdig/sink"
	"github.com/siemens/mxdig/types"

	"github.com/gosuri/uilive"
	"github.com/thediveo/lxkns/log"
)

// DigAndReport loads the email addresses to check, digs up the MX hosts of
// their domains, and appends the email addresses with matching MX hosts to
// the output file. Progress is reported on out, unless disabled.
//
// Only problems affecting the whole run are returned as errors, such as an
// unreadable input file. Problems with individual email addresses are logged
// and counted in the returned tally instead.
func DigAndReport(ctx context.Context, out io.Writer, cfg *config) (sink.Tally, error) {
	emails, err := mailaddr.Load(cfg.input)
	if err != nil {
		return sink.Tally{}, err
	}
	rule, err := cfg.rule()
	if err != nil {
		return sink.Tally{}, err
	}
	netnsref, resolvconf, err := resolvingFrom(ctx, cfg)
	if err != nil {
		return sink.Tally{}, err
	}
	resolver := cfg.resolver
	switch {
	case resolver != "":
	case resolvconf != "":
		resolver = dnsworker.ResolverFrom(resolvconf)
	default:
		resolver = dnsworker.SystemResolver()
	}
	log.Debugf("using DNS resolver %s", resolver)

	// Now lets put the required processing elements and their plumbing in
	// place.
	//
	//   - Digger producing match results from a list of email addresses.
	//   - Sink consuming the match results, appending the matches to the
	//     output file.
	//
	// Rendering is done on the tally collected by the Sink.
	options := []dig.DiggerOption{
		dig.WithTimeout(cfg.timeout),
		dig.InNetworkNamespace(netnsref),
		dig.WithMemoization(int(cfg.memoize)),
	}
	if cfg.tcp {
		options = append(options, dig.OverTCP())
	}
	if cfg.primaryOnly {
		options = append(options, dig.PrimaryOnly())
	}
	digger, news, err := dig.New(int(cfg.workers), resolver, rule, options...)
	if err != nil {
		return sink.Tally{}, fmt.Errorf("cannot dig MX hosts: %w", err)
	}

	format := sink.Bare
	if cfg.annotate {
		format = sink.Annotated
	}
	var term *uilive.Writer
	echo := func(_ types.MatchResult, line string) { fmt.Fprintln(out, line) }
	if !cfg.noProgress {
		term = uilive.New()
		term.Out = out
		bypass := term.Bypass()
		echo = func(_ types.MatchResult, line string) {
			fmt.Fprintln(bypass, matchedStyle.Styled(line))
		}
	}
	results := sink.New(sink.NewFileAppender(cfg.output), format, sink.WithEcho(echo))

	log.Infof("checking %d email addresses against %s", len(emails), rule)
	trackingDone := make(chan struct{})
	renderingDone := make(chan struct{})
	if term != nil {
		// Dunno what uilive's background updating mode using Start() is good
		// for? It may trigger anytime with the rendering into the buffer not
		// yet complete, thus making the terminal output very flickery. So we
		// avoid Start() and instead trigger an explicit flush to the terminal
		// after having completed the rendering.
		go func() {
			renderer := newRenderer(term, len(emails), rule.String(), resolver, cfg.spinner)
			defer func() {
				renderer.Render(results.Tally(), true)
				_ = term.Flush()
				renderer.Stop()
				close(renderingDone)
			}()
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for {
				renderer.Render(results.Tally(), false)
				_ = term.Flush()
				select {
				case <-ticker.C:
				case <-trackingDone:
					return
				}
			}
		}()
	} else {
		close(renderingDone)
	}

	var tally sink.Tally
	go func() {
		tally = results.Track(news)
		close(trackingDone)
	}()

	// Finally feed the email addresses into the Digger, so they can be
	// processed and move through the different stages. Then wait for all
	// results to pass the stages and finally get rendered a last time.
	digger.DigEmails(ctx, emails)
	digger.StopWait()
	<-trackingDone
	<-renderingDone

	log.Infof("checked %d email addresses: %s; matches appended to %s",
		tally.Total, plainSummary(tally), cfg.output)
	return tally, nil
}

// resolvingFrom returns the network namespace to resolve from, as well as the
// resolver configuration to use when no resolver has been set explicitly. An
// empty resolver configuration path stands for the system's configuration.
func resolvingFrom(ctx context.Context, cfg *config) (netnsref string, resolvconf string, err error) {
	switch {
	case cfg.netns != "":
		return cfg.netns, dnsworker.ResolvConfFor(cfg.netns), nil
	case cfg.container != "":
		cln, err := mobynet.NewClient("")
		if err != nil {
			return "", "", err
		}
		defer cln.Close()
		if netnsref, err = mobynet.NetworkNamespaceOf(ctx, cln, cfg.container); err != nil {
			return "", "", err
		}
		if resolvconf, err = mobynet.ResolvConfOf(ctx, cln, cfg.container); err != nil {
			return "", "", err
		}
		return netnsref, resolvconf, nil
	}
	return "", "", nil
}

// plainSummary returns a tally summary without any terminal styling, for
// logging.
func plainSummary(t sink.Tally) string {
	return fmt.Sprintf("%d matched, %d unmatched, %d without MX, %d failed, %d malformed, %d not saved",
		t.Matched, t.Unmatched, t.NoRecords, t.Failed, t.Malformed, t.AppendFailure)
}
