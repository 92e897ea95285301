// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/siemens/mxdig/match"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
	_ "github.com/thediveo/lxkns/log/logrus" // route lxkns logging to logrus
)

// config is the configuration of a single mxdig run; it is set up once from
// the CLI flags and then passed to DigAndReport.
type config struct {
	input       string
	output      string
	workers     uint
	exact       []string
	contains    []string
	annotate    bool
	primaryOnly bool
	memoize     uint
	resolver    string
	tcp         bool
	timeout     time.Duration
	netns       string
	container   string
	noProgress  bool
	spinner     time.Duration
	debug       bool
}

// rule returns the match rule as configured.
func (c *config) rule() (match.Rule, error) {
	switch {
	case len(c.exact) > 0 && len(c.contains) > 0:
		return nil, errors.New("either --exact or --contains, but not both")
	case len(c.exact) > 0:
		return match.NewExactSet(c.exact...)
	case len(c.contains) > 0:
		return match.NewSubstringAny(c.contains...)
	}
	return nil, errors.New("missing --exact or --contains")
}

// validate the configuration, but without looking at files or networks yet.
func (c *config) validate() error {
	if c.workers < 1 || c.workers > 100 {
		return fmt.Errorf("--workers out of range [1..100]")
	}
	if c.output == "" {
		return fmt.Errorf("--output must not be empty")
	}
	if c.timeout < 10*time.Millisecond {
		return fmt.Errorf("--timeout must be at least 10ms")
	}
	if c.spinner < 10*time.Millisecond {
		return fmt.Errorf("--spinner must be at least 10ms")
	}
	if c.netns != "" && c.container != "" {
		return fmt.Errorf("either --netns or --container, but not both")
	}
	if _, err := c.rule(); err != nil {
		return err
	}
	return nil
}

func newRootCmd() (rootCmd *cobra.Command) {
	cfg := &config{}
	rootCmd = &cobra.Command{
		Use:   "mxdig [flags] email-list",
		Short: "mxdig filters email addresses by the MX hosts serving their domains",
		Long: `mxdig reads email addresses, one per line, from the specified file (or "-"
for stdin), looks up the MX hosts of their domains, and appends the addresses
whose MX hosts match to the output file as soon as they are found.

MX hosts match either when they are exactly one of the --exact hosts, or when
they contain any of the --contains markers.`,
		Version:       "0.9",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logrus.SetOutput(cmd.ErrOrStderr())
			logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
			if cfg.debug {
				logrus.SetLevel(logrus.DebugLevel)
				log.SetLevel(log.DebugLevel)
				log.Debugf("debug logging enabled")
			}
			return cfg.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.input = args[0]
			_, err := DigAndReport(cmd.Context(), cmd.OutOrStdout(), cfg)
			return err
		},
	}
	// Sets up the flags.
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfg.output, "output", "o", "mx-matches.txt",
		"file to append matching email addresses to")
	flags.UintVar(&cfg.workers, "workers", 5,
		"number of DNS workers")
	flags.StringSliceVar(&cfg.exact, "exact", nil,
		"MX host(s) to match exactly")
	flags.StringSliceVar(&cfg.contains, "contains", nil,
		"marker(s) to match anywhere in MX hosts")
	flags.BoolVar(&cfg.annotate, "annotate", false,
		"annotate matching email addresses with the matched MX host")
	flags.BoolVar(&cfg.primaryOnly, "primary-only", false,
		"check only the highest priority MX host")
	flags.UintVar(&cfg.memoize, "memoize", 0,
		"remember MX hosts of up to this many domains (0 disables)")
	flags.StringVar(&cfg.resolver, "resolver", "",
		"DNS resolver address host:port (default from resolv.conf)")
	flags.BoolVar(&cfg.tcp, "tcp", false,
		"query the DNS resolver via TCP instead of UDP")
	flags.DurationVar(&cfg.timeout, "timeout", 5*time.Second,
		"timeout for a single MX query")
	flags.StringVar(&cfg.netns, "netns", "",
		"network namespace path to resolve from, such as /proc/666/ns/net")
	flags.StringVar(&cfg.container, "container", "",
		"name or ID of a Docker container to resolve from")
	flags.BoolVar(&cfg.noProgress, "no-progress", false,
		"don't show the live progress display")
	flags.DurationVar(&cfg.spinner, "spinner", 100*time.Millisecond,
		"spinner interval")
	flags.BoolVar(&cfg.debug, "debug", false,
		"enable debugging output")
	rootCmd.MarkFlagsMutuallyExclusive("exact", "contains")
	rootCmd.MarkFlagsMutuallyExclusive("netns", "container")
	return
}
