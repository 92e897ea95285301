// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"net"
	"os"
	"path/filepath"

	"github.com/miekg/dns"
)

// SystemResolvConf is the path of the system's resolver configuration.
const SystemResolvConf = "/etc/resolv.conf"

// FallbackResolver is used when no system resolver can be determined.
const FallbackResolver = "8.8.8.8:53"

// SystemResolver returns the address of the first name server configured in
// /etc/resolv.conf, or [FallbackResolver] if there is none.
func SystemResolver() string {
	return ResolverFrom(SystemResolvConf)
}

// ResolvConfFor returns the path of the resolver configuration that applies
// to the network namespace referenced by the specified path:
//   - "/proc/PID/ns/net": the resolv.conf as seen by process PID,
//   - "/run/netns/NAME": "/etc/netns/NAME/resolv.conf" if present, as with
//     "ip netns exec",
//   - otherwise the system's resolv.conf.
func ResolvConfFor(netnsref string) string {
	netnsref = filepath.Clean(netnsref)
	if dir := filepath.Dir(netnsref); dir == "/run/netns" || dir == "/var/run/netns" {
		path := filepath.Join("/etc/netns", filepath.Base(netnsref), "resolv.conf")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return SystemResolvConf
	}
	nsdir := filepath.Dir(netnsref)
	procdir := filepath.Dir(nsdir)
	if filepath.Base(netnsref) == "net" && filepath.Base(nsdir) == "ns" &&
		filepath.Dir(procdir) == "/proc" {
		return filepath.Join(procdir, "root", SystemResolvConf)
	}
	return SystemResolvConf
}

// ResolverFrom returns the address of the first name server configured in
// the resolver configuration file at the specified path, or
// [FallbackResolver] if there is none.
func ResolverFrom(path string) string {
	config, err := dns.ClientConfigFromFile(path)
	if err != nil || len(config.Servers) == 0 {
		return FallbackResolver
	}
	port := config.Port
	if port == "" {
		port = "53"
	}
	return net.JoinHostPort(config.Servers[0], port)
}
