// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package fakedns

import (
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
)

// MX is a single MX record of a fake zone.
type MX struct {
	Pref uint16
	Host string // FQDN with or without trailing dot.
}

// Zone maps domain names to their MX records. A domain listed with nil or no
// records exists, but lacks MX records. Domains not listed are NXDOMAIN.
type Zone map[string][]MX

// Server is an in-process DNS server on the loopback interface, answering MX
// queries from a [Zone] via both UDP and TCP on the same port.
type Server struct {
	Addr string // address to send queries to.

	srvs     []*dns.Server
	zone     Zone
	failing  map[string]int  // domain -> rcode to answer with
	truncing map[string]bool // domains answered truncated over UDP
	delay    time.Duration
	mu       sync.Mutex
	queries  map[string]int // lowercase FQDN -> number of queries
	inflight atomic.Int32
	maxin    atomic.Int32
}

// Option can be passed to Start when starting a new fake [Server].
type Option func(*Server)

// WithRcode answers queries for the specified domain with the given rcode,
// such as [dns.RcodeServerFailure], and no answers.
func WithRcode(domain string, rcode int) Option {
	return func(s *Server) {
		s.failing[dns.CanonicalName(domain)] = rcode
	}
}

// WithTruncation answers UDP queries for the specified domain with the
// truncation bit set and an empty answer section, as resolvers do when the
// answer doesn't fit. TCP queries get the full answer.
func WithTruncation(domain string) Option {
	return func(s *Server) {
		s.truncing[dns.CanonicalName(domain)] = true
	}
}

// WithDelay delays all answers by the specified duration.
func WithDelay(d time.Duration) Option {
	return func(s *Server) {
		s.delay = d
	}
}

// Start a new fake DNS server serving the specified zone via UDP and TCP on a
// random loopback port. Callers must Stop the server when done.
func Start(zone Zone, opts ...Option) (*Server, error) {
	pc, l, err := listen()
	if err != nil {
		return nil, err
	}
	s := &Server{
		Addr:     pc.LocalAddr().String(),
		zone:     Zone{},
		failing:  map[string]int{},
		truncing: map[string]bool{},
		queries:  map[string]int{},
	}
	for domain, mxs := range zone {
		s.zone[dns.CanonicalName(domain)] = mxs
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srvs = []*dns.Server{
		{PacketConn: pc, Handler: s},
		{Listener: l, Handler: s},
	}
	for _, srv := range s.srvs {
		srv := srv
		started := make(chan struct{})
		srv.NotifyStartedFunc = func() { close(started) }
		go func() { _ = srv.ActivateAndServe() }()
		<-started
	}
	return s, nil
}

// listen on a random UDP loopback port and then on the same TCP port, trying
// again a few times if the TCP port happens to be already taken.
func listen() (net.PacketConn, net.Listener, error) {
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		var pc net.PacketConn
		pc, err = net.ListenPacket("udp", "127.0.0.1:0")
		if err != nil {
			return nil, nil, err
		}
		var l net.Listener
		l, err = net.Listen("tcp", pc.LocalAddr().String())
		if err == nil {
			return pc, l, nil
		}
		pc.Close()
	}
	return nil, nil, err
}

// Stop the server.
func (s *Server) Stop() {
	for _, srv := range s.srvs {
		_ = srv.Shutdown()
	}
}

// Queries returns the number of queries received for the specified domain.
func (s *Server) Queries(domain string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[dns.CanonicalName(domain)]
}

// MaxInflight returns the highest number of queries seen being answered at
// the same time.
func (s *Server) MaxInflight() int {
	return int(s.maxin.Load())
}

// ServeDNS answers a single DNS query.
func (s *Server) ServeDNS(w dns.ResponseWriter, req *dns.Msg) {
	in := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		max := s.maxin.Load()
		if in <= max || s.maxin.CompareAndSwap(max, in) {
			break
		}
	}

	m := new(dns.Msg)
	m.SetReply(req)
	if len(req.Question) != 1 {
		m.Rcode = dns.RcodeFormatError
		_ = w.WriteMsg(m)
		return
	}
	q := req.Question[0]
	name := dns.CanonicalName(q.Name)
	s.mu.Lock()
	s.queries[name]++
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if rcode, ok := s.failing[name]; ok {
		m.Rcode = rcode
		_ = w.WriteMsg(m)
		return
	}
	if s.truncing[name] && w.RemoteAddr().Network() == "udp" {
		m.Truncated = true
		_ = w.WriteMsg(m)
		return
	}
	mxs, ok := s.zone[name]
	if !ok {
		m.Rcode = dns.RcodeNameError
		_ = w.WriteMsg(m)
		return
	}
	m.Authoritative = true
	if q.Qtype == dns.TypeMX {
		for _, mx := range mxs {
			m.Answer = append(m.Answer, &dns.MX{
				Hdr: dns.RR_Header{
					Name:   q.Name,
					Rrtype: dns.TypeMX,
					Class:  dns.ClassINET,
					Ttl:    60,
				},
				Preference: mx.Pref,
				Mx:         fqdn(mx.Host),
			})
		}
	}
	_ = w.WriteMsg(m)
}

func fqdn(host string) string {
	if host == "" || host == "." {
		return "."
	}
	return dns.Fqdn(strings.ToLower(host))
}
