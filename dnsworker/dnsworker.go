// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"syscall"

	"github.com/siemens/mxdig/types"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/log"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// DnsPool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address.
type DnsPool struct {
	netns   relations.Relation // network namespace to dial the connections in, or nil.
	client  *dns.Client
	addr    string // DNS resolver address
	workers *workerpool.WorkerPool
	mu      sync.Mutex // protects the pool of DNS connections
	free    []*dns.Conn
}

// DnsPoolOption can be passed to New when creating new [DnsPool] objects.
type DnsPoolOption func(*DnsPool)

// New returns a pool of the specified size of DNS client connections, with each
// connection using the specified context and talking to the same DNS resolver
// address.
//
// DNS tasks are submitted using [DnsPool.Submit] in form of task functions
// receiving a concrete [dns.Conn]. As there are exactly as many workers as
// there are connections, each connection is only ever used by a single task
// at any time.
//
// The passed context is used for creating (dialing) the DNS client connections
// only. It is not directly passed to the submitted DNS tasks, so task
// submitters are themselves responsible for capturing the necessary context in
// their task function closure.
//
// To operate a DnsPool in a network namespace different to that of the OS-level
// thread of the caller specify the [InNetworkNamespace] option and pass it a
// filesystem path that must reference a network namespace (such as
// "/proc/666/ns/net").
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string, options ...DnsPoolOption) (*DnsPool, error) {
	dnspool := &DnsPool{
		client: dnsclnt,
		addr:   addr,
	}
	for _, opt := range options {
		opt(dnspool)
	}
	// Create the DNS client connections for the workers before firing up the
	// workers, so we don't leave idle workers behind on dial errors.
	free := make([]*dns.Conn, 0, size)
	for i := 0; i < size; i++ {
		conn, err := dnspool.dial(ctx, dnsclnt)
		if err != nil {
			// Immediately release all connections created so far.
			for _, conn := range free {
				conn.Close()
			}
			return nil, err
		}
		free = append(free, conn)
	}
	dnspool.free = free
	dnspool.workers = workerpool.New(size)
	return dnspool, nil
}

// InNetworkNamespace optionally runs a DnsPool inside the network namespace
// referenced by the specified filesystem path. An empty path leaves the pool
// in the caller's network namespace.
func InNetworkNamespace(netnsref string) DnsPoolOption {
	return func(p *DnsPool) {
		if netnsref == "" {
			p.netns = nil
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// dial a new connection to the pool's DNS resolver using the specified
// client, inside the pool's network namespace if there is one.
func (p *DnsPool) dial(ctx context.Context, dnsclnt *dns.Client) (*dns.Conn, error) {
	dial := func() interface{} {
		conn, err := dnsclnt.DialContext(ctx, p.addr)
		if err != nil {
			return err
		}
		return conn
	}
	var result interface{}
	if p.netns != nil {
		var err error
		if result, err = ops.Execute(dial, p.netns); err != nil {
			return nil, err
		}
	} else {
		result = dial()
	}
	if err, ok := result.(error); ok {
		return nil, err
	}
	return result.(*dns.Conn), nil
}

// Submit a task to the DNS client connection pool, where it gets enqueued to be
// executed on an available DNS client connection.
func (p *DnsPool) Submit(task func(conn *dns.Conn)) {
	p.workers.Submit(func() { p.task(task) })
}

// QueryMX queries the MX records of the specified domain over the specified
// connection of this pool; see [QueryMX] for the details.
//
// Unlike the plain [QueryMX], it deals with two things that happen in the
// wild. When the resolver has closed the connection, such as after its
// per-connection query limit over TCP, the connection gets re-dialed in
// place and the query is sent once more over the fresh connection. And when
// a UDP answer comes back truncated, the query is repeated over TCP.
func (p *DnsPool) QueryMX(ctx context.Context, conn *dns.Conn, domain string) ([]string, error) {
	hosts, err := QueryMX(ctx, p.client, conn, domain)
	if brokenConn(err) {
		if rerr := p.redial(ctx, conn); rerr != nil {
			log.Warnf("cannot re-dial DNS resolver %s: %s", p.addr, rerr)
			return nil, err
		}
		hosts, err = QueryMX(ctx, p.client, conn, domain)
	}
	if errors.Is(err, ErrTruncated) && p.client.Net != "tcp" && p.client.Net != "tcp-tls" {
		return p.queryMXOverTCP(ctx, domain)
	}
	return hosts, err
}

// redial replaces the specified (broken) pooled connection in place with a
// freshly dialed one, so it keeps its slot in the free list.
func (p *DnsPool) redial(ctx context.Context, conn *dns.Conn) error {
	fresh, err := p.dial(ctx, p.client)
	if err != nil {
		return err
	}
	log.Debugf("re-dialed DNS resolver %s", p.addr)
	_ = conn.Close()
	*conn = *fresh
	return nil
}

// queryMXOverTCP queries the MX records of the specified domain over a
// separate, short-lived TCP connection.
func (p *DnsPool) queryMXOverTCP(ctx context.Context, domain string) ([]string, error) {
	tcpclnt := *p.client
	tcpclnt.Net = "tcp"
	conn, err := p.dial(ctx, &tcpclnt)
	if err != nil {
		return nil, &types.ResolutionError{Domain: domain, Cause: err}
	}
	defer conn.Close()
	return QueryMX(ctx, &tcpclnt, conn, domain)
}

// brokenConn returns true if the error tells that the connection to the
// resolver is gone for good.
func brokenConn(err error) bool {
	return err != nil && (errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE))
}

// task grabs the next free DNS client and passes it to the specified function.
// After the function returns (or panics), the connection is put back into the
// free list.
func (p *DnsPool) task(task func(conn *dns.Conn)) {
	// pop off a free DNS client connection,
	// https://ueokande.github.io/go-slice-tricks/,
	p.mu.Lock()
	if len(p.free) == 0 {
		p.mu.Unlock()
		panic("no free DNS client connection available")
	}
	last := len(p.free) - 1
	conn := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	// ...and push the DNS client connection back into the free list when done.
	defer func() {
		p.mu.Lock()
		p.free = append(p.free, conn)
		p.mu.Unlock()
	}()
	task(conn)
}

// StopWait waits for all enqueued MX lookup or generic DNS request tasks to
// finish, and then shuts down the pool.
func (p *DnsPool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.free {
		conn.Close()
	}
	p.free = nil
}
