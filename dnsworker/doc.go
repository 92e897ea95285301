/*
Package dnsworker implements a simple limiting DNS client-request execution
pool. mxdig uses [DnsPool] with a pool of “DNS workers” for MX lookups, where
each worker exclusively owns one DNS client connection while running a task.
This keeps concurrent queries from ever sharing a connection.

Usage

	dnsclnt := dns.Client{Timeout: 5 * time.Second}
	workers, err := dnsworker.New(
	    context.Background(),
	    4,                          // number of parallel DNS connections and thus workers
	    &dnsclnt,                   // DNS client
	    dnsworker.SystemResolver(), // address of server/resolver
	)
	workers.Submit(func(conn *dns.Conn){
	    hosts, err := workers.QueryMX(ctx, conn, "example.org")
	    // do something with the MX hosts, unless there's an error reported
	})
	workers.StopWait()

# MX Lookups

[QueryMX] distinguishes between domains that simply have no MX records (or
don't exist at all) and failed lookups: the former return a
[github.com/siemens/mxdig/types.NoRecordsError], the latter a
[github.com/siemens/mxdig/types.ResolutionError]. Truncated answers are
failures too, never "no records".

[DnsPool.QueryMX] additionally re-dials pooled connections that the resolver
has closed, such as TCP connections after the resolver's per-connection query
limit, and repeats truncated UDP queries over TCP.

# Acknowledgements

Under its hood, [DnsPool] leverages [gammazero/workerpool] as
the limiting goroutine pool and [miekg/dns] for talking DNS.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
[miekg/dns]: https://github.com/miekg/dns
*/
package dnsworker
