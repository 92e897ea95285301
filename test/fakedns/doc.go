/*
Package fakedns provides an in-process DNS server for tests, answering MX
queries via UDP and TCP from a static zone. Besides regular answers it can simulate NXDOMAIN,
domains without MX records, arbitrary error rcodes, and slow answers. It
additionally records how many queries it received per domain and the maximum
number of queries answered concurrently.

	srv, err := fakedns.Start(fakedns.Zone{
	    "example.com": {{Pref: 10, Host: "mx.example.com"}},
	    "nomx.example": nil,
	}, fakedns.WithRcode("broken.example", dns.RcodeServerFailure))
	defer srv.Stop()
*/
package fakedns
