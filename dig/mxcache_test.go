// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"errors"
	"io"
	"net"
	"os"

	"github.com/siemens/mxdig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("memoizing MX lookups", func() {

	// lookups returns a lookup function always returning the specified
	// outcome, as well as a pointer to the number of lookups done.
	lookups := func(hosts []string, err error) (func() ([]string, error), *int) {
		count := 0
		return func() ([]string, error) {
			count++
			return hosts, err
		}, &count
	}

	It("remembers outcomes", func() {
		cache := Successful(newMXCache(10))
		lookup, count := lookups([]string{"mx.example.com"}, nil)
		for i := 0; i < 3; i++ {
			Expect(cache.Resolve("example.com", lookup)).To(ConsistOf("mx.example.com"))
		}
		Expect(*count).To(Equal(1))

		servfail := &types.ResolutionError{Domain: "example.org", Cause: errors.New("server answered SERVFAIL")}
		lookup, count = lookups(nil, servfail)
		for i := 0; i < 3; i++ {
			Expect(cache.Resolve("example.org", lookup)).Error().To(MatchError(servfail))
		}
		Expect(*count).To(Equal(1))
	})

	DescribeTable("forgets transient failures",
		func(cause error) {
			cache := Successful(newMXCache(10))
			err := &types.ResolutionError{Domain: "example.com", Cause: cause}
			lookup, count := lookups(nil, err)
			for i := 0; i < 3; i++ {
				Expect(cache.Resolve("example.com", lookup)).Error().To(MatchError(err))
			}
			Expect(*count).To(Equal(3))
		},
		Entry("cancelled", context.Canceled),
		Entry("timeout", &net.OpError{Op: "read", Net: "udp", Err: os.ErrDeadlineExceeded}),
		Entry("closed connection", io.EOF),
	)

})
