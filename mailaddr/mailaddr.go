// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package mailaddr

import (
	"strings"

	"github.com/siemens/mxdig/types"

	"golang.org/x/net/idna"
)

// Domain returns the domain of an email address, that is, everything after
// the last “@”, in lowercase and in its ASCII (punycode) form, ready for DNS
// queries. Domain returns a [types.MalformedAddressError] if the address lacks
// an “@” or nothing follows it.
//
// Internationalized domain names that fail IDNA conversion are returned
// lowercased, but otherwise unmodified; it's then up to DNS to decide.
func Domain(email string) (string, error) {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return "", &types.MalformedAddressError{Address: email}
	}
	domain := strings.TrimSuffix(strings.TrimSpace(email[at+1:]), ".")
	if domain == "" {
		return "", &types.MalformedAddressError{Address: email}
	}
	domain = strings.ToLower(domain)
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil && ascii != "" {
		return ascii, nil
	}
	return domain, nil
}
