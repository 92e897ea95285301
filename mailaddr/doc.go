/*
Package mailaddr loads line-delimited lists of email addresses and extracts
the domains to query MX records for.

mailaddr deliberately doesn't validate addresses beyond requiring an “@” with
something after it: the local part is never looked at, and the domain is only
normalized (lowercased, converted to its IDNA ASCII form) so that DNS queries
for “Example.ORG” and “example.org” are the same.
*/
package mailaddr
