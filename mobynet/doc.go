/*
Package mobynet locates the network namespace of a Docker container, so that
MX lookups can be carried out from the container's perspective, using the
container's DNS resolver (configuration).
*/
package mobynet
