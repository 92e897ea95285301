// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package mobynet

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// ContainerInspector inspects containers; [client.Client] is one.
type ContainerInspector interface {
	ContainerInspect(ctx context.Context, container string) (types.ContainerJSON, error)
}

var _ ContainerInspector = (*client.Client)(nil)

// NewClient returns a new Docker client connected to the specified API
// endpoint, such as "unix:///var/run/docker.sock". An empty host uses the
// endpoint from the environment (DOCKER_HOST), falling back to the default
// socket.
func NewClient(host string) (*client.Client, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cln, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the Docker daemon: %w", err)
	}
	return cln, nil
}

// NetworkNamespaceOf returns the filesystem path referencing the network
// namespace of the container identified by name or ID, such as
// "/proc/666/ns/net". The container must be running.
//
// DNS queries from inside this network namespace see the same resolver as
// the container itself, such as Docker's embedded DNS resolver, or a
// split-horizon resolver only reachable from the container's networks.
func NetworkNamespaceOf(ctx context.Context, moby ContainerInspector, nameOrID string) (string, error) {
	pid, err := ContainerPID(ctx, moby, nameOrID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/proc/%d/ns/net", pid), nil
}

// ResolvConfOf returns the filesystem path of the resolver configuration as
// seen by the container identified by name or ID, such as
// "/proc/666/root/etc/resolv.conf". The container must be running.
func ResolvConfOf(ctx context.Context, moby ContainerInspector, nameOrID string) (string, error) {
	pid, err := ContainerPID(ctx, moby, nameOrID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/proc/%d/root/etc/resolv.conf", pid), nil
}

// ContainerPID returns the PID of the initial process of the container
// identified by name or ID. The container must be running.
func ContainerPID(ctx context.Context, moby ContainerInspector, nameOrID string) (int, error) {
	details, err := moby.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return 0, fmt.Errorf("cannot inspect container '%s': %w", nameOrID, err)
	}
	if details.ContainerJSONBase == nil || details.State == nil || details.State.Pid == 0 {
		return 0, fmt.Errorf("container '%s' is not running",
			strings.TrimPrefix(nameOrID, "/")) // argh, Docker's "/name" legacy!
	}
	return details.State.Pid, nil
}
