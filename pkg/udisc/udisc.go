// Package udisc implements local-network service discovery over UDP
// multicast.
//
// Every endpoint broadcasts an announcement describing its identity plus the
// services it hosts and the services it searches for. When an endpoint hears
// a peer searching for a service it hosts, it re-announces itself, so the
// order in which endpoints join the network does not matter. Discovery stops
// at the (address, port) handoff; establishing the actual connection is up to
// the caller.
//
// Building an endpoint that wants a "hello" service:
//
//	ep, err := udisc.New("client").Search("hello").Build()
//	if err != nil {
//		// handle
//	}
//	defer ep.Close()
//
//	svc, err := ep.FindService(ctx, "hello")
//
// Building an endpoint that offers "hello" on port 4112:
//
//	ep, err := udisc.New("server").Host("hello", 4112).Build()
package udisc

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by lookup calls once the endpoint's background
// runner has stopped and no buffered result remains.
var ErrStopped = errors.New("discovery endpoint stopped")

// ErrDuplicateService is returned by Build when the same kind or port is
// hosted twice on one endpoint.
var ErrDuplicateService = errors.New("kind or port already hosted on endpoint")

// HostService declares that an endpoint offers a service kind on a port.
type HostService struct {
	Kind string `json:"kind"`
	Port uint16 `json:"port"`
}

// SearchService declares that an endpoint wants a service kind.
type SearchService struct {
	Kind string `json:"kind"`
}

// Service is one role an endpoint declares: exactly one of Host or Search is
// set. Kinds are opaque, case-sensitive identifiers.
type Service struct {
	Host   *HostService   `json:"Host,omitempty"`
	Search *SearchService `json:"Search,omitempty"`
}

// HostOn returns a hosting role for the given kind and port.
func HostOn(kind string, port uint16) Service {
	return Service{Host: &HostService{Kind: kind, Port: port}}
}

// SearchFor returns a searching role for the given kind.
func SearchFor(kind string) Service {
	return Service{Search: &SearchService{Kind: kind}}
}

// Announcement is the full broadcast payload: who the endpoint is and every
// role it declares. It is built once at endpoint construction and re-sent
// verbatim on every announcement event.
type Announcement struct {
	Name     string    `json:"name"`
	Addr     string    `json:"addr"`
	Services []Service `json:"services"`
}

// ServiceInfo describes a discovered service: a remote hosting role that
// matched one of the local searching roles.
type ServiceInfo struct {
	// Name of the endpoint hosting the service.
	Name string

	// Kind of service being hosted.
	Kind string

	// Addr of the hosting endpoint.
	Addr string

	// Port the service is reachable on.
	Port uint16
}

func (si ServiceInfo) String() string {
	return fmt.Sprintf("%s service %q at %s:%d", si.Kind, si.Name, si.Addr, si.Port)
}
