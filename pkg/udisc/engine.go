package udisc

import (
	"fmt"
	"strings"
)

// action is the outcome of evaluating one received announcement: zero or
// more discovery results to report, plus whether the local announcement
// should be re-broadcast.
type action struct {
	reports    []ServiceInfo
	reannounce bool
}

// endpointState holds everything the decision logic needs between packets.
// It is owned exclusively by the endpoint's run loop and never shared, so it
// needs no locking.
type endpointState struct {
	self Announcement

	// seen fingerprints of peer announcements already processed.
	seen map[string]struct{}

	// reported (kind, addr, port) tuples already delivered to the caller.
	reported map[string]struct{}
}

func newEndpointState(self Announcement) *endpointState {
	return &endpointState{
		self:     self,
		seen:     make(map[string]struct{}),
		reported: make(map[string]struct{}),
	}
}

// evaluate decides what a received announcement triggers. Re-announcing is
// flagged at most once per packet regardless of how many peer searches match,
// and a repeated identical announcement triggers nothing at all.
func (s *endpointState) evaluate(peer Announcement) action {
	var act action

	// Never react to our own broadcasts.
	if peer.Name == s.self.Name && peer.Addr == s.self.Addr {
		return act
	}

	fp := fingerprint(peer)
	if _, ok := s.seen[fp]; ok {
		return act
	}
	s.seen[fp] = struct{}{}

	for _, svc := range peer.Services {
		switch {
		case svc.Search != nil:
			if s.hosts(svc.Search.Kind) {
				act.reannounce = true
			}
		case svc.Host != nil:
			if !s.searches(svc.Host.Kind) {
				continue
			}
			key := reportKey(svc.Host.Kind, peer.Addr, svc.Host.Port)
			if _, ok := s.reported[key]; ok {
				continue
			}
			s.reported[key] = struct{}{}
			act.reports = append(act.reports, ServiceInfo{
				Name: peer.Name,
				Kind: svc.Host.Kind,
				Addr: peer.Addr,
				Port: svc.Host.Port,
			})
		}
	}
	return act
}

func (s *endpointState) hosts(kind string) bool {
	for _, svc := range s.self.Services {
		if svc.Host != nil && svc.Host.Kind == kind {
			return true
		}
	}
	return false
}

func (s *endpointState) searches(kind string) bool {
	for _, svc := range s.self.Services {
		if svc.Search != nil && svc.Search.Kind == kind {
			return true
		}
	}
	return false
}

func reportKey(kind, addr string, port uint16) string {
	return fmt.Sprintf("%s|%s|%d", kind, addr, port)
}

// fingerprint canonically identifies an announcement's full content, so that
// a peer re-broadcasting the same snapshot is recognized.
func fingerprint(a Announcement) string {
	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteByte(0)
	b.WriteString(a.Addr)
	for _, svc := range a.Services {
		b.WriteByte(0)
		switch {
		case svc.Host != nil:
			fmt.Fprintf(&b, "H:%s:%d", svc.Host.Kind, svc.Host.Port)
		case svc.Search != nil:
			fmt.Fprintf(&b, "S:%s", svc.Search.Kind)
		}
	}
	return b.String()
}
