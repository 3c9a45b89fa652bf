package udisc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

const (
	maxPacketSize = 4096

	// resultBuffer bounds the results channel. Discovery results are cheap
	// to lose: another search will make the host re-announce.
	resultBuffer = 16
)

// Endpoint is a running discovery endpoint. A single background goroutine
// owns the transport socket and the protocol state; it relays discovery
// results to the caller through a buffered channel.
//
// Lookup calls and the Services stream consume from the same feed and are
// meant for a single consuming goroutine.
type Endpoint struct {
	ann    Announcement
	tr     Transport
	secret string
	log    zerolog.Logger

	results chan ServiceInfo

	mu      sync.Mutex // serializes lookup callers over pending
	pending []ServiceInfo

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newEndpoint(ann Announcement, tr Transport, secret string, log zerolog.Logger) (*Endpoint, error) {
	if ann.Services == nil {
		ann.Services = []Service{}
	}

	msg, err := EncodeAnnouncement(ann)
	if err != nil {
		tr.Close()
		return nil, err
	}
	if secret != "" {
		msg = sealPacket(msg, secret)
	}

	e := &Endpoint{
		ann:     ann,
		tr:      tr,
		secret:  secret,
		log:     log,
		results: make(chan ServiceInfo, resultBuffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	for _, svc := range ann.Services {
		switch {
		case svc.Host != nil:
			log.Debug().Str("kind", svc.Host.Kind).Uint16("port", svc.Host.Port).Msg("Hosting service")
		case svc.Search != nil:
			log.Debug().Str("kind", svc.Search.Kind).Msg("Searching for service")
		}
	}

	// Announce ourselves as we join the network. A send failure here is
	// fatal to endpoint construction.
	if err := tr.Send(msg); err != nil {
		tr.Close()
		return nil, fmt.Errorf("sending initial announcement: %w", err)
	}

	go e.run(msg)
	return e, nil
}

// run is the endpoint's receive loop. It exits when the transport is closed
// or a stop is signalled, closing the results channel on the way out so
// blocked lookup callers are released.
func (e *Endpoint) run(msg []byte) {
	defer func() {
		close(e.results)
		close(e.done)
	}()

	state := newEndpointState(e.ann)
	buf := make([]byte, maxPacketSize)

	for {
		select {
		case <-e.stop:
			return
		default:
		}

		n, err := e.tr.Recv(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			e.log.Error().Err(err).Msg("Error receiving announcement (will continue)")
			continue
		}

		data := buf[:n]
		if e.secret != "" {
			var ok bool
			data, ok = openPacket(data, e.secret)
			if !ok {
				e.log.Warn().Msg("Dropping packet with bad signature")
				continue
			}
		}

		peer, err := DecodeAnnouncement(data)
		if err != nil {
			e.log.Debug().Err(err).Msg("Dropping undecodable packet")
			continue
		}

		act := state.evaluate(peer)

		for _, si := range act.reports {
			e.log.Info().
				Str("kind", si.Kind).
				Str("peer", si.Name).
				Str("addr", si.Addr).
				Uint16("port", si.Port).
				Msg("Service discovered")
			e.push(si)
		}

		if act.reannounce {
			e.log.Debug().Str("peer", peer.Name).Msg("Peer wants one of our services, re-announcing")
			if err := e.tr.Send(msg); err != nil {
				e.log.Error().Err(err).Msg("Failed to re-announce (will continue)")
			}
		}
	}
}

// push delivers a result without ever blocking the receive loop. When the
// buffer is full the oldest result is dropped.
func (e *Endpoint) push(si ServiceInfo) {
	select {
	case e.results <- si:
		return
	default:
	}
	select {
	case <-e.results:
	default:
	}
	select {
	case e.results <- si:
	default:
	}
}

// FindService blocks until a service of the given kind is discovered, the
// context is done, or the endpoint stops. An empty kind matches any service.
// Results of other kinds that arrive while waiting are buffered for later
// calls, not lost.
//
// A stopped endpoint yields ErrStopped; an expired context yields its
// context error, a distinct outcome.
func (e *Endpoint) FindService(ctx context.Context, kind string) (ServiceInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if si, ok := e.takePending(kind); ok {
		return si, nil
	}

	for {
		select {
		case si, ok := <-e.results:
			if !ok {
				return ServiceInfo{}, ErrStopped
			}
			if kind == "" || si.Kind == kind {
				return si, nil
			}
			e.pending = append(e.pending, si)
		case <-ctx.Done():
			return ServiceInfo{}, fmt.Errorf("no %q service found: %w", kind, ctx.Err())
		}
	}
}

// TryFindService is the non-blocking variant of FindService: it returns
// false when nothing matching is buffered yet, and ErrStopped once the
// endpoint has stopped with nothing buffered.
func (e *Endpoint) TryFindService(kind string) (ServiceInfo, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if si, ok := e.takePending(kind); ok {
		return si, true, nil
	}

	for {
		select {
		case si, ok := <-e.results:
			if !ok {
				return ServiceInfo{}, false, ErrStopped
			}
			if kind == "" || si.Kind == kind {
				return si, true, nil
			}
			e.pending = append(e.pending, si)
		default:
			return ServiceInfo{}, false, nil
		}
	}
}

// takePending removes and returns the first buffered result matching kind.
// Callers hold e.mu.
func (e *Endpoint) takePending(kind string) (ServiceInfo, bool) {
	for i, si := range e.pending {
		if kind == "" || si.Kind == kind {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return si, true
		}
	}
	return ServiceInfo{}, false
}

// Services returns the live stream of every discovery result as it arrives.
// The channel is closed when the endpoint is torn down. Results consumed
// here are not seen by FindService.
func (e *Endpoint) Services() <-chan ServiceInfo {
	return e.results
}

// Identity returns the announcement this endpoint broadcasts.
func (e *Endpoint) Identity() Announcement {
	return e.ann
}

// Close stops the background runner, releases the socket and waits for the
// runner to exit. It is safe to call more than once.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		close(e.stop)
		// Closing the socket interrupts the blocked Recv.
		e.closeErr = e.tr.Close()
		<-e.done
		e.log.Debug().Msg("Discovery endpoint stopped")
	})
	return e.closeErr
}
