package udisc

import (
	"fmt"

	"github.com/rs/zerolog"

	"udisc/internal/netutil"
)

// Builder configures a discovery endpoint before it is started with Build.
type Builder struct {
	name     string
	addr     string
	services []Service

	group    string
	port     int
	iface    string
	ttl      int
	loopback bool

	secret string
	log    zerolog.Logger
	tr     Transport

	err error
}

// New starts building a discovery endpoint with the given name. The name is
// advertised to the discovery network; if empty, the machine hostname is
// used.
func New(name string) *Builder {
	return &Builder{
		name:     name,
		group:    netutil.DefaultGroup,
		port:     netutil.DefaultPort,
		ttl:      1,
		loopback: true,
		log:      zerolog.Nop(),
	}
}

// Host declares a service made available on this endpoint: the kind is
// reachable on the given port. Hosting the same kind or the same port twice
// is an error, surfaced at Build.
func (b *Builder) Host(kind string, port uint16) *Builder {
	if b.err != nil {
		return b
	}
	if port == 0 {
		b.err = fmt.Errorf("hosting %q: port must be nonzero", kind)
		return b
	}
	for _, svc := range b.services {
		if svc.Host != nil && (svc.Host.Kind == kind || svc.Host.Port == port) {
			b.err = fmt.Errorf("hosting %q on port %d: %w", kind, port, ErrDuplicateService)
			return b
		}
	}
	b.services = append(b.services, HostOn(kind, port))
	return b
}

// Search declares a service kind this endpoint wants to find.
func (b *Builder) Search(kind string) *Builder {
	b.services = append(b.services, SearchFor(kind))
	return b
}

// Addr sets the address this endpoint is reachable on. If empty or unset the
// first non-loopback interface address is used.
func (b *Builder) Addr(addr string) *Builder {
	b.addr = addr
	return b
}

// Group overrides the multicast group and port used for discovery traffic.
func (b *Builder) Group(group string, port int) *Builder {
	if group != "" {
		b.group = group
	}
	if port != 0 {
		b.port = port
	}
	return b
}

// Interface selects the network interface joined for multicast, by name.
func (b *Builder) Interface(name string) *Builder {
	b.iface = name
	return b
}

// TTL sets the multicast TTL; the default of 1 keeps traffic on the local
// segment.
func (b *Builder) TTL(ttl int) *Builder {
	if ttl > 0 {
		b.ttl = ttl
	}
	return b
}

// Loopback controls whether the endpoint receives its own multicast packets.
// It is on by default so endpoints on one machine can discover each other;
// own packets are filtered by the protocol either way.
func (b *Builder) Loopback(enabled bool) *Builder {
	b.loopback = enabled
	return b
}

// Secret enables HMAC-SHA256 packet signing with a shared secret. Endpoints
// with mismatched secrets silently ignore each other.
func (b *Builder) Secret(secret string) *Builder {
	b.secret = secret
	return b
}

// Logger sets the logger used by the endpoint's background runner.
func (b *Builder) Logger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// WithTransport substitutes the discovery transport, bypassing multicast
// socket construction entirely.
func (b *Builder) WithTransport(tr Transport) *Builder {
	b.tr = tr
	return b
}

// Build resolves the local identity, joins the discovery group, sends the
// initial announcement and starts the background runner.
func (b *Builder) Build() (*Endpoint, error) {
	if b.err != nil {
		return nil, b.err
	}

	name := b.name
	if name == "" {
		name = netutil.Hostname()
	}

	addr := b.addr
	if addr == "" {
		ip, err := netutil.LocalIP()
		if err != nil {
			return nil, fmt.Errorf("resolving local address: %w", err)
		}
		addr = ip.String()
	}

	tr := b.tr
	if tr == nil {
		var err error
		tr, err = netutil.NewMulticast(netutil.MulticastConfig{
			Group:     b.group,
			Port:      b.port,
			Interface: b.iface,
			TTL:       b.ttl,
			Loopback:  b.loopback,
		}, b.log)
		if err != nil {
			return nil, fmt.Errorf("joining discovery group: %w", err)
		}
	}

	ann := Announcement{Name: name, Addr: addr, Services: b.services}
	return newEndpoint(ann, tr, b.secret, b.log)
}
