// Package netutil provides the UDP multicast socket and local identity
// helpers used by udisc endpoints.
package netutil

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"
)

// Default multicast group and port for discovery traffic. IPv4 is used for
// its broader support across home and office networks.
const (
	DefaultGroup = "224.0.0.87"
	DefaultPort  = 8787
)

const maxPacketSize = 4096

// MulticastConfig selects the group a Multicast transport joins and how the
// socket is tuned.
type MulticastConfig struct {
	Group     string
	Port      int
	Interface string // interface name, empty for the system default
	TTL       int    // defaults to 1
	Loopback  bool
}

// Multicast is a discovery transport backed by a single UDP socket joined to
// a multicast group.
type Multicast struct {
	conn  *net.UDPConn
	group *net.UDPAddr
	log   zerolog.Logger
}

// NewMulticast joins the configured multicast group and returns the
// transport.
func NewMulticast(cfg MulticastConfig, log zerolog.Logger) (*Multicast, error) {
	group := net.ParseIP(cfg.Group)
	if group == nil {
		return nil, fmt.Errorf("invalid multicast group: %s", cfg.Group)
	}
	if !group.IsMulticast() {
		return nil, fmt.Errorf("%s is not a multicast address", cfg.Group)
	}

	var iface *net.Interface
	if cfg.Interface != "" {
		var err error
		iface, err = net.InterfaceByName(cfg.Interface)
		if err != nil {
			return nil, fmt.Errorf("finding interface %s: %w", cfg.Interface, err)
		}
	}

	gaddr := &net.UDPAddr{IP: group, Port: cfg.Port}
	conn, err := net.ListenMulticastUDP("udp4", iface, gaddr)
	if err != nil {
		return nil, fmt.Errorf("joining multicast group %s: %w", gaddr, err)
	}

	if err := conn.SetReadBuffer(maxPacketSize * 10); err != nil {
		log.Warn().Err(err).Msg("Failed to set read buffer")
	}

	// ipv4.PacketConn is used for multicast control
	pc := ipv4.NewPacketConn(conn)
	if iface != nil {
		if err := pc.SetMulticastInterface(iface); err != nil {
			log.Warn().Err(err).Msg("Failed to set multicast interface")
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 1
	}
	if err := pc.SetMulticastTTL(ttl); err != nil {
		log.Warn().Err(err).Msg("Failed to set multicast TTL")
	}
	if err := pc.SetMulticastLoopback(cfg.Loopback); err != nil {
		log.Warn().Err(err).Msg("Failed to set multicast loopback")
	}

	log.Info().
		Str("group", gaddr.String()).
		Str("interface", cfg.Interface).
		Int("ttl", ttl).
		Msg("Joined discovery group")

	return &Multicast{conn: conn, group: gaddr, log: log}, nil
}

// Send transmits one datagram to the multicast group.
func (m *Multicast) Send(data []byte) error {
	if _, err := m.conn.WriteToUDP(data, m.group); err != nil {
		return fmt.Errorf("writing packet to %s: %w", m.group, err)
	}
	return nil
}

// Recv blocks until a datagram arrives. After Close it returns an error
// satisfying errors.Is(err, net.ErrClosed).
func (m *Multicast) Recv(buf []byte) (int, error) {
	n, _, err := m.conn.ReadFromUDP(buf)
	return n, err
}

// Close leaves the multicast group and releases the socket.
func (m *Multicast) Close() error {
	return m.conn.Close()
}
