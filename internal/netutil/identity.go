package netutil

import (
	"fmt"
	"net"
	"os"

	"github.com/shirou/gopsutil/v3/host"
)

// LocalIP returns the address of the first up, non-loopback interface,
// preferring IPv4 and falling back to a global IPv6 address. This is the one
// authoritative address an endpoint advertises; callers wanting a specific
// interface set the address explicitly.
func LocalIP() (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4, nil
			}
		}

		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ipNet.IP.To16() != nil && !ipNet.IP.IsLinkLocalUnicast() {
				return ipNet.IP, nil
			}
		}
	}

	return nil, fmt.Errorf("no usable non-loopback interface found")
}

// Hostname returns the machine hostname, used as the default endpoint name.
func Hostname() string {
	if info, err := host.Info(); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "udisc"
}
