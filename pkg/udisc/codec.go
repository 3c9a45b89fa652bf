package udisc

import (
	"encoding/json"
	"fmt"
	"net"
)

// EncodeAnnouncement serializes an announcement to its JSON wire form, one
// datagram per announcement.
func EncodeAnnouncement(a Announcement) ([]byte, error) {
	if a.Services == nil {
		a.Services = []Service{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encoding announcement: %w", err)
	}
	return data, nil
}

// DecodeAnnouncement parses and validates a received datagram. Any missing
// required field, unparsable address, malformed service entry or out-of-range
// port is a decode failure; callers discard failed packets without acting on
// them.
func DecodeAnnouncement(data []byte) (Announcement, error) {
	var raw struct {
		Name     *string           `json:"name"`
		Addr     *string           `json:"addr"`
		Services []json.RawMessage `json:"services"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Announcement{}, fmt.Errorf("parsing announcement: %w", err)
	}
	if raw.Name == nil || *raw.Name == "" {
		return Announcement{}, fmt.Errorf("announcement missing name")
	}
	if raw.Addr == nil {
		return Announcement{}, fmt.Errorf("announcement missing addr")
	}
	if net.ParseIP(*raw.Addr) == nil {
		return Announcement{}, fmt.Errorf("announcement addr %q is not an IP address", *raw.Addr)
	}
	if raw.Services == nil {
		return Announcement{}, fmt.Errorf("announcement missing services")
	}

	ann := Announcement{
		Name:     *raw.Name,
		Addr:     *raw.Addr,
		Services: make([]Service, 0, len(raw.Services)),
	}
	for _, entry := range raw.Services {
		svc, err := decodeService(entry)
		if err != nil {
			return Announcement{}, err
		}
		ann.Services = append(ann.Services, svc)
	}
	return ann, nil
}

// decodeService parses one tagged service entry. The wire form is an object
// with exactly one of the "Host" or "Search" keys; ports are validated by the
// uint16 decode (0-65535).
func decodeService(data json.RawMessage) (Service, error) {
	var raw struct {
		Host *struct {
			Kind *string `json:"kind"`
			Port *uint16 `json:"port"`
		} `json:"Host"`
		Search *struct {
			Kind *string `json:"kind"`
		} `json:"Search"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Service{}, fmt.Errorf("parsing service entry: %w", err)
	}

	switch {
	case raw.Host != nil && raw.Search != nil:
		return Service{}, fmt.Errorf("service entry has both Host and Search variants")
	case raw.Host != nil:
		if raw.Host.Kind == nil || *raw.Host.Kind == "" {
			return Service{}, fmt.Errorf("Host entry missing kind")
		}
		if raw.Host.Port == nil {
			return Service{}, fmt.Errorf("Host entry missing port")
		}
		return HostOn(*raw.Host.Kind, *raw.Host.Port), nil
	case raw.Search != nil:
		if raw.Search.Kind == nil || *raw.Search.Kind == "" {
			return Service{}, fmt.Errorf("Search entry missing kind")
		}
		return SearchFor(*raw.Search.Kind), nil
	default:
		return Service{}, fmt.Errorf("service entry has no known variant")
	}
}
