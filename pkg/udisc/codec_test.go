package udisc

import (
	"strings"
	"testing"
)

func TestDecodeAnnouncement_Valid(t *testing.T) {
	payload := `{
		"name": "server",
		"addr": "192.168.1.10",
		"services": [
			{"Host": {"kind": "hello", "port": 4112}},
			{"Search": {"kind": "world"}}
		]
	}`

	ann, err := DecodeAnnouncement([]byte(payload))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if ann.Name != "server" {
		t.Errorf("Name: got %s, want server", ann.Name)
	}
	if ann.Addr != "192.168.1.10" {
		t.Errorf("Addr: got %s, want 192.168.1.10", ann.Addr)
	}
	if len(ann.Services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(ann.Services))
	}
	if ann.Services[0].Host == nil || ann.Services[0].Host.Kind != "hello" || ann.Services[0].Host.Port != 4112 {
		t.Errorf("first service: got %+v, want Host hello:4112", ann.Services[0])
	}
	if ann.Services[1].Search == nil || ann.Services[1].Search.Kind != "world" {
		t.Errorf("second service: got %+v, want Search world", ann.Services[1])
	}
}

func TestDecodeAnnouncement_Malformed(t *testing.T) {
	cases := map[string]string{
		"not JSON":          `garbage`,
		"missing name":      `{"addr": "10.0.0.1", "services": []}`,
		"empty name":        `{"name": "", "addr": "10.0.0.1", "services": []}`,
		"missing addr":      `{"name": "a", "services": []}`,
		"addr not an IP":    `{"name": "a", "addr": "nowhere", "services": []}`,
		"missing services":  `{"name": "a", "addr": "10.0.0.1"}`,
		"null services":     `{"name": "a", "addr": "10.0.0.1", "services": null}`,
		"port out of range": `{"name": "a", "addr": "10.0.0.1", "services": [{"Host": {"kind": "x", "port": 70000}}]}`,
		"non-numeric port":  `{"name": "a", "addr": "10.0.0.1", "services": [{"Host": {"kind": "x", "port": "nope"}}]}`,
		"missing port":      `{"name": "a", "addr": "10.0.0.1", "services": [{"Host": {"kind": "x"}}]}`,
		"missing kind":      `{"name": "a", "addr": "10.0.0.1", "services": [{"Host": {"port": 80}}]}`,
		"unknown variant":   `{"name": "a", "addr": "10.0.0.1", "services": [{"Offer": {"kind": "x"}}]}`,
		"both variants":     `{"name": "a", "addr": "10.0.0.1", "services": [{"Host": {"kind": "x", "port": 80}, "Search": {"kind": "x"}}]}`,
	}

	for name, payload := range cases {
		if _, err := DecodeAnnouncement([]byte(payload)); err == nil {
			t.Errorf("%s: expected decode error", name)
		}
	}
}

func TestEncodeAnnouncement_WireShape(t *testing.T) {
	ann := Announcement{
		Name: "server",
		Addr: "192.168.1.10",
		Services: []Service{
			HostOn("hello", 4112),
			SearchFor("world"),
		},
	}

	data, err := EncodeAnnouncement(ann)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// The tagged wire form must carry exactly one variant key per entry.
	s := string(data)
	for _, want := range []string{`"Host"`, `"Search"`, `"kind":"hello"`, `"port":4112`} {
		if !strings.Contains(s, want) {
			t.Errorf("wire form missing %s: %s", want, s)
		}
	}

	decoded, err := DecodeAnnouncement(data)
	if err != nil {
		t.Fatalf("decode of own encoding failed: %v", err)
	}
	if len(decoded.Services) != 2 {
		t.Fatalf("expected 2 services after round trip, got %d", len(decoded.Services))
	}
}

func TestEncodeAnnouncement_NilServices(t *testing.T) {
	data, err := EncodeAnnouncement(Announcement{Name: "a", Addr: "10.0.0.1"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// A roleless endpoint must still produce a decodable announcement.
	if _, err := DecodeAnnouncement(data); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
}
