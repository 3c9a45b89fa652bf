package registry

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"udisc/pkg/udisc"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleService(kind, name, addr string, port uint16) udisc.ServiceInfo {
	return udisc.ServiceInfo{Name: name, Kind: kind, Addr: addr, Port: port}
}

func TestStore_UpsertAndAll(t *testing.T) {
	s := testStore(t)

	svc := sampleService("hello", "server", "192.168.1.10", 4112)
	if err := s.Upsert(svc); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	records, err := s.All()
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Service != svc {
		t.Errorf("service: got %+v, want %+v", r.Service, svc)
	}
	if r.PacketCount != 1 {
		t.Errorf("PacketCount: got %d, want 1", r.PacketCount)
	}
	if !r.Active {
		t.Error("expected record to be active")
	}
	if r.FirstSeen.IsZero() || r.LastSeen.IsZero() {
		t.Error("expected FirstSeen and LastSeen to be set")
	}
}

func TestStore_UpsertIncrementsPacketCount(t *testing.T) {
	s := testStore(t)

	svc := sampleService("hello", "server", "192.168.1.10", 4112)
	for i := 0; i < 5; i++ {
		if err := s.Upsert(svc); err != nil {
			t.Fatalf("upsert %d failed: %v", i, err)
		}
	}

	records, err := s.All()
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].PacketCount != 5 {
		t.Errorf("PacketCount: got %d, want 5", records[0].PacketCount)
	}
}

func TestStore_DistinctTuplesDistinctRecords(t *testing.T) {
	s := testStore(t)

	s.Upsert(sampleService("hello", "alpha", "192.168.1.10", 4112))
	s.Upsert(sampleService("hello", "beta", "192.168.1.11", 4112))
	s.Upsert(sampleService("world", "alpha", "192.168.1.10", 5000))

	records, err := s.All()
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestStore_Active(t *testing.T) {
	s := testStore(t)

	s.Upsert(sampleService("hello", "alpha", "192.168.1.10", 4112))
	s.Upsert(sampleService("world", "beta", "192.168.1.11", 5000))

	active, err := s.Active()
	if err != nil {
		t.Fatalf("active failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active, got %d", len(active))
	}
}

func TestStore_Expiry(t *testing.T) {
	s := testStore(t)

	s.Upsert(sampleService("hello", "server", "192.168.1.10", 4112))

	// Force expiry with a threshold of 0 (expires everything)
	s.expireStale(0)

	records, err := s.All()
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	if records[0].Active {
		t.Error("expected record to be inactive after expiry")
	}

	active, err := s.Active()
	if err != nil {
		t.Fatalf("active failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active records, got %d", len(active))
	}
}

func TestStore_UpsertReactivates(t *testing.T) {
	s := testStore(t)

	svc := sampleService("hello", "server", "192.168.1.10", 4112)
	s.Upsert(svc)
	s.expireStale(0)
	s.Upsert(svc)

	active, err := s.Active()
	if err != nil {
		t.Fatalf("active failed: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected record to be active again, got %d active", len(active))
	}
	if active[0].PacketCount != 2 {
		t.Errorf("PacketCount: got %d, want 2", active[0].PacketCount)
	}
}
