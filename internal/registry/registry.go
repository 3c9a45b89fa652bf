// Package registry provides a bbolt-backed record of discovered services for
// the udisc watch daemon.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"udisc/pkg/udisc"
)

var servicesBucket = []byte("services")

// Record is one discovered service with its observation history.
type Record struct {
	Service     udisc.ServiceInfo `msgpack:"service"`
	FirstSeen   time.Time         `msgpack:"first_seen"`
	LastSeen    time.Time         `msgpack:"last_seen"`
	PacketCount uint64            `msgpack:"packet_count"`
	Active      bool              `msgpack:"active"`
}

// Store wraps a bbolt database of service records.
type Store struct {
	db  *bolt.DB
	mu  sync.RWMutex
	log zerolog.Logger
}

// New opens or creates a database file at the given path.
func New(path string, log zerolog.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(servicesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating services bucket: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func recordKey(si udisc.ServiceInfo) []byte {
	return []byte(fmt.Sprintf("%s|%s|%d", si.Kind, si.Addr, si.Port))
}

// Upsert inserts or refreshes a service record keyed by (kind, addr, port).
func (s *Store) Upsert(si udisc.ServiceInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(servicesBucket)
		key := recordKey(si)

		now := time.Now()
		var record Record

		existing := b.Get(key)
		if existing != nil {
			if err := msgpack.Unmarshal(existing, &record); err != nil {
				s.log.Warn().Err(err).Str("key", string(key)).Msg("Failed to unmarshal existing record, overwriting")
			}
			record.Service = si
			record.LastSeen = now
			record.PacketCount++
			record.Active = true

			s.log.Debug().
				Str("kind", si.Kind).
				Str("host", si.Name).
				Msg("Service record refreshed")
		} else {
			record = Record{
				Service:     si,
				FirstSeen:   now,
				LastSeen:    now,
				PacketCount: 1,
				Active:      true,
			}

			s.log.Info().
				Str("kind", si.Kind).
				Str("host", si.Name).
				Str("addr", si.Addr).
				Uint16("port", si.Port).
				Msg("New service recorded")
		}

		data, err := msgpack.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling service record: %w", err)
		}

		return b.Put(key, data)
	})
}

// All returns every service record.
func (s *Store) All() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(servicesBucket)
		return b.ForEach(func(k, v []byte) error {
			var record Record
			if err := msgpack.Unmarshal(v, &record); err != nil {
				s.log.Warn().Err(err).Str("key", string(k)).Msg("Skipping corrupt record")
				return nil
			}
			records = append(records, record)
			return nil
		})
	})
	return records, err
}

// Active returns only records still considered live.
func (s *Store) Active() ([]Record, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}

	var active []Record
	for _, r := range all {
		if r.Active {
			active = append(active, r)
		}
	}
	return active, nil
}

// RunExpiry starts a background goroutine that marks records inactive once
// their LastSeen exceeds the given threshold.
func (s *Store) RunExpiry(checkInterval, threshold time.Duration) {
	go func() {
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for range ticker.C {
			s.expireStale(threshold)
		}
	}()
}

func (s *Store) expireStale(threshold time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-threshold)

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(servicesBucket)
		return b.ForEach(func(k, v []byte) error {
			var record Record
			if err := msgpack.Unmarshal(v, &record); err != nil {
				return nil
			}

			if record.Active && record.LastSeen.Before(cutoff) {
				record.Active = false

				s.log.Info().
					Str("kind", record.Service.Kind).
					Str("host", record.Service.Name).
					Time("last_seen", record.LastSeen).
					Msg("Service marked inactive")

				data, err := msgpack.Marshal(record)
				if err != nil {
					return nil
				}
				return b.Put(k, data)
			}
			return nil
		})
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Database error during expiry check")
	}
}
