package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/auction"
)

// StoredEvent is one notification in the durable event feed. Seq is assigned
// by the store, monotonically from 1.
type StoredEvent struct {
	Seq     int64           `json:"seq"`
	Name    string          `json:"name"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// Store persists auction listings and the emitted event feed for off-chain
// observers. The contracts remain the source of truth; the store is a
// mirror that survives restarts and serves queries.
type Store interface {
	// SaveEvent appends a notification and returns its sequence number.
	SaveEvent(ctx context.Context, name string, at time.Time, payload any) (int64, error)

	// EventsSince returns up to limit events with Seq > since, in order.
	EventsSince(ctx context.Context, since int64, limit int) ([]StoredEvent, error)

	// SaveAuction upserts a listing snapshot.
	SaveAuction(ctx context.Context, lst auction.Listing) error

	// Auctions returns every stored listing, ordered by id.
	Auctions(ctx context.Context) ([]auction.Listing, error)

	Close() error
}

// MemoryStore is the in-process Store used in tests and when the service
// runs without Postgres.
type MemoryStore struct {
	mu       sync.Mutex
	nextSeq  int64
	events   []StoredEvent
	listings map[uint64]auction.Listing
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{listings: make(map[uint64]auction.Listing)}
}

// SaveEvent appends a notification to the in-memory feed.
func (s *MemoryStore) SaveEvent(_ context.Context, name string, at time.Time, payload any) (int64, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshaling event payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.events = append(s.events, StoredEvent{
		Seq:     s.nextSeq,
		Name:    name,
		At:      at,
		Payload: data,
	})
	return s.nextSeq, nil
}

// EventsSince returns events after the given sequence number.
func (s *MemoryStore) EventsSince(_ context.Context, since int64, limit int) ([]StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := sort.Search(len(s.events), func(i int) bool { return s.events[i].Seq > since })
	out := s.events[idx:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	res := make([]StoredEvent, len(out))
	copy(res, out)
	return res, nil
}

// SaveAuction upserts a listing snapshot.
func (s *MemoryStore) SaveAuction(_ context.Context, lst auction.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[lst.ID] = lst
	return nil
}

// Auctions returns every stored listing, ordered by id.
func (s *MemoryStore) Auctions(_ context.Context) ([]auction.Listing, error) {
	s.mu.Lock()
	out := make([]auction.Listing, 0, len(s.listings))
	for _, lst := range s.listings {
		out = append(out, lst)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
