package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/auction"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
)

type subscriber struct {
	ctx context.Context
	ch  chan StoredEvent
}

// Broadcaster fans stored events out to live subscribers (the SSE stream).
// Slow subscribers are skipped rather than blocking the emitter.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers []subscriber
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe returns a channel that receives events until ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan StoredEvent {
	ch := make(chan StoredEvent, 16)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, subscriber{ctx: ctx, ch: ch})
	b.mu.Unlock()
	return ch
}

// Publish delivers the event to every live subscriber.
func (b *Broadcaster) Publish(ev StoredEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.subscribers[:0]
	for _, sub := range b.subscribers {
		select {
		case <-sub.ctx.Done():
			close(sub.ch)
			continue
		default:
		}
		select {
		case sub.ch <- ev:
		default: // subscriber is not keeping up, drop the event
		}
		kept = append(kept, sub)
	}
	b.subscribers = kept
}

// StoreSink is an auction.EventSink that persists every notification,
// mirrors house listing snapshots into the store, and feeds live
// subscribers. Persistence failures are logged, never surfaced to the
// contracts: the in-memory components stay the source of truth.
type StoreSink struct {
	Store       Store
	Broadcaster *Broadcaster
	Log         *slog.Logger
	Clock       ledger.Clock

	// Lookup resolves a house listing for mirroring; nil disables mirroring.
	Lookup func(auctionID uint64) (auction.Listing, error)
}

// Emit records the event and mirrors the affected listing, if any.
func (s *StoreSink) Emit(ev auction.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seq, err := s.Store.SaveEvent(ctx, ev.Name(), s.now(), ev)
	if err != nil {
		s.Log.Error("persisting event failed", "event", ev.Name(), "err", err)
		return
	}

	if s.Broadcaster != nil {
		s.Broadcaster.Publish(StoredEvent{Seq: seq, Name: ev.Name(), At: s.now()})
	}

	if id, ok := houseAuctionID(ev); ok && s.Lookup != nil {
		lst, err := s.Lookup(id)
		if err != nil {
			s.Log.Error("looking up listing for mirror failed", "auctionID", id, "err", err)
			return
		}
		if err := s.Store.SaveAuction(ctx, lst); err != nil {
			s.Log.Error("mirroring listing failed", "auctionID", id, "err", err)
		}
	}
}

func (s *StoreSink) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

// houseAuctionID extracts the listing id from house notifications.
func houseAuctionID(ev auction.Event) (uint64, bool) {
	switch e := ev.(type) {
	case auction.AuctionCreated:
		return e.AuctionID, true
	case auction.BidPlaced:
		return e.AuctionID, true
	case auction.AuctionSettled:
		return e.AuctionID, true
	default:
		return 0, false
	}
}
