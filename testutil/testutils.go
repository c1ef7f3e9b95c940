package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/auction"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
)

// FakeClock is a ledger.Clock whose time only moves when told to.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock frozen at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the clock's current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward (or backward, with a negative duration).
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to an absolute time.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Addr returns a deterministic test address.
func Addr(i int) ledger.Address {
	return ledger.Address(fmt.Sprintf("0x%040x", i))
}

// RecordingSink collects emitted events for assertions.
type RecordingSink struct {
	mu     sync.Mutex
	events []auction.Event
}

// Emit appends the event to the record.
func (s *RecordingSink) Emit(ev auction.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of everything emitted so far.
func (s *RecordingSink) Events() []auction.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auction.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Last returns the most recent event, or nil if none was emitted.
func (s *RecordingSink) Last() auction.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	return s.events[len(s.events)-1]
}

// Named returns every recorded event with the given name.
func (s *RecordingSink) Named(name string) []auction.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auction.Event
	for _, ev := range s.events {
		if ev.Name() == name {
			out = append(out, ev)
		}
	}
	return out
}
