package auction

import (
	"log/slog"
	"time"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
)

// Event is a notification emitted as part of a state change, for off-chain
// observers. Event values are JSON-serializable.
type Event interface {
	// Name returns the notification name, e.g. "BidPlaced".
	Name() string
}

// EventSink receives emitted events. Sinks are invoked outside the component
// mutex and must not call back into the emitting component.
type EventSink interface {
	Emit(Event)
}

// Single-asset auction notifications.

// AuctionStarted is emitted once at creation.
type AuctionStarted struct {
	AssetName  string    `json:"asset_name"`
	StartPrice uint64    `json:"start_price"`
	EndTime    time.Time `json:"end_time"`
}

func (AuctionStarted) Name() string { return "AuctionStarted" }

// NewBid is emitted for every accepted bid on the single-asset auction.
type NewBid struct {
	Bidder ledger.Address `json:"bidder"`
	Amount uint64         `json:"amount"`
}

func (NewBid) Name() string { return "NewBid" }

// AuctionEnded is emitted when the single-asset auction is ended by its
// owner. Winner is ledger.Nobody and Amount zero when no bid was placed.
type AuctionEnded struct {
	Winner ledger.Address `json:"winner"`
	Amount uint64         `json:"amount"`
}

func (AuctionEnded) Name() string { return "AuctionEnded" }

// Withdrawal is emitted after a successful refund withdrawal from the
// single-asset auction.
type Withdrawal struct {
	Bidder ledger.Address `json:"bidder"`
	Amount uint64         `json:"amount"`
}

func (Withdrawal) Name() string { return "Withdraw" }

// Auction house notifications.

// AuctionCreated is emitted when a listing is opened in the house.
type AuctionCreated struct {
	AuctionID    uint64         `json:"auction_id"`
	Seller       ledger.Address `json:"seller"`
	TokenAddress ledger.Address `json:"token_address"`
	TokenID      uint64         `json:"token_id"`
	MinBid       uint64         `json:"min_bid"`
	EndTime      time.Time      `json:"end_time"`
}

func (AuctionCreated) Name() string { return "AuctionCreated" }

// BidPlaced is emitted for every accepted bid in the house.
type BidPlaced struct {
	AuctionID uint64         `json:"auction_id"`
	Bidder    ledger.Address `json:"bidder"`
	Amount    uint64         `json:"amount"`
}

func (BidPlaced) Name() string { return "BidPlaced" }

// AuctionSettled is emitted when a house auction is settled. Winner is
// ledger.Nobody and Amount zero when the auction received no bid.
// PayoutDeferred indicates the direct seller payout failed and the proceeds
// were credited to the seller's pending returns instead.
type AuctionSettled struct {
	AuctionID      uint64         `json:"auction_id"`
	Winner         ledger.Address `json:"winner"`
	Amount         uint64         `json:"amount"`
	PayoutDeferred bool           `json:"payout_deferred,omitempty"`
}

func (AuctionSettled) Name() string { return "AuctionSettled" }

// Withdrawn is emitted after a successful withdrawal from the house's
// pending-returns ledger.
type Withdrawn struct {
	User   ledger.Address `json:"user"`
	Amount uint64         `json:"amount"`
}

func (Withdrawn) Name() string { return "Withdrawn" }

// MultiSink fans an event out to several sinks.
type MultiSink []EventSink

// Emit delivers the event to every sink in order.
func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// LogSink writes events to a structured logger.
type LogSink struct {
	Log *slog.Logger
}

// Emit logs the event at info level.
func (s LogSink) Emit(ev Event) {
	s.Log.Info(ev.Name(), slog.Any("event", ev))
}

// emit is a nil-tolerant helper so components can run without a sink.
func emit(sink EventSink, ev Event) {
	if sink != nil {
		sink.Emit(ev)
	}
}
