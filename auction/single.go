package auction

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
)

// SingleConfig carries the creation parameters of a single-asset auction.
type SingleConfig struct {
	// Owner lists the asset and receives the winning bid at close.
	Owner ledger.Address

	// Account is the auction's own ledger account. Attached bid value is
	// escrowed here until it is refunded or paid out.
	Account ledger.Address

	// AssetName describes the asset being sold.
	AssetName string

	// StartPrice seeds the highest bid; the first accepted bid must
	// strictly exceed it.
	StartPrice uint64

	// Duration is the bidding window, measured from creation.
	Duration time.Duration

	Bank   ledger.Bank
	Clock  ledger.Clock
	Events EventSink
}

// SingleAuction manages one auction for one named asset. It tracks the
// highest bidder, accumulates refund credits for outbid participants, and
// pays the owner when the auction is ended.
type SingleAuction struct {
	mu sync.Mutex

	owner      ledger.Address
	account    ledger.Address
	assetName  string
	startPrice uint64
	endTime    time.Time

	highestBid    uint64
	highestBidder ledger.Address
	ended         bool
	bids          map[ledger.Address]uint64 // refundable credits per outbid account

	bank   ledger.Bank
	clock  ledger.Clock
	events EventSink
}

// SingleSnapshot is a point-in-time copy of the auction state.
type SingleSnapshot struct {
	Owner         ledger.Address `json:"owner"`
	AssetName     string         `json:"asset_name"`
	StartPrice    uint64         `json:"start_price"`
	HighestBid    uint64         `json:"highest_bid"`
	HighestBidder ledger.Address `json:"highest_bidder,omitempty"`
	EndTime       time.Time      `json:"end_time"`
	Ended         bool           `json:"ended"`
}

// NewSingleAuction creates the auction and emits AuctionStarted. The end
// time is fixed at creation and never changes.
func NewSingleAuction(cfg SingleConfig) (*SingleAuction, error) {
	if cfg.Owner == ledger.Nobody {
		return nil, errors.New("owner is required")
	}
	if cfg.Bank == nil {
		return nil, errors.New("bank is required")
	}
	if cfg.Clock == nil {
		return nil, errors.New("clock is required")
	}

	a := &SingleAuction{
		owner:      cfg.Owner,
		account:    cfg.Account,
		assetName:  cfg.AssetName,
		startPrice: cfg.StartPrice,
		endTime:    cfg.Clock.Now().Add(cfg.Duration),
		highestBid: cfg.StartPrice,
		bids:       make(map[ledger.Address]uint64),
		bank:       cfg.Bank,
		clock:      cfg.Clock,
		events:     cfg.Events,
	}

	emit(a.events, AuctionStarted{
		AssetName:  a.assetName,
		StartPrice: a.startPrice,
		EndTime:    a.endTime,
	})
	return a, nil
}

// PlaceBid records call.Value as a new highest bid. The previous highest
// bidder's full bid is credited to their refundable balance; credits
// accumulate across repeated outbids.
func (a *SingleAuction) PlaceBid(call ledger.Call) error {
	a.mu.Lock()
	if !a.clock.Now().Before(a.endTime) {
		a.mu.Unlock()
		return ErrAuctionClosed
	}
	if call.Value <= a.highestBid {
		a.mu.Unlock()
		return fmt.Errorf("%w: got %d, need more than %d", ErrBidTooLow, call.Value, a.highestBid)
	}

	if a.highestBidder != ledger.Nobody {
		a.bids[a.highestBidder] += a.highestBid
	}
	a.highestBid = call.Value
	a.highestBidder = call.Caller
	a.mu.Unlock()

	emit(a.events, NewBid{Bidder: call.Caller, Amount: call.Value})
	return nil
}

// Withdraw pays out the caller's accumulated refund credit. The credit is
// zeroed before the transfer; if the transfer is rejected the credit is
// restored and the operation fails with ErrTransferFailed, leaving the
// caller free to retry.
func (a *SingleAuction) Withdraw(call ledger.Call) (uint64, error) {
	a.mu.Lock()
	amount := a.bids[call.Caller]
	if amount == 0 {
		a.mu.Unlock()
		return 0, ErrNothingToWithdraw
	}
	a.bids[call.Caller] = 0
	a.mu.Unlock()

	if err := a.bank.Transfer(a.account, call.Caller, amount); err != nil {
		a.mu.Lock()
		a.bids[call.Caller] += amount
		a.mu.Unlock()
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	emit(a.events, Withdrawal{Bidder: call.Caller, Amount: amount})
	return amount, nil
}

// End closes the auction and pays the highest bid to the owner. Only the
// owner may end, only after the end time, and only once. The ended flag is
// committed before the payout so a re-entrant call cannot end twice. If the
// owner payout is rejected the proceeds become a withdrawable credit for the
// owner instead of failing the close.
func (a *SingleAuction) End(call ledger.Call) error {
	a.mu.Lock()
	if call.Caller != a.owner {
		a.mu.Unlock()
		return ErrNotOwner
	}
	if a.clock.Now().Before(a.endTime) {
		a.mu.Unlock()
		return ErrStillRunning
	}
	if a.ended {
		a.mu.Unlock()
		return ErrAlreadyEnded
	}
	a.ended = true
	winner := a.highestBidder
	amount := uint64(0)
	if winner != ledger.Nobody {
		amount = a.highestBid
	}
	a.mu.Unlock()

	if amount > 0 {
		if err := a.bank.Transfer(a.account, a.owner, amount); err != nil {
			a.mu.Lock()
			a.bids[a.owner] += amount
			a.mu.Unlock()
		}
	}

	emit(a.events, AuctionEnded{Winner: winner, Amount: amount})
	return nil
}

// RemainingTime returns how long bidding stays open, or zero once the end
// time has passed.
func (a *SingleAuction) RemainingTime() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if rem := a.endTime.Sub(a.clock.Now()); rem > 0 {
		return rem
	}
	return 0
}

// Credit returns the refundable balance of an account.
func (a *SingleAuction) Credit(of ledger.Address) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bids[of]
}

// Snapshot returns a copy of the auction state.
func (a *SingleAuction) Snapshot() SingleSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return SingleSnapshot{
		Owner:         a.owner,
		AssetName:     a.assetName,
		StartPrice:    a.startPrice,
		HighestBid:    a.highestBid,
		HighestBidder: a.highestBidder,
		EndTime:       a.endTime,
		Ended:         a.ended,
	}
}
