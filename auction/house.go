package auction

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
)

// MinAuctionDuration is the shortest bidding window the house accepts.
const MinAuctionDuration = 60 * time.Second

// MinimumBid returns the smallest acceptable bid for a listing: the floor
// while no bid exists, afterwards the highest bid plus a 5% increment,
// rounded up.
func MinimumBid(highestBid, minBid uint64) uint64 {
	if highestBid == 0 {
		return minBid
	}
	return highestBid + (highestBid*5+99)/100
}

// Listing is one auction record in the house. Seller, token and floor are
// immutable after creation.
type Listing struct {
	ID            uint64         `json:"auction_id"`
	Seller        ledger.Address `json:"seller"`
	TokenAddress  ledger.Address `json:"token_address"`
	TokenID       uint64         `json:"token_id"`
	MinBid        uint64         `json:"min_bid"`
	HighestBid    uint64         `json:"highest_bid"`
	HighestBidder ledger.Address `json:"highest_bidder,omitempty"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	Settled       bool           `json:"settled"`
}

// HouseConfig carries the collaborators a House needs from the host ledger.
type HouseConfig struct {
	// Account is the house's own ledger account, holding escrowed bids.
	Account ledger.Address

	Bank   ledger.Bank
	Tokens ledger.TokenRegistry
	Clock  ledger.Clock
	Events EventSink
}

// House manages many concurrent auctions for externally-owned tokens.
// Auction ids are assigned sequentially starting at 1. Refunds owed to
// outbid bidders accumulate in a single pending-returns ledger shared across
// all auctions and withdrawable at any time.
type House struct {
	mu sync.Mutex

	account ledger.Address
	bank    ledger.Bank
	tokens  ledger.TokenRegistry
	clock   ledger.Clock
	events  EventSink

	nextID         uint64
	auctions       map[uint64]*Listing
	pendingReturns map[ledger.Address]uint64
}

// NewHouse creates an empty auction house.
func NewHouse(cfg HouseConfig) (*House, error) {
	if cfg.Bank == nil {
		return nil, errors.New("bank is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token registry is required")
	}
	if cfg.Clock == nil {
		return nil, errors.New("clock is required")
	}
	return &House{
		account:        cfg.Account,
		bank:           cfg.Bank,
		tokens:         cfg.Tokens,
		clock:          cfg.Clock,
		events:         cfg.Events,
		auctions:       make(map[uint64]*Listing),
		pendingReturns: make(map[ledger.Address]uint64),
	}, nil
}

// CreateAuction opens a listing for a token the caller owns. The caller must
// have pre-authorized the house to move the token, either with a single-token
// approval or a blanket operator approval. The bidding window opens
// immediately and must be at least MinAuctionDuration long.
func (h *House) CreateAuction(call ledger.Call, token ledger.Address, tokenID uint64, minBid uint64, duration time.Duration) (uint64, error) {
	if duration < MinAuctionDuration {
		return 0, fmt.Errorf("%w: %s, need at least %s", ErrDurationTooShort, duration, MinAuctionDuration)
	}

	owner, err := h.tokens.OwnerOf(token, tokenID)
	if err != nil || owner != call.Caller {
		return 0, ErrNotTokenOwner
	}
	if h.tokens.Approved(token, tokenID) != h.account &&
		!h.tokens.ApprovedForAll(token, call.Caller, h.account) {
		return 0, ErrNotApproved
	}

	h.mu.Lock()
	h.nextID++
	now := h.clock.Now()
	lst := &Listing{
		ID:           h.nextID,
		Seller:       call.Caller,
		TokenAddress: token,
		TokenID:      tokenID,
		MinBid:       minBid,
		StartTime:    now,
		EndTime:      now.Add(duration),
	}
	h.auctions[lst.ID] = lst
	created := *lst
	h.mu.Unlock()

	emit(h.events, AuctionCreated{
		AuctionID:    created.ID,
		Seller:       created.Seller,
		TokenAddress: created.TokenAddress,
		TokenID:      created.TokenID,
		MinBid:       created.MinBid,
		EndTime:      created.EndTime,
	})
	return created.ID, nil
}

// Bid records call.Value as the new highest bid on a listing. The previous
// highest bidder's full bid is credited to the shared pending-returns
// ledger. A bid is accepted only inside the listing's bidding window and
// only when it meets MinimumBid.
func (h *House) Bid(call ledger.Call, auctionID uint64) error {
	h.mu.Lock()
	lst, ok := h.auctions[auctionID]
	if !ok {
		h.mu.Unlock()
		return ErrAuctionNotFound
	}
	now := h.clock.Now()
	if now.Before(lst.StartTime) || !now.Before(lst.EndTime) {
		h.mu.Unlock()
		return ErrAuctionNotActive
	}
	required := MinimumBid(lst.HighestBid, lst.MinBid)
	if call.Value < required {
		h.mu.Unlock()
		return fmt.Errorf("%w: got %d, need at least %d", ErrBidTooLow, call.Value, required)
	}

	if lst.HighestBidder != ledger.Nobody {
		h.pendingReturns[lst.HighestBidder] += lst.HighestBid
	}
	lst.HighestBid = call.Value
	lst.HighestBidder = call.Caller
	h.mu.Unlock()

	emit(h.events, BidPlaced{AuctionID: auctionID, Bidder: call.Caller, Amount: call.Value})
	return nil
}

// Withdraw pays out the caller's pending returns. The balance is zeroed
// before the transfer; if the transfer is rejected the balance is restored
// and the operation fails with ErrTransferFailed.
func (h *House) Withdraw(call ledger.Call) (uint64, error) {
	h.mu.Lock()
	amount := h.pendingReturns[call.Caller]
	if amount == 0 {
		h.mu.Unlock()
		return 0, ErrNothingToWithdraw
	}
	h.pendingReturns[call.Caller] = 0
	h.mu.Unlock()

	if err := h.bank.Transfer(h.account, call.Caller, amount); err != nil {
		h.mu.Lock()
		h.pendingReturns[call.Caller] += amount
		h.mu.Unlock()
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	emit(h.events, Withdrawn{User: call.Caller, Amount: amount})
	return amount, nil
}

// Settle finalizes an ended listing, exactly once. With no bidder the seller
// simply keeps the token and a zero-winner settlement is emitted. Otherwise
// the token moves from seller to winner and the escrowed highest bid is
// forwarded to the seller.
//
// The settled flag is committed before any external effect. If the token
// transfer fails nothing has left the house, so the flag is rolled back and
// the whole operation fails. If the seller payout fails after the token has
// moved, the proceeds are credited to the seller's pending returns instead
// of being lost; the settlement stands and the error wraps
// ErrSellerPayoutFailed. This is the one operation whose effects can
// partially survive a failure.
func (h *House) Settle(call ledger.Call, auctionID uint64) error {
	h.mu.Lock()
	lst, ok := h.auctions[auctionID]
	if !ok {
		h.mu.Unlock()
		return ErrAuctionNotFound
	}
	if h.clock.Now().Before(lst.EndTime) {
		h.mu.Unlock()
		return ErrAuctionNotEnded
	}
	if lst.Settled {
		h.mu.Unlock()
		return ErrAlreadySettled
	}
	lst.Settled = true
	seller := lst.Seller
	winner := lst.HighestBidder
	amount := lst.HighestBid
	token := lst.TokenAddress
	tokenID := lst.TokenID
	h.mu.Unlock()

	if winner == ledger.Nobody {
		emit(h.events, AuctionSettled{AuctionID: auctionID, Winner: ledger.Nobody, Amount: 0})
		return nil
	}

	if err := h.tokens.TransferFrom(token, seller, winner, tokenID); err != nil {
		h.mu.Lock()
		lst.Settled = false
		h.mu.Unlock()
		return fmt.Errorf("%w: token transfer: %v", ErrTransferFailed, err)
	}

	if err := h.bank.Transfer(h.account, seller, amount); err != nil {
		h.mu.Lock()
		h.pendingReturns[seller] += amount
		h.mu.Unlock()
		emit(h.events, AuctionSettled{AuctionID: auctionID, Winner: winner, Amount: amount, PayoutDeferred: true})
		return fmt.Errorf("%w, proceeds credited to pending returns: %v", ErrSellerPayoutFailed, err)
	}

	emit(h.events, AuctionSettled{AuctionID: auctionID, Winner: winner, Amount: amount})
	return nil
}

// GetAuction returns a snapshot of one listing.
func (h *House) GetAuction(auctionID uint64) (Listing, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lst, ok := h.auctions[auctionID]
	if !ok {
		return Listing{}, ErrAuctionNotFound
	}
	return *lst, nil
}

// Auctions returns snapshots of every listing, ordered by id.
func (h *House) Auctions() []Listing {
	h.mu.Lock()
	out := make([]Listing, 0, len(h.auctions))
	for _, lst := range h.auctions {
		out = append(out, *lst)
	}
	h.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PendingReturn returns the withdrawable balance of an account.
func (h *House) PendingReturn(of ledger.Address) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pendingReturns[of]
}
