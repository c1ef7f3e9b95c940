package ledger

import (
	"errors"
	"time"
)

// Address identifies an account on the ledger. The zero value means
// "no account" and is used as the no-bidder sentinel.
type Address string

// Nobody is the empty-address sentinel.
const Nobody Address = ""

// Call carries the implicit context of a ledger transaction: who sent it
// and how much value was attached.
type Call struct {
	Caller Address
	Value  uint64
}

// Bank is the value-transfer primitive. Transfer moves amount from one
// account to another and reports failure synchronously. Implementations may
// invoke recipient-controlled code before returning, so callers must not
// hold any lock across a Transfer and must commit their own state first.
type Bank interface {
	Transfer(from, to Address, amount uint64) error
}

// TokenRegistry is the ownership registry for externally-owned tokens.
// Tokens are identified by the address of their collection plus a numeric id.
type TokenRegistry interface {
	// OwnerOf returns the current owner of a token.
	OwnerOf(token Address, tokenID uint64) (Address, error)

	// Approved returns the single account approved to move a token,
	// or Nobody if none is set.
	Approved(token Address, tokenID uint64) Address

	// ApprovedForAll reports whether operator may move every token the
	// owner holds in the collection.
	ApprovedForAll(token, owner, operator Address) bool

	// TransferFrom moves a token between accounts. It fails if from is
	// not the current owner.
	TransferFrom(token Address, from, to Address, tokenID uint64) error
}

// Clock abstracts block time so tests can control it.
type Clock interface {
	Now() time.Time
}

// WallClock is the production Clock.
type WallClock struct{}

// Now returns the current wall-clock time.
func (WallClock) Now() time.Time { return time.Now() }

// Errors reported by the in-memory ledger implementations.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTransferRejected  = errors.New("transfer rejected by recipient")
	ErrUnknownToken      = errors.New("unknown token")
	ErrTokenExists       = errors.New("token already minted")
	ErrNotTokenHolder    = errors.New("account does not hold the token")
)
