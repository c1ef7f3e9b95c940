package auction

import "errors"

// Authorization failures.
var (
	ErrNotOwner      = errors.New("caller is not the auction owner")
	ErrNotTokenOwner = errors.New("caller does not own the token")
	ErrNotApproved   = errors.New("house is not approved to move the token")
)

// Timing failures.
var (
	ErrAuctionClosed    = errors.New("auction is closed for bidding")
	ErrStillRunning     = errors.New("auction is still running")
	ErrAuctionNotActive = errors.New("auction is not active")
	ErrAuctionNotEnded  = errors.New("auction has not ended")
	ErrDurationTooShort = errors.New("auction duration is too short")
)

// State failures.
var (
	ErrAlreadyEnded    = errors.New("auction already ended")
	ErrAlreadySettled  = errors.New("auction already settled")
	ErrAuctionNotFound = errors.New("auction not found")
)

// Value failures.
var (
	ErrBidTooLow         = errors.New("bid below required minimum")
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
)

// External-effect failures.
var (
	ErrTransferFailed     = errors.New("outbound transfer failed")
	ErrSellerPayoutFailed = errors.New("seller payout failed")
)
