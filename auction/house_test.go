package auction_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/auction"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/testutil"
)

type houseFixture struct {
	house  *auction.House
	bank   *ledger.MemoryBank
	tokens *ledger.MemoryTokens
	clock  *testutil.FakeClock
	sink   *testutil.RecordingSink

	account ledger.Address
}

func newHouseFixture(t *testing.T) *houseFixture {
	t.Helper()

	f := &houseFixture{
		bank:    ledger.NewMemoryBank(),
		tokens:  ledger.NewMemoryTokens(),
		clock:   testutil.NewFakeClock(time.Unix(1_700_000_000, 0)),
		sink:    &testutil.RecordingSink{},
		account: ledger.Address("0xhouse"),
	}

	h, err := auction.NewHouse(auction.HouseConfig{
		Account: f.account,
		Bank:    f.bank,
		Tokens:  f.tokens,
		Clock:   f.clock,
		Events:  f.sink,
	})
	require.NoError(t, err)
	f.house = h
	return f
}

// listToken mints a token to the seller, approves the house for it, and
// opens an auction.
func (f *houseFixture) listToken(t *testing.T, seller ledger.Address, token ledger.Address, tokenID, minBid uint64, duration time.Duration) uint64 {
	t.Helper()
	require.NoError(t, f.tokens.Mint(token, tokenID, seller))
	require.NoError(t, f.tokens.Approve(seller, token, tokenID, f.account))
	id, err := f.house.CreateAuction(ledger.Call{Caller: seller}, token, tokenID, minBid, duration)
	require.NoError(t, err)
	return id
}

// bid escrows the attached value with the house like the host ledger would,
// refunding it when the bid is rejected.
func (f *houseFixture) bid(t *testing.T, from ledger.Address, auctionID, amount uint64) error {
	t.Helper()
	f.bank.Mint(from, amount)
	require.NoError(t, f.bank.Transfer(from, f.account, amount))
	err := f.house.Bid(ledger.Call{Caller: from, Value: amount}, auctionID)
	if err != nil {
		require.NoError(t, f.bank.Transfer(f.account, from, amount))
	}
	return err
}

const collection = ledger.Address("0xc011ec7101")

func TestHouse_CreateAuctionPreconditions(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	require.NoError(t, f.tokens.Mint(collection, 7, seller))

	_, err := f.house.CreateAuction(ledger.Call{Caller: seller}, collection, 7, 100, 30*time.Second)
	require.ErrorIs(t, err, auction.ErrDurationTooShort)

	_, err = f.house.CreateAuction(ledger.Call{Caller: testutil.Addr(2)}, collection, 7, 100, time.Minute)
	require.ErrorIs(t, err, auction.ErrNotTokenOwner)

	_, err = f.house.CreateAuction(ledger.Call{Caller: seller}, collection, 8, 100, time.Minute)
	require.ErrorIs(t, err, auction.ErrNotTokenOwner, "unknown token")

	_, err = f.house.CreateAuction(ledger.Call{Caller: seller}, collection, 7, 100, time.Minute)
	require.ErrorIs(t, err, auction.ErrNotApproved)

	require.NoError(t, f.tokens.Approve(seller, collection, 7, f.account))
	id, err := f.house.CreateAuction(ledger.Call{Caller: seller}, collection, 7, 100, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestHouse_CreateAuctionWithOperatorApproval(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	require.NoError(t, f.tokens.Mint(collection, 7, seller))
	f.tokens.SetApprovalForAll(seller, collection, f.account, true)

	_, err := f.house.CreateAuction(ledger.Call{Caller: seller}, collection, 7, 100, time.Minute)
	require.NoError(t, err)
}

func TestHouse_AuctionIDsAreSequential(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)

	for i := uint64(1); i <= 3; i++ {
		id := f.listToken(t, seller, collection, i, 100, time.Minute)
		assert.Equal(t, i, id)
	}
}

func TestHouse_MinimumIncrementScenario(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	first := testutil.Addr(2)
	second := testutil.Addr(3)

	id := f.listToken(t, seller, collection, 7, 100, time.Minute)

	// First bid must meet the floor exactly.
	err := f.bid(t, first, id, 99)
	require.ErrorIs(t, err, auction.ErrBidTooLow)
	require.NoError(t, f.bid(t, first, id, 100))

	// Next bid must be at least 100 + 5% = 105.
	err = f.bid(t, second, id, 104)
	require.ErrorIs(t, err, auction.ErrBidTooLow)
	require.NoError(t, f.bid(t, second, id, 105))

	assert.Equal(t, uint64(100), f.house.PendingReturn(first))
}

func TestMinimumBid(t *testing.T) {
	tests := []struct {
		highest, floor, want uint64
	}{
		{0, 100, 100},
		{100, 100, 105},
		{105, 100, 111},  // ceil(105*1.05) = ceil(110.25)
		{1, 1, 2},        // ceil(1.05)
		{19, 1, 20},      // ceil(19.95)
		{20, 1, 21},      // exactly one increment unit
		{1000, 50, 1050},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, auction.MinimumBid(tt.highest, tt.floor),
			"highest=%d floor=%d", tt.highest, tt.floor)
	}
}

func TestHouse_BidWindow(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	bidder := testutil.Addr(2)

	id := f.listToken(t, seller, collection, 7, 100, time.Minute)

	// Before the start time.
	f.clock.Advance(-time.Second)
	err := f.bid(t, bidder, id, 100)
	require.ErrorIs(t, err, auction.ErrAuctionNotActive)
	f.clock.Advance(time.Second)

	// At exactly the end time.
	f.clock.Advance(time.Minute)
	err = f.bid(t, bidder, id, 100)
	require.ErrorIs(t, err, auction.ErrAuctionNotActive)
}

func TestHouse_BidUnknownAuction(t *testing.T) {
	f := newHouseFixture(t)
	err := f.house.Bid(ledger.Call{Caller: testutil.Addr(2), Value: 100}, 42)
	require.ErrorIs(t, err, auction.ErrAuctionNotFound)

	_, err = f.house.GetAuction(42)
	require.ErrorIs(t, err, auction.ErrAuctionNotFound)
}

func TestHouse_SettleWithWinner(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	winner := testutil.Addr(2)

	id := f.listToken(t, seller, collection, 7, 100, time.Minute)
	require.NoError(t, f.bid(t, winner, id, 100))

	err := f.house.Settle(ledger.Call{Caller: winner}, id)
	require.ErrorIs(t, err, auction.ErrAuctionNotEnded)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.house.Settle(ledger.Call{Caller: winner}, id))

	owner, err := f.tokens.OwnerOf(collection, 7)
	require.NoError(t, err)
	assert.Equal(t, winner, owner, "token moved to the winner")
	assert.Equal(t, uint64(100), f.bank.Balance(seller), "seller received the highest bid")

	err = f.house.Settle(ledger.Call{Caller: winner}, id)
	require.ErrorIs(t, err, auction.ErrAlreadySettled)

	settled := f.sink.Named("AuctionSettled")
	require.Len(t, settled, 1)
	assert.Equal(t, auction.AuctionSettled{AuctionID: id, Winner: winner, Amount: 100}, settled[0])
}

func TestHouse_SettleWithoutBids(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)

	id := f.listToken(t, seller, collection, 7, 100, time.Minute)
	f.clock.Advance(time.Minute)
	require.NoError(t, f.house.Settle(ledger.Call{Caller: seller}, id))

	owner, err := f.tokens.OwnerOf(collection, 7)
	require.NoError(t, err)
	assert.Equal(t, seller, owner, "seller keeps the token")

	settled := f.sink.Named("AuctionSettled")
	require.Len(t, settled, 1)
	assert.Equal(t, auction.AuctionSettled{AuctionID: id, Winner: ledger.Nobody, Amount: 0}, settled[0])

	lst, err := f.house.GetAuction(id)
	require.NoError(t, err)
	assert.True(t, lst.Settled)
}

func TestHouse_SettleUnknownAuction(t *testing.T) {
	f := newHouseFixture(t)
	err := f.house.Settle(ledger.Call{Caller: testutil.Addr(1)}, 42)
	require.ErrorIs(t, err, auction.ErrAuctionNotFound)
}

func TestHouse_SettleRolledBackWhenTokenTransferFails(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	winner := testutil.Addr(2)

	id := f.listToken(t, seller, collection, 7, 100, time.Minute)
	require.NoError(t, f.bid(t, winner, id, 100))
	f.clock.Advance(time.Minute)

	// Seller moves the token away before settlement; the registry rejects
	// the transfer and the settlement must remain attemptable.
	require.NoError(t, f.tokens.TransferFrom(collection, seller, testutil.Addr(9), 7))

	err := f.house.Settle(ledger.Call{Caller: winner}, id)
	require.ErrorIs(t, err, auction.ErrTransferFailed)

	lst, err := f.house.GetAuction(id)
	require.NoError(t, err)
	assert.False(t, lst.Settled, "settled flag rolled back, nothing left the house")
}

func TestHouse_SettleDefersPayoutWhenSellerRejectsFunds(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	winner := testutil.Addr(2)

	id := f.listToken(t, seller, collection, 7, 100, time.Minute)
	require.NoError(t, f.bid(t, winner, id, 100))
	f.clock.Advance(time.Minute)

	f.bank.RejectIncoming(seller, true)
	err := f.house.Settle(ledger.Call{Caller: winner}, id)
	require.ErrorIs(t, err, auction.ErrSellerPayoutFailed)

	// The token has moved and the settlement stands; the proceeds are held
	// in pending returns for the seller instead of being lost.
	owner, err := f.tokens.OwnerOf(collection, 7)
	require.NoError(t, err)
	assert.Equal(t, winner, owner)
	lst, err := f.house.GetAuction(id)
	require.NoError(t, err)
	assert.True(t, lst.Settled)
	assert.Equal(t, uint64(100), f.house.PendingReturn(seller))

	f.bank.RejectIncoming(seller, false)
	got, err := f.house.Withdraw(ledger.Call{Caller: seller})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got)
	assert.Equal(t, uint64(100), f.bank.Balance(seller))
}

func TestHouse_PendingReturnsSharedAcrossAuctions(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	loser := testutil.Addr(2)
	rival := testutil.Addr(3)

	first := f.listToken(t, seller, collection, 7, 100, time.Minute)
	second := f.listToken(t, seller, collection, 8, 200, time.Minute)

	require.NoError(t, f.bid(t, loser, first, 100))
	require.NoError(t, f.bid(t, loser, second, 200))
	require.NoError(t, f.bid(t, rival, first, 105))
	require.NoError(t, f.bid(t, rival, second, 210))

	// Outbid in both auctions; one shared ledger accumulates both credits.
	assert.Equal(t, uint64(300), f.house.PendingReturn(loser))

	got, err := f.house.Withdraw(ledger.Call{Caller: loser})
	require.NoError(t, err)
	assert.Equal(t, uint64(300), got)

	_, err = f.house.Withdraw(ledger.Call{Caller: loser})
	require.ErrorIs(t, err, auction.ErrNothingToWithdraw)
}

func TestHouse_WithdrawRestoresBalanceOnRejectedTransfer(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	loser := testutil.Addr(2)

	id := f.listToken(t, seller, collection, 7, 100, time.Minute)
	require.NoError(t, f.bid(t, loser, id, 100))
	require.NoError(t, f.bid(t, testutil.Addr(3), id, 105))

	f.bank.RejectIncoming(loser, true)
	_, err := f.house.Withdraw(ledger.Call{Caller: loser})
	require.ErrorIs(t, err, auction.ErrTransferFailed)
	assert.Equal(t, uint64(100), f.house.PendingReturn(loser))
}

func TestHouse_ReentrantWithdrawCannotDoubleSpend(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	loser := testutil.Addr(2)

	id := f.listToken(t, seller, collection, 7, 100, time.Minute)
	require.NoError(t, f.bid(t, loser, id, 100))
	require.NoError(t, f.bid(t, testutil.Addr(3), id, 105))

	var nestedErr error
	f.bank.OnReceive(loser, func(ledger.Address, uint64) {
		f.bank.OnReceive(loser, nil)
		_, nestedErr = f.house.Withdraw(ledger.Call{Caller: loser})
	})

	got, err := f.house.Withdraw(ledger.Call{Caller: loser})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got)
	require.ErrorIs(t, nestedErr, auction.ErrNothingToWithdraw)
	assert.Equal(t, uint64(100), f.bank.Balance(loser))
}

func TestHouse_GetAuctionSnapshot(t *testing.T) {
	f := newHouseFixture(t)
	seller := testutil.Addr(1)
	bidder := testutil.Addr(2)

	id := f.listToken(t, seller, collection, 7, 100, 2*time.Minute)
	require.NoError(t, f.bid(t, bidder, id, 150))

	lst, err := f.house.GetAuction(id)
	require.NoError(t, err)
	assert.Equal(t, seller, lst.Seller)
	assert.Equal(t, collection, lst.TokenAddress)
	assert.Equal(t, uint64(7), lst.TokenID)
	assert.Equal(t, uint64(150), lst.HighestBid)
	assert.Equal(t, bidder, lst.HighestBidder)
	assert.False(t, lst.Settled)

	// Snapshot is a copy: mutating it must not touch house state.
	lst.HighestBid = 9999
	again, err := f.house.GetAuction(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), again.HighestBid)

	all := f.house.Auctions()
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
}
