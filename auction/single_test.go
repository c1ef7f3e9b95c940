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

type singleFixture struct {
	auction *auction.SingleAuction
	bank    *ledger.MemoryBank
	clock   *testutil.FakeClock
	sink    *testutil.RecordingSink

	owner   ledger.Address
	account ledger.Address
}

func newSingleFixture(t *testing.T, startPrice uint64, duration time.Duration) *singleFixture {
	t.Helper()

	f := &singleFixture{
		bank:    ledger.NewMemoryBank(),
		clock:   testutil.NewFakeClock(time.Unix(1_700_000_000, 0)),
		sink:    &testutil.RecordingSink{},
		owner:   testutil.Addr(1),
		account: ledger.Address("0xauction"),
	}

	a, err := auction.NewSingleAuction(auction.SingleConfig{
		Owner:      f.owner,
		Account:    f.account,
		AssetName:  "vintage synth",
		StartPrice: startPrice,
		Duration:   duration,
		Bank:       f.bank,
		Clock:      f.clock,
		Events:     f.sink,
	})
	require.NoError(t, err)
	f.auction = a
	return f
}

// bid escrows the attached value in the auction account the way the host
// ledger would, then places the bid, refunding on rejection.
func (f *singleFixture) bid(t *testing.T, from ledger.Address, amount uint64) error {
	t.Helper()
	f.bank.Mint(from, amount)
	require.NoError(t, f.bank.Transfer(from, f.account, amount))
	err := f.auction.PlaceBid(ledger.Call{Caller: from, Value: amount})
	if err != nil {
		require.NoError(t, f.bank.Transfer(f.account, from, amount))
	}
	return err
}

func TestSingleAuction_Scenario(t *testing.T) {
	f := newSingleFixture(t, 100, time.Hour)
	bidderA := testutil.Addr(2)
	bidderB := testutil.Addr(3)

	require.NoError(t, f.bid(t, bidderA, 150))
	assert.Equal(t, uint64(150), f.auction.Snapshot().HighestBid)

	err := f.bid(t, bidderB, 120)
	require.ErrorIs(t, err, auction.ErrBidTooLow)

	require.NoError(t, f.bid(t, bidderB, 200))
	assert.Equal(t, uint64(150), f.auction.Credit(bidderA), "outbid bidder is credited their full prior bid")

	f.clock.Advance(time.Hour)
	require.NoError(t, f.auction.End(ledger.Call{Caller: f.owner}))

	assert.Equal(t, uint64(200), f.bank.Balance(f.owner))
	ended := f.sink.Named("AuctionEnded")
	require.Len(t, ended, 1)
	assert.Equal(t, auction.AuctionEnded{Winner: bidderB, Amount: 200}, ended[0])
}

func TestSingleAuction_FirstBidMustExceedStartPrice(t *testing.T) {
	f := newSingleFixture(t, 100, time.Hour)

	err := f.bid(t, testutil.Addr(2), 100)
	require.ErrorIs(t, err, auction.ErrBidTooLow)

	require.NoError(t, f.bid(t, testutil.Addr(2), 101))
}

func TestSingleAuction_HighestBidMonotonic(t *testing.T) {
	f := newSingleFixture(t, 10, time.Hour)

	amounts := []uint64{20, 15, 30, 30, 45}
	last := uint64(10)
	for i, amount := range amounts {
		err := f.bid(t, testutil.Addr(10+i), amount)
		got := f.auction.Snapshot().HighestBid
		assert.GreaterOrEqual(t, got, last)
		if err == nil {
			assert.Equal(t, amount, got, "accepted bid becomes the highest bid")
		}
		last = got
	}
	assert.Equal(t, uint64(45), last)
}

func TestSingleAuction_BidAfterEndTime(t *testing.T) {
	f := newSingleFixture(t, 100, time.Hour)

	f.clock.Advance(time.Hour) // exactly endTime
	err := f.bid(t, testutil.Addr(2), 500)
	require.ErrorIs(t, err, auction.ErrAuctionClosed)
}

func TestSingleAuction_WithdrawAccumulatesAndIsIdempotent(t *testing.T) {
	f := newSingleFixture(t, 100, time.Hour)
	bidderA := testutil.Addr(2)
	bidderB := testutil.Addr(3)

	// A is outbid twice; credits must accumulate.
	require.NoError(t, f.bid(t, bidderA, 150))
	require.NoError(t, f.bid(t, bidderB, 200))
	require.NoError(t, f.bid(t, bidderA, 300))
	require.NoError(t, f.bid(t, bidderB, 400))
	assert.Equal(t, uint64(450), f.auction.Credit(bidderA))

	got, err := f.auction.Withdraw(ledger.Call{Caller: bidderA})
	require.NoError(t, err)
	assert.Equal(t, uint64(450), got)
	assert.Equal(t, uint64(450), f.bank.Balance(bidderA))

	_, err = f.auction.Withdraw(ledger.Call{Caller: bidderA})
	require.ErrorIs(t, err, auction.ErrNothingToWithdraw)
}

func TestSingleAuction_WithdrawRestoresCreditOnRejectedTransfer(t *testing.T) {
	f := newSingleFixture(t, 100, time.Hour)
	bidderA := testutil.Addr(2)

	require.NoError(t, f.bid(t, bidderA, 150))
	require.NoError(t, f.bid(t, testutil.Addr(3), 200))

	f.bank.RejectIncoming(bidderA, true)
	_, err := f.auction.Withdraw(ledger.Call{Caller: bidderA})
	require.ErrorIs(t, err, auction.ErrTransferFailed)
	assert.Equal(t, uint64(150), f.auction.Credit(bidderA), "credit is restored so the caller can retry")

	f.bank.RejectIncoming(bidderA, false)
	got, err := f.auction.Withdraw(ledger.Call{Caller: bidderA})
	require.NoError(t, err)
	assert.Equal(t, uint64(150), got)
}

func TestSingleAuction_ReentrantWithdrawCannotDoubleSpend(t *testing.T) {
	f := newSingleFixture(t, 100, time.Hour)
	bidderA := testutil.Addr(2)

	require.NoError(t, f.bid(t, bidderA, 150))
	require.NoError(t, f.bid(t, testutil.Addr(3), 200))

	// The refund transfer triggers bidder-controlled code that immediately
	// re-enters Withdraw. The credit was zeroed before the transfer, so the
	// nested call must see nothing left.
	var nestedErr error
	f.bank.OnReceive(bidderA, func(ledger.Address, uint64) {
		f.bank.OnReceive(bidderA, nil)
		_, nestedErr = f.auction.Withdraw(ledger.Call{Caller: bidderA})
	})

	got, err := f.auction.Withdraw(ledger.Call{Caller: bidderA})
	require.NoError(t, err)
	assert.Equal(t, uint64(150), got)
	require.ErrorIs(t, nestedErr, auction.ErrNothingToWithdraw)
	assert.Equal(t, uint64(150), f.bank.Balance(bidderA))
}

func TestSingleAuction_EndPreconditions(t *testing.T) {
	f := newSingleFixture(t, 100, time.Hour)
	require.NoError(t, f.bid(t, testutil.Addr(2), 150))

	err := f.auction.End(ledger.Call{Caller: testutil.Addr(2)})
	require.ErrorIs(t, err, auction.ErrNotOwner)

	err = f.auction.End(ledger.Call{Caller: f.owner})
	require.ErrorIs(t, err, auction.ErrStillRunning)

	f.clock.Advance(2 * time.Hour)
	require.NoError(t, f.auction.End(ledger.Call{Caller: f.owner}))

	err = f.auction.End(ledger.Call{Caller: f.owner})
	require.ErrorIs(t, err, auction.ErrAlreadyEnded)
}

func TestSingleAuction_EndWithoutBids(t *testing.T) {
	f := newSingleFixture(t, 100, time.Hour)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.auction.End(ledger.Call{Caller: f.owner}))

	assert.Equal(t, uint64(0), f.bank.Balance(f.owner))
	ended := f.sink.Named("AuctionEnded")
	require.Len(t, ended, 1)
	assert.Equal(t, auction.AuctionEnded{Winner: ledger.Nobody, Amount: 0}, ended[0])
}

func TestSingleAuction_RemainingTime(t *testing.T) {
	f := newSingleFixture(t, 100, time.Hour)

	assert.Equal(t, time.Hour, f.auction.RemainingTime())

	f.clock.Advance(20 * time.Minute)
	assert.Equal(t, 40*time.Minute, f.auction.RemainingTime())

	f.clock.Advance(40 * time.Minute)
	assert.Equal(t, time.Duration(0), f.auction.RemainingTime())

	f.clock.Advance(time.Hour)
	assert.Equal(t, time.Duration(0), f.auction.RemainingTime())
}

func TestSingleAuction_Events(t *testing.T) {
	f := newSingleFixture(t, 100, time.Hour)
	bidder := testutil.Addr(2)

	started := f.sink.Named("AuctionStarted")
	require.Len(t, started, 1)
	assert.Equal(t, "vintage synth", started[0].(auction.AuctionStarted).AssetName)

	require.NoError(t, f.bid(t, bidder, 150))
	assert.Equal(t, auction.NewBid{Bidder: bidder, Amount: 150}, f.sink.Last())
}
