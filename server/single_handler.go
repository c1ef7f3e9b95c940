package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/auction"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/metrics"
)

// SingleHandler exposes the single-asset auction operations.
type SingleHandler struct {
	auction *auction.SingleAuction
	bank    ledger.Bank
	account ledger.Address
	amounts Amounts
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewSingleHandler wires the single-asset auction to its HTTP surface.
func NewSingleHandler(a *auction.SingleAuction, bank ledger.Bank, account ledger.Address, amounts Amounts, m *metrics.Metrics, log *slog.Logger) *SingleHandler {
	return &SingleHandler{
		auction: a,
		bank:    bank,
		account: account,
		amounts: amounts,
		metrics: m,
		log:     log,
	}
}

// RegisterRoutes registers the single-asset auction endpoints.
func (h *SingleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/auction", h.handleGet)
	r.Post("/auction/bids", h.handleBid)
	r.Post("/auction/end", h.handleEnd)
	r.Post("/auction/withdrawals", h.handleWithdraw)
}

// SingleView is the API representation of the single-asset auction.
type SingleView struct {
	Owner            string    `json:"owner"`
	AssetName        string    `json:"asset_name"`
	StartPrice       string    `json:"start_price"`
	HighestBid       string    `json:"highest_bid"`
	HighestBidder    string    `json:"highest_bidder,omitempty"`
	EndTime          time.Time `json:"end_time"`
	Ended            bool      `json:"ended"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

func (h *SingleHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	snap := h.auction.Snapshot()
	writeJSON(w, http.StatusOK, SingleView{
		Owner:            string(snap.Owner),
		AssetName:        snap.AssetName,
		StartPrice:       h.amounts.Format(snap.StartPrice),
		HighestBid:       h.amounts.Format(snap.HighestBid),
		HighestBidder:    string(snap.HighestBidder),
		EndTime:          snap.EndTime,
		Ended:            snap.Ended,
		RemainingSeconds: int64(h.auction.RemainingTime() / time.Second),
	})
}

func (h *SingleHandler) handleBid(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := h.amounts.Parse(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	bidder := ledger.Address(req.From)

	if err := h.bank.Transfer(bidder, h.account, amount); err != nil {
		h.metrics.BidsRejected.Inc()
		writeBadRequest(w, err)
		return
	}

	if err := h.auction.PlaceBid(ledger.Call{Caller: bidder, Value: amount}); err != nil {
		h.metrics.BidsRejected.Inc()
		if refundErr := h.bank.Transfer(h.account, bidder, amount); refundErr != nil {
			h.log.Error("refunding rejected bid failed", "bidder", bidder, "err", refundErr)
		}
		writeError(w, err)
		return
	}
	h.metrics.BidsAccepted.Inc()
	h.handleGet(w, r)
}

func (h *SingleHandler) handleEnd(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.auction.End(ledger.Call{Caller: ledger.Address(req.From)}); err != nil {
		writeError(w, err)
		return
	}
	h.metrics.Settlements.Inc()
	h.handleGet(w, r)
}

func (h *SingleHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	amount, err := h.auction.Withdraw(ledger.Call{Caller: ledger.Address(req.From)})
	if err != nil {
		writeError(w, err)
		return
	}
	h.metrics.Withdrawals.Inc()
	writeJSON(w, http.StatusOK, WithdrawResponse{Amount: h.amounts.Format(amount)})
}
