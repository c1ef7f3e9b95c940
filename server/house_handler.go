package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/auction"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/metrics"
)

// HouseHandler exposes the auction house operations.
type HouseHandler struct {
	house   *auction.House
	bank    ledger.Bank
	account ledger.Address
	amounts Amounts
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewHouseHandler wires the house to its HTTP surface.
func NewHouseHandler(house *auction.House, bank ledger.Bank, account ledger.Address, amounts Amounts, m *metrics.Metrics, log *slog.Logger) *HouseHandler {
	return &HouseHandler{
		house:   house,
		bank:    bank,
		account: account,
		amounts: amounts,
		metrics: m,
		log:     log,
	}
}

// RegisterRoutes registers the house endpoints.
func (h *HouseHandler) RegisterRoutes(r chi.Router) {
	r.Post("/house/auctions", h.handleCreateAuction)
	r.Get("/house/auctions", h.handleListAuctions)
	r.Get("/house/auctions/{auctionID}", h.handleGetAuction)
	r.Post("/house/auctions/{auctionID}/bids", h.handleBid)
	r.Post("/house/auctions/{auctionID}/settle", h.handleSettle)
	r.Post("/house/withdrawals", h.handleWithdraw)
	r.Get("/house/returns/{address}", h.handlePendingReturn)
}

// CreateAuctionRequest lists a token for auction.
type CreateAuctionRequest struct {
	From            string `json:"from"`
	TokenAddress    string `json:"token_address"`
	TokenID         uint64 `json:"token_id"`
	MinBid          string `json:"min_bid"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// BidRequest places a bid; Amount is the attached value.
type BidRequest struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

// CallRequest is the envelope for operations without attached value.
type CallRequest struct {
	From string `json:"from"`
}

// AuctionView is the API representation of a listing.
type AuctionView struct {
	AuctionID      uint64    `json:"auction_id"`
	Seller         string    `json:"seller"`
	TokenAddress   string    `json:"token_address"`
	TokenID        uint64    `json:"token_id"`
	MinBid         string    `json:"min_bid"`
	HighestBid     string    `json:"highest_bid"`
	HighestBidder  string    `json:"highest_bidder,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Settled        bool      `json:"settled"`
	MinimumNextBid string    `json:"minimum_next_bid,omitempty"`
}

func (h *HouseHandler) view(lst auction.Listing) AuctionView {
	v := AuctionView{
		AuctionID:     lst.ID,
		Seller:        string(lst.Seller),
		TokenAddress:  string(lst.TokenAddress),
		TokenID:       lst.TokenID,
		MinBid:        h.amounts.Format(lst.MinBid),
		HighestBid:    h.amounts.Format(lst.HighestBid),
		HighestBidder: string(lst.HighestBidder),
		StartTime:     lst.StartTime,
		EndTime:       lst.EndTime,
		Settled:       lst.Settled,
	}
	if !lst.Settled {
		v.MinimumNextBid = h.amounts.Format(auction.MinimumBid(lst.HighestBid, lst.MinBid))
	}
	return v
}

func (h *HouseHandler) handleCreateAuction(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req CreateAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	minBid, err := h.amounts.Parse(req.MinBid)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	call := ledger.Call{Caller: ledger.Address(req.From)}
	duration := time.Duration(req.DurationSeconds) * time.Second
	id, err := h.house.CreateAuction(call, ledger.Address(req.TokenAddress), req.TokenID, minBid, duration)
	if err != nil {
		writeError(w, err)
		return
	}
	h.metrics.AuctionsCreated.Inc()

	lst, err := h.house.GetAuction(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(lst))
}

func (h *HouseHandler) handleListAuctions(w http.ResponseWriter, r *http.Request) {
	listings := h.house.Auctions()
	views := make([]AuctionView, len(listings))
	for i, lst := range listings {
		views[i] = h.view(lst)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *HouseHandler) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "auctionID"), 10, 64)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	lst, err := h.house.GetAuction(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(lst))
}

func (h *HouseHandler) handleBid(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id, err := strconv.ParseUint(chi.URLParam(r, "auctionID"), 10, 64)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
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

	// Escrow the attached value with the house before the call, the way
	// the host ledger would for a transaction.
	if err := h.bank.Transfer(bidder, h.account, amount); err != nil {
		h.metrics.BidsRejected.Inc()
		writeBadRequest(w, err)
		return
	}

	if err := h.house.Bid(ledger.Call{Caller: bidder, Value: amount}, id); err != nil {
		h.metrics.BidsRejected.Inc()
		if refundErr := h.bank.Transfer(h.account, bidder, amount); refundErr != nil {
			h.log.Error("refunding rejected bid failed", "bidder", bidder, "err", refundErr)
		}
		writeError(w, err)
		return
	}
	h.metrics.BidsAccepted.Inc()

	lst, err := h.house.GetAuction(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(lst))
}

func (h *HouseHandler) handleSettle(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id, err := strconv.ParseUint(chi.URLParam(r, "auctionID"), 10, 64)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.house.Settle(ledger.Call{Caller: ledger.Address(req.From)}, id); err != nil {
		writeError(w, err)
		return
	}
	h.metrics.Settlements.Inc()

	lst, err := h.house.GetAuction(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(lst))
}

// WithdrawResponse reports the amount paid out.
type WithdrawResponse struct {
	Amount string `json:"amount"`
}

func (h *HouseHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	amount, err := h.house.Withdraw(ledger.Call{Caller: ledger.Address(req.From)})
	if err != nil {
		writeError(w, err)
		return
	}
	h.metrics.Withdrawals.Inc()
	writeJSON(w, http.StatusOK, WithdrawResponse{Amount: h.amounts.Format(amount)})
}

func (h *HouseHandler) handlePendingReturn(w http.ResponseWriter, r *http.Request) {
	addr := ledger.Address(chi.URLParam(r, "address"))
	writeJSON(w, http.StatusOK, WithdrawResponse{Amount: h.amounts.Format(h.house.PendingReturn(addr))})
}
