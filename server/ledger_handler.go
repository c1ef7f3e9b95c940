package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/services"
)

// LedgerHandler exposes the in-memory host ledger (balances, token registry)
// and the persisted notification feed. The faucet and mint endpoints exist
// so demos and integration tests can set up accounts and tokens; a real
// deployment would source these from an actual chain.
type LedgerHandler struct {
	bank        *ledger.MemoryBank
	tokens      *ledger.MemoryTokens
	store       services.Store
	broadcaster *services.Broadcaster
	amounts     Amounts
	log         *slog.Logger
}

// NewLedgerHandler wires the memory ledger to its HTTP surface.
func NewLedgerHandler(bank *ledger.MemoryBank, tokens *ledger.MemoryTokens, store services.Store, broadcaster *services.Broadcaster, amounts Amounts, log *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		bank:        bank,
		tokens:      tokens,
		store:       store,
		broadcaster: broadcaster,
		amounts:     amounts,
		log:         log,
	}
}

// RegisterRoutes registers the ledger and event-feed endpoints.
func (h *LedgerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/faucet", h.handleFaucet)
	r.Get("/balances/{address}", h.handleBalance)
	r.Post("/tokens/mint", h.handleMintToken)
	r.Post("/tokens/approve", h.handleApprove)
	r.Post("/tokens/approve-all", h.handleApproveAll)
	r.Get("/tokens/{token}/{tokenID}", h.handleTokenOwner)
	r.Get("/events", h.handleEvents)
	r.Get("/events/stream", h.handleEventStream)
}

// FaucetRequest credits demo balance to an account.
type FaucetRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (h *LedgerHandler) handleFaucet(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req FaucetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := h.amounts.Parse(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	h.bank.Mint(ledger.Address(req.To), amount)
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address: req.To,
		Balance: h.amounts.Format(h.bank.Balance(ledger.Address(req.To))),
	})
}

// BalanceResponse reports an account balance.
type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func (h *LedgerHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr := ledger.Address(chi.URLParam(r, "address"))
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address: string(addr),
		Balance: h.amounts.Format(h.bank.Balance(addr)),
	})
}

// MintTokenRequest creates a token owned by Owner.
type MintTokenRequest struct {
	Token   string `json:"token"`
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
}

func (h *LedgerHandler) handleMintToken(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req MintTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := h.tokens.Mint(ledger.Address(req.Token), req.TokenID, ledger.Address(req.Owner)); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ApproveRequest grants a single-token approval.
type ApproveRequest struct {
	Owner    string `json:"owner"`
	Token    string `json:"token"`
	TokenID  uint64 `json:"token_id"`
	Approved string `json:"approved"`
}

func (h *LedgerHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	err := h.tokens.Approve(ledger.Address(req.Owner), ledger.Address(req.Token), req.TokenID, ledger.Address(req.Approved))
	if err != nil {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ApproveAllRequest grants or revokes an operator approval.
type ApproveAllRequest struct {
	Owner    string `json:"owner"`
	Token    string `json:"token"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

func (h *LedgerHandler) handleApproveAll(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req ApproveAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	h.tokens.SetApprovalForAll(ledger.Address(req.Owner), ledger.Address(req.Token), ledger.Address(req.Operator), req.Approved)
	writeJSON(w, http.StatusOK, req)
}

// TokenOwnerResponse reports who currently owns a token.
type TokenOwnerResponse struct {
	Token   string `json:"token"`
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
}

func (h *LedgerHandler) handleTokenOwner(w http.ResponseWriter, r *http.Request) {
	tokenID, err := strconv.ParseUint(chi.URLParam(r, "tokenID"), 10, 64)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	token := ledger.Address(chi.URLParam(r, "token"))
	owner, err := h.tokens.OwnerOf(token, tokenID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, TokenOwnerResponse{Token: string(token), TokenID: tokenID, Owner: string(owner)})
}

func (h *LedgerHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	since := int64(0)
	if s := r.URL.Query().Get("since"); s != "" {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		since = parsed
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		limit = parsed
	}

	events, err := h.store.EventsSince(r.Context(), since, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if events == nil {
		events = []services.StoredEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handleEventStream serves the notification feed over SSE. New events are
// pushed as they are emitted; the payload is fetched from the store so the
// stream and the poll endpoint agree.
func (h *LedgerHandler) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	sub := h.broadcaster.Subscribe(r.Context())
	for {
		select {
		case <-r.Context().Done():
			return
		case notice, open := <-sub:
			if !open {
				return
			}
			events, err := h.store.EventsSince(r.Context(), notice.Seq-1, 1)
			if err != nil || len(events) == 0 {
				continue
			}
			data, err := json.Marshal(events[0])
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
