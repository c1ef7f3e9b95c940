package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/auction"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// statusFor maps the auction error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auction.ErrAuctionNotFound):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrNotOwner),
		errors.Is(err, auction.ErrNotTokenOwner),
		errors.Is(err, auction.ErrNotApproved):
		return http.StatusForbidden
	case errors.Is(err, auction.ErrAlreadyEnded),
		errors.Is(err, auction.ErrAlreadySettled):
		return http.StatusConflict
	case errors.Is(err, auction.ErrTransferFailed),
		errors.Is(err, auction.ErrSellerPayoutFailed):
		return http.StatusBadGateway
	default:
		// Timing and value violations, malformed envelopes.
		return http.StatusBadRequest
	}
}
