// Package server exposes the auction operations as HTTP entry points.
//
// Every mutating endpoint accepts a transaction-style envelope: a JSON body
// carrying the caller identity ("from") and, where value is attached, an
// "amount" decimal string converted to integer base units. The handlers play
// the host ledger's part around each operation: attached value is moved into
// the component's escrow account before the call and refunded when the call
// is rejected, so a failed operation leaves balances untouched.
//
// Failures map to HTTP statuses by taxonomy: authorization 403, state
// conflicts 409, missing records 404, timing and value violations 400, and
// failed external transfers 502. The response body carries the reason.
package server
