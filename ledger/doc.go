// Package ledger models the host ledger the auction contracts run against:
// account identities, value transfer, token ownership, and time.
//
// The auction logic never owns balances or tokens itself. It calls into a
// Bank for value movement and a TokenRegistry for asset custody, both of
// which can reject an operation synchronously. In-memory implementations are
// provided for tests and for running the service without external
// infrastructure; they also expose the two hazards the auction logic must
// survive: a transfer that is rejected by the recipient, and a recipient
// callback that re-enters the contract mid-transfer.
package ledger
