// Package auction implements English-auction mechanics for tokenized assets:
// a single-asset auction and a multi-auction house for externally-owned
// tokens.
//
// Both components follow the same lifecycle: created once, active while the
// clock is before the end time, then ended/settled exactly once. Outbid
// participants accumulate refundable credits they can withdraw at any point,
// independent of the auction lifecycle.
//
// Every operation runs to completion under the component mutex. Operations
// that also send value release the mutex before the outbound transfer and
// commit their state changes first, so code triggered by the transfer (the
// recipient callback hazard, see package ledger) observes post-mutation
// state and cannot double-spend.
package auction
