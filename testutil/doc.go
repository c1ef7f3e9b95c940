// Package testutil provides fixtures for testing the auction components:
// a settable clock, deterministic test addresses, and a recording event
// sink. It keeps test setup focused on scenario logic rather than plumbing.
package testutil
