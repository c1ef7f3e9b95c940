// Package cmd provides the auction service binaries.
//
// # Commands
//
// auctiond: Runs the auction service. Hosts the single-asset auction, the
// auction house, the demo ledger endpoints, and the notification feed.
//
//	go run ./cmd/auctiond --addr=:8080
//	go run ./cmd/auctiond --addr=:8080 --metrics-addr=:9090 --pprof
//
// auction-cli: CLI for interacting with a running auctiond.
//
//	go run ./cmd/auction-cli status -s http://localhost:8080
//	go run ./cmd/auction-cli bid -s http://localhost:8080 -a 1 --from 0xalice --amount 105
//	go run ./cmd/auction-cli watch -s http://localhost:8080
//
// # Configuration
//
// auctiond reads its configuration from AUCTION_* environment variables;
// command-line flags override individual values. The --postgres flag (or
// AUCTION_USE_POSTGRES=true) switches event and listing persistence from
// memory to Postgres, configured via AUCTION_PG_* variables.
package cmd
