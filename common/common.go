// Package common provides shared constants for the auction service binaries.
package common

// PackageName is used as the metrics namespace and service identifier.
const PackageName = "tokenized_asset_auction"

// Version is overridden at build time via -ldflags.
var Version = "dev"
