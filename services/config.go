package services

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config is the auction service configuration, loaded from the environment.
// The auctiond flags override individual fields.
type Config struct {
	ListenAddr  string `env:"AUCTION_LISTEN_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"AUCTION_METRICS_ADDR" envDefault:""`
	EnablePprof bool   `env:"AUCTION_PPROF" envDefault:"false"`

	// AmountDecimals is how many decimal places the API accepts in amount
	// strings; amounts are stored as integer base units.
	AmountDecimals int32 `env:"AUCTION_AMOUNT_DECIMALS" envDefault:"9"`

	// UsePostgres switches the event/listing store from memory to Postgres.
	UsePostgres bool `env:"AUCTION_USE_POSTGRES" envDefault:"false"`
	Postgres    PostgresConfig

	// HouseAccount is the ledger account holding the house's escrowed bids.
	HouseAccount string `env:"AUCTION_HOUSE_ACCOUNT" envDefault:"0xhouse"`

	// Bootstrap parameters for the single-asset auction.
	SingleOwner      string        `env:"AUCTION_SINGLE_OWNER" envDefault:"0xowner"`
	SingleAccount    string        `env:"AUCTION_SINGLE_ACCOUNT" envDefault:"0xvault"`
	SingleAssetName  string        `env:"AUCTION_SINGLE_ASSET" envDefault:"genesis asset"`
	SingleStartPrice uint64        `env:"AUCTION_SINGLE_START_PRICE" envDefault:"100"`
	SingleDuration   time.Duration `env:"AUCTION_SINGLE_DURATION" envDefault:"1h"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
