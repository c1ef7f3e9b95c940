// Command auctiond runs the auction service.
//
// The service hosts a single-asset auction bootstrapped at startup, an
// auction house for externally-owned tokens, a demo ledger (faucet, token
// mint/approve) standing in for the host chain, and a persisted notification
// feed served by polling and by SSE.
//
// # Usage
//
//	go run ./cmd/auctiond --addr=:8080 --metrics-addr=:9090
//
// Configuration comes from AUCTION_* environment variables; flags override
// individual values.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/api/httpserver"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/auction"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/common"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/metrics"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/server"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/services"
)

func main() {
	var (
		addr        = flag.String("addr", "", "HTTP listen address (overrides AUCTION_LISTEN_ADDR)")
		metricsAddr = flag.String("metrics-addr", "", "Prometheus listen address (overrides AUCTION_METRICS_ADDR)")
		pprof       = flag.Bool("pprof", false, "Enable the pprof API under /debug")
		postgres    = flag.Bool("postgres", false, "Persist events and listings to Postgres (AUCTION_PG_*)")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := services.LoadConfig()
	if err != nil {
		log.Error("Loading configuration failed", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *pprof {
		cfg.EnablePprof = true
	}
	if *postgres {
		cfg.UsePostgres = true
	}

	bank := ledger.NewMemoryBank()
	tokens := ledger.NewMemoryTokens()
	clock := ledger.WallClock{}

	var store services.Store
	if cfg.UsePostgres {
		pgStore, err := services.NewPostgresStore(&cfg.Postgres)
		if err != nil {
			log.Error("Connecting to Postgres failed", "err", err)
			os.Exit(1)
		}
		store = pgStore
		log.Info("Using Postgres store", "host", cfg.Postgres.Host)
	} else {
		store = services.NewMemoryStore()
		log.Info("Using in-memory store")
	}
	defer store.Close()

	broadcaster := services.NewBroadcaster()
	storeSink := &services.StoreSink{
		Store:       store,
		Broadcaster: broadcaster,
		Log:         log,
		Clock:       clock,
	}
	sink := auction.MultiSink{auction.LogSink{Log: log}, storeSink}

	house, err := auction.NewHouse(auction.HouseConfig{
		Account: ledger.Address(cfg.HouseAccount),
		Bank:    bank,
		Tokens:  tokens,
		Clock:   clock,
		Events:  sink,
	})
	if err != nil {
		log.Error("Creating auction house failed", "err", err)
		os.Exit(1)
	}
	storeSink.Lookup = house.GetAuction

	single, err := auction.NewSingleAuction(auction.SingleConfig{
		Owner:      ledger.Address(cfg.SingleOwner),
		Account:    ledger.Address(cfg.SingleAccount),
		AssetName:  cfg.SingleAssetName,
		StartPrice: cfg.SingleStartPrice,
		Duration:   cfg.SingleDuration,
		Bank:       bank,
		Clock:      clock,
		Events:     sink,
	})
	if err != nil {
		log.Error("Creating single-asset auction failed", "err", err)
		os.Exit(1)
	}

	amounts := server.Amounts{Decimals: cfg.AmountDecimals}

	metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
	if err != nil {
		log.Error("Creating metrics server failed", "err", err)
		os.Exit(1)
	}
	m := metricsSrv.Metrics

	srv, err := httpserver.New(&httpserver.Config{
		ListenAddr:               cfg.ListenAddr,
		MetricsAddr:              cfg.MetricsAddr,
		EnablePprof:              cfg.EnablePprof,
		Log:                      log,
		DrainDuration:            5 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              30 * time.Second,
		// The SSE stream holds its connection open past any sane write
		// timeout, so the server runs without one.
		WriteTimeout: 0,
		Metrics:      metricsSrv,
	},
		server.NewHouseHandler(house, bank, ledger.Address(cfg.HouseAccount), amounts, m, log),
		server.NewSingleHandler(single, bank, ledger.Address(cfg.SingleAccount), amounts, m, log),
		server.NewLedgerHandler(bank, tokens, store, broadcaster, amounts, log),
	)
	if err != nil {
		log.Error("Creating HTTP server failed", "err", err)
		os.Exit(1)
	}

	fmt.Printf("auctiond listening on %s\n", cfg.ListenAddr)
	srv.RunInBackground()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down")
	srv.Shutdown()
}
