package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/RakshitSoni76/Tokenized-Asset-Auction/auction"
	"github.com/RakshitSoni76/Tokenized-Asset-Auction/ledger"
)

// PostgresStore implements Store with PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `env:"AUCTION_PG_HOST" envDefault:"localhost"`
	Port     int    `env:"AUCTION_PG_PORT" envDefault:"5432"`
	User     string `env:"AUCTION_PG_USER" envDefault:"auction"`
	Password string `env:"AUCTION_PG_PASSWORD" envDefault:""`
	Database string `env:"AUCTION_PG_DATABASE" envDefault:"auction"`
	SSLMode  string `env:"AUCTION_PG_SSLMODE" envDefault:""`
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore connects, verifies the connection, and runs migrations.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS auction_events (
		seq BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		at TIMESTAMP WITH TIME ZONE NOT NULL,
		payload JSONB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auctions (
		auction_id BIGINT PRIMARY KEY,
		seller VARCHAR(64) NOT NULL,
		token_address VARCHAR(64) NOT NULL,
		token_id NUMERIC(20,0) NOT NULL,
		min_bid NUMERIC(20,0) NOT NULL,
		highest_bid NUMERIC(20,0) NOT NULL,
		highest_bidder VARCHAR(64) NOT NULL DEFAULT '',
		start_time TIMESTAMP WITH TIME ZONE NOT NULL,
		end_time TIMESTAMP WITH TIME ZONE NOT NULL,
		settled BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_auction_events_name ON auction_events(name);
	CREATE INDEX IF NOT EXISTS idx_auctions_settled ON auctions(settled);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveEvent appends a notification to the feed.
func (s *PostgresStore) SaveEvent(ctx context.Context, name string, at time.Time, payload any) (int64, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshaling event payload: %w", err)
	}

	var seq int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO auction_events (name, at, payload) VALUES ($1, $2, $3) RETURNING seq`,
		name, at, data,
	).Scan(&seq)
	return seq, err
}

// EventsSince returns up to limit events after the given sequence number.
func (s *PostgresStore) EventsSince(ctx context.Context, since int64, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, name, at, payload FROM auction_events WHERE seq > $1 ORDER BY seq LIMIT $2`,
		since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var ev StoredEvent
		if err := rows.Scan(&ev.Seq, &ev.Name, &ev.At, &ev.Payload); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SaveAuction upserts a listing snapshot.
func (s *PostgresStore) SaveAuction(ctx context.Context, lst auction.Listing) error {
	query := `
	INSERT INTO auctions
		(auction_id, seller, token_address, token_id, min_bid, highest_bid, highest_bidder, start_time, end_time, settled, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	ON CONFLICT (auction_id) DO UPDATE SET
		highest_bid = EXCLUDED.highest_bid,
		highest_bidder = EXCLUDED.highest_bidder,
		settled = EXCLUDED.settled,
		updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query,
		int64(lst.ID),
		string(lst.Seller),
		string(lst.TokenAddress),
		strconv.FormatUint(lst.TokenID, 10),
		strconv.FormatUint(lst.MinBid, 10),
		strconv.FormatUint(lst.HighestBid, 10),
		string(lst.HighestBidder),
		lst.StartTime,
		lst.EndTime,
		lst.Settled,
	)
	return err
}

// Auctions returns every stored listing, ordered by id.
func (s *PostgresStore) Auctions(ctx context.Context) ([]auction.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT auction_id, seller, token_address, token_id, min_bid, highest_bid, highest_bidder, start_time, end_time, settled
		 FROM auctions ORDER BY auction_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []auction.Listing
	for rows.Next() {
		var (
			lst                       auction.Listing
			id                        int64
			seller, bidder, tokenAddr string
			tokenID, minBid, highest  string
		)
		if err := rows.Scan(&id, &seller, &tokenAddr, &tokenID, &minBid, &highest,
			&bidder, &lst.StartTime, &lst.EndTime, &lst.Settled); err != nil {
			return nil, err
		}
		lst.ID = uint64(id)
		lst.Seller = ledger.Address(seller)
		lst.TokenAddress = ledger.Address(tokenAddr)
		lst.HighestBidder = ledger.Address(bidder)
		if lst.TokenID, err = strconv.ParseUint(tokenID, 10, 64); err != nil {
			return nil, fmt.Errorf("parsing token_id: %w", err)
		}
		if lst.MinBid, err = strconv.ParseUint(minBid, 10, 64); err != nil {
			return nil, fmt.Errorf("parsing min_bid: %w", err)
		}
		if lst.HighestBid, err = strconv.ParseUint(highest, 10, 64); err != nil {
			return nil, fmt.Errorf("parsing highest_bid: %w", err)
		}
		listings = append(listings, lst)
	}
	return listings, rows.Err()
}

// Close releases the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
