// Command auction-cli provides CLI tools for interacting with a running
// auctiond service.
//
// # Commands
//
// status: Display the single-asset auction and all house listings.
//
//	auction-cli status --server=http://localhost:8080
//
// bid: Place a bid on a house auction or on the single-asset auction.
//
//	auction-cli bid --server=http://localhost:8080 --auction=1 --from=0xalice --amount=105
//	auction-cli bid --server=http://localhost:8080 --single --from=0xalice --amount=105
//
// watch: Stream the notification feed.
//
//	auction-cli watch --server=http://localhost:8080
//
// demo: Run a scripted end-to-end auction against the service.
//
//	auction-cli demo --server=http://localhost:8080
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "status":
		err = runStatus(args)
	case "faucet":
		err = runFaucet(args)
	case "create":
		err = runCreate(args)
	case "bid":
		err = runBid(args)
	case "settle":
		err = runSettle(args)
	case "withdraw":
		err = runWithdraw(args)
	case "watch":
		err = runWatch(args)
	case "demo":
		err = runDemo(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`auction-cli - CLI tools for the auction service

Usage:
  auction-cli <command> [options]

Commands:
  status    Display the single-asset auction and all house listings
  faucet    Credit demo balance to an account
  create    List a token for auction (mints and approves it first)
  bid       Place a bid
  settle    Settle an ended house auction
  withdraw  Withdraw accumulated refunds
  watch     Stream the notification feed
  demo      Run a scripted end-to-end auction

Run 'auction-cli <command> --help' for command-specific options.`)
}

// argValue reads the value following a flag, supporting --flag value and
// short aliases.
func argValue(args []string, i *int) string {
	*i++
	if *i < len(args) {
		return args[(*i)]
	}
	return ""
}

// client wraps the auctiond HTTP API.
type client struct {
	base string
	http *http.Client
}

func newClient(serverURL string) *client {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	return &client{
		base: strings.TrimRight(serverURL, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *client) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *client) post(path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// API payloads, mirroring the server package's request and view types.

type auctionView struct {
	AuctionID      uint64    `json:"auction_id"`
	Seller         string    `json:"seller"`
	TokenAddress   string    `json:"token_address"`
	TokenID        uint64    `json:"token_id"`
	MinBid         string    `json:"min_bid"`
	HighestBid     string    `json:"highest_bid"`
	HighestBidder  string    `json:"highest_bidder"`
	EndTime        time.Time `json:"end_time"`
	Settled        bool      `json:"settled"`
	MinimumNextBid string    `json:"minimum_next_bid"`
}

type singleView struct {
	Owner            string `json:"owner"`
	AssetName        string `json:"asset_name"`
	StartPrice       string `json:"start_price"`
	HighestBid       string `json:"highest_bid"`
	HighestBidder    string `json:"highest_bidder"`
	Ended            bool   `json:"ended"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

type withdrawResponse struct {
	Amount string `json:"amount"`
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// --- Status Command ---

func runStatus(args []string) error {
	var serverURL string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--server", "-s":
			serverURL = argValue(args, &i)
		case "--help", "-h":
			fmt.Println("Usage: auction-cli status --server=<url>")
			return nil
		}
	}

	c := newClient(serverURL)

	var single singleView
	if err := c.get("/auction", &single); err != nil {
		return fmt.Errorf("fetch single-asset auction: %w", err)
	}

	fmt.Printf("Single-asset auction: %q\n", single.AssetName)
	fmt.Printf("  Owner: %s\n", single.Owner)
	fmt.Printf("  Start price: %s\n", single.StartPrice)
	if single.HighestBidder != "" {
		fmt.Printf("  Highest bid: %s by %s\n", single.HighestBid, single.HighestBidder)
	} else {
		fmt.Println("  No bids yet")
	}
	if single.Ended {
		fmt.Println("  Status: ended")
	} else {
		fmt.Printf("  Status: running (%ds remaining)\n", single.RemainingSeconds)
	}

	var listings []auctionView
	if err := c.get("/house/auctions", &listings); err != nil {
		return fmt.Errorf("fetch house listings: %w", err)
	}

	fmt.Printf("\nHouse listings: %d\n", len(listings))
	for _, lst := range listings {
		status := "open"
		if lst.Settled {
			status = "settled"
		} else if time.Now().After(lst.EndTime) {
			status = "ended"
		}
		fmt.Printf("  [%d] token %s/%d  min=%s  highest=%s  %s\n",
			lst.AuctionID, lst.TokenAddress, lst.TokenID, lst.MinBid, lst.HighestBid, status)
		if lst.HighestBidder != "" {
			fmt.Printf("       leader: %s  next bid: %s\n", lst.HighestBidder, lst.MinimumNextBid)
		}
	}

	return nil
}

// --- Faucet Command ---

func runFaucet(args []string) error {
	var serverURL, to, amount string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--server", "-s":
			serverURL = argValue(args, &i)
		case "--to":
			to = argValue(args, &i)
		case "--amount", "-a":
			amount = argValue(args, &i)
		case "--help", "-h":
			fmt.Println("Usage: auction-cli faucet --server=<url> --to=<address> --amount=<value>")
			return nil
		}
	}
	if to == "" || amount == "" {
		return fmt.Errorf("--to and --amount are required")
	}

	c := newClient(serverURL)
	var balance balanceResponse
	if err := c.post("/faucet", map[string]string{"to": to, "amount": amount}, &balance); err != nil {
		return err
	}
	fmt.Printf("Balance of %s: %s\n", balance.Address, balance.Balance)
	return nil
}

// --- Create Command ---

func runCreate(args []string) error {
	var (
		serverURL string
		from      string
		token     string
		tokenID   uint64
		minBid    string
		duration  time.Duration
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--server", "-s":
			serverURL = argValue(args, &i)
		case "--from":
			from = argValue(args, &i)
		case "--token":
			token = argValue(args, &i)
		case "--token-id":
			fmt.Sscanf(argValue(args, &i), "%d", &tokenID)
		case "--min-bid":
			minBid = argValue(args, &i)
		case "--duration":
			duration, _ = time.ParseDuration(argValue(args, &i))
		case "--help", "-h":
			fmt.Println(`Usage: auction-cli create --server=<url> --from=<seller> --token=<address> --token-id=<id> --min-bid=<value> --duration=<e.g. 10m>

Mints the token to the seller and approves the house before listing, so a
fresh demo service can be exercised in one command.`)
			return nil
		}
	}
	if from == "" || token == "" || minBid == "" {
		return fmt.Errorf("--from, --token and --min-bid are required")
	}
	if duration == 0 {
		duration = 10 * time.Minute
	}

	c := newClient(serverURL)

	if err := c.post("/tokens/mint", map[string]any{"token": token, "token_id": tokenID, "owner": from}, nil); err != nil {
		// The token may already exist from an earlier run; listing will
		// fail below if it belongs to someone else.
		fmt.Fprintf(os.Stderr, "mint: %v (continuing)\n", err)
	}
	if err := c.post("/tokens/approve", map[string]any{"owner": from, "token": token, "token_id": tokenID, "approved": "0xhouse"}, nil); err != nil {
		return fmt.Errorf("approve: %w", err)
	}

	var view auctionView
	err := c.post("/house/auctions", map[string]any{
		"from": from, "token_address": token, "token_id": tokenID,
		"min_bid": minBid, "duration_seconds": int64(duration / time.Second),
	}, &view)
	if err != nil {
		return err
	}
	fmt.Printf("Auction %d created, ends %s\n", view.AuctionID, view.EndTime.Format(time.RFC3339))
	return nil
}

// --- Bid Command ---

func runBid(args []string) error {
	var (
		serverURL string
		from      string
		amount    string
		auctionID uint64
		single    bool
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--server", "-s":
			serverURL = argValue(args, &i)
		case "--from":
			from = argValue(args, &i)
		case "--amount", "-a":
			amount = argValue(args, &i)
		case "--auction":
			fmt.Sscanf(argValue(args, &i), "%d", &auctionID)
		case "--single":
			single = true
		case "--help", "-h":
			fmt.Println(`Usage:
  auction-cli bid --server=<url> --auction=<id> --from=<address> --amount=<value>
  auction-cli bid --server=<url> --single --from=<address> --amount=<value>`)
			return nil
		}
	}
	if from == "" || amount == "" {
		return fmt.Errorf("--from and --amount are required")
	}
	if !single && auctionID == 0 {
		return fmt.Errorf("--auction or --single is required")
	}

	c := newClient(serverURL)
	req := map[string]string{"from": from, "amount": amount}

	if single {
		var view singleView
		if err := c.post("/auction/bids", req, &view); err != nil {
			return err
		}
		fmt.Printf("Bid accepted: %s leads at %s\n", view.HighestBidder, view.HighestBid)
		return nil
	}

	var view auctionView
	if err := c.post(fmt.Sprintf("/house/auctions/%d/bids", auctionID), req, &view); err != nil {
		return err
	}
	fmt.Printf("Bid accepted: %s leads auction %d at %s (next bid: %s)\n",
		view.HighestBidder, view.AuctionID, view.HighestBid, view.MinimumNextBid)
	return nil
}

// --- Settle Command ---

func runSettle(args []string) error {
	var (
		serverURL string
		from      string
		auctionID uint64
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--server", "-s":
			serverURL = argValue(args, &i)
		case "--from":
			from = argValue(args, &i)
		case "--auction":
			fmt.Sscanf(argValue(args, &i), "%d", &auctionID)
		case "--help", "-h":
			fmt.Println("Usage: auction-cli settle --server=<url> --auction=<id> --from=<address>")
			return nil
		}
	}
	if from == "" || auctionID == 0 {
		return fmt.Errorf("--from and --auction are required")
	}

	c := newClient(serverURL)
	var view auctionView
	if err := c.post(fmt.Sprintf("/house/auctions/%d/settle", auctionID), map[string]string{"from": from}, &view); err != nil {
		return err
	}
	if view.HighestBidder != "" {
		fmt.Printf("Auction %d settled: token %s/%d goes to %s for %s\n",
			view.AuctionID, view.TokenAddress, view.TokenID, view.HighestBidder, view.HighestBid)
	} else {
		fmt.Printf("Auction %d settled with no bids; token stays with %s\n", view.AuctionID, view.Seller)
	}
	return nil
}

// --- Withdraw Command ---

func runWithdraw(args []string) error {
	var serverURL, from string
	var single bool
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--server", "-s":
			serverURL = argValue(args, &i)
		case "--from":
			from = argValue(args, &i)
		case "--single":
			single = true
		case "--help", "-h":
			fmt.Println(`Usage:
  auction-cli withdraw --server=<url> --from=<address>            (house refunds)
  auction-cli withdraw --server=<url> --from=<address> --single   (single-asset refunds)`)
			return nil
		}
	}
	if from == "" {
		return fmt.Errorf("--from is required")
	}

	c := newClient(serverURL)
	path := "/house/withdrawals"
	if single {
		path = "/auction/withdrawals"
	}
	var out withdrawResponse
	if err := c.post(path, map[string]string{"from": from}, &out); err != nil {
		return err
	}
	fmt.Printf("Withdrew %s\n", out.Amount)
	return nil
}

// --- Watch Command ---

func runWatch(args []string) error {
	var serverURL string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--server", "-s":
			serverURL = argValue(args, &i)
		case "--help", "-h":
			fmt.Println("Usage: auction-cli watch --server=<url>")
			return nil
		}
	}

	c := newClient(serverURL)
	req, err := http.NewRequest(http.MethodGet, c.base+"/events/stream", nil)
	if err != nil {
		return err
	}

	// SSE stream: no client timeout, read until the server closes.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	fmt.Fprintln(os.Stderr, "Watching notifications (Ctrl+C to stop)...")
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev struct {
			Seq     int64           `json:"seq"`
			Name    string          `json:"name"`
			At      time.Time       `json:"at"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		fmt.Printf("[%d] %s %s %s\n", ev.Seq, ev.At.Format(time.RFC3339), ev.Name, string(ev.Payload))
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// --- Demo Command ---

// runDemo exercises a full auction lifecycle against a fresh service: fund
// two bidders, list a token, bid twice, withdraw the outbid refund, and
// settle once the window has passed.
func runDemo(args []string) error {
	var serverURL string
	duration := 90 * time.Second
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--server", "-s":
			serverURL = argValue(args, &i)
		case "--duration":
			duration, _ = time.ParseDuration(argValue(args, &i))
		case "--help", "-h":
			fmt.Println("Usage: auction-cli demo --server=<url> [--duration=90s]")
			return nil
		}
	}
	if duration < time.Minute {
		duration = time.Minute
	}

	c := newClient(serverURL)
	seller, alice, bob := "0xseller", "0xalice", "0xbob"

	fmt.Println("Funding bidders...")
	if err := c.post("/faucet", map[string]string{"to": alice, "amount": "100"}, nil); err != nil {
		return err
	}
	if err := c.post("/faucet", map[string]string{"to": bob, "amount": "105"}, nil); err != nil {
		return err
	}

	fmt.Println("Minting and listing token...")
	tokenID := uint64(time.Now().Unix()) // unique enough for repeated demo runs
	if err := c.post("/tokens/mint", map[string]any{"token": "0xdemo", "token_id": tokenID, "owner": seller}, nil); err != nil {
		return err
	}
	if err := c.post("/tokens/approve", map[string]any{"owner": seller, "token": "0xdemo", "token_id": tokenID, "approved": "0xhouse"}, nil); err != nil {
		return err
	}

	var view auctionView
	err := c.post("/house/auctions", map[string]any{
		"from": seller, "token_address": "0xdemo", "token_id": tokenID,
		"min_bid": "100", "duration_seconds": int64(duration / time.Second),
	}, &view)
	if err != nil {
		return err
	}
	id := view.AuctionID
	fmt.Printf("Auction %d open until %s\n", id, view.EndTime.Format(time.RFC3339))

	fmt.Println("Alice bids 100...")
	if err := c.post(fmt.Sprintf("/house/auctions/%d/bids", id), map[string]string{"from": alice, "amount": "100"}, &view); err != nil {
		return err
	}
	fmt.Printf("Bob bids %s...\n", view.MinimumNextBid)
	if err := c.post(fmt.Sprintf("/house/auctions/%d/bids", id), map[string]string{"from": bob, "amount": view.MinimumNextBid}, &view); err != nil {
		return err
	}

	fmt.Println("Alice withdraws her refund...")
	var refund withdrawResponse
	if err := c.post("/house/withdrawals", map[string]string{"from": alice}, &refund); err != nil {
		return err
	}
	fmt.Printf("Alice got back %s\n", refund.Amount)

	wait := time.Until(view.EndTime) + time.Second
	fmt.Printf("Waiting %s for the auction to end...\n", wait.Round(time.Second))
	time.Sleep(wait)

	if err := c.post(fmt.Sprintf("/house/auctions/%d/settle", id), map[string]string{"from": seller}, &view); err != nil {
		return err
	}
	fmt.Printf("Settled: token %s/%d goes to %s for %s\n", view.TokenAddress, view.TokenID, view.HighestBidder, view.HighestBid)

	var balance balanceResponse
	if err := c.get("/balances/"+seller, &balance); err != nil {
		return err
	}
	fmt.Printf("Seller balance: %s\n", balance.Balance)
	return nil
}
