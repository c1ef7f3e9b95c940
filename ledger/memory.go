package ledger

import (
	"fmt"
	"sync"
)

// MemoryBank is an in-memory Bank. It supports minting for demos and tests,
// per-recipient transfer rejection, and per-recipient receive hooks that run
// after the balances have moved. A hook models the recipient-controlled code
// an on-chain value transfer can trigger: it runs outside the bank lock and
// may re-enter the contract that initiated the transfer.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[Address]uint64
	hooks    map[Address]func(from Address, amount uint64)
	rejects  map[Address]bool
}

// NewMemoryBank returns an empty bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		balances: make(map[Address]uint64),
		hooks:    make(map[Address]func(Address, uint64)),
		rejects:  make(map[Address]bool),
	}
}

// Mint credits newly created value to an account.
func (b *MemoryBank) Mint(to Address, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[to] += amount
}

// Balance returns the current balance of an account.
func (b *MemoryBank) Balance(of Address) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[of]
}

// RejectIncoming makes every transfer to addr fail with ErrTransferRejected.
func (b *MemoryBank) RejectIncoming(addr Address, reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejects[addr] = reject
}

// OnReceive installs a hook invoked after addr receives a transfer.
// Pass nil to remove the hook.
func (b *MemoryBank) OnReceive(addr Address, hook func(from Address, amount uint64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if hook == nil {
		delete(b.hooks, addr)
		return
	}
	b.hooks[addr] = hook
}

// Transfer moves amount between accounts. The recipient hook, if any, runs
// after the balances are updated and without the bank lock held.
func (b *MemoryBank) Transfer(from, to Address, amount uint64) error {
	b.mu.Lock()
	if b.rejects[to] {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTransferRejected, to)
	}
	if b.balances[from] < amount {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, b.balances[from], amount)
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	hook := b.hooks[to]
	b.mu.Unlock()

	if hook != nil {
		hook(from, amount)
	}
	return nil
}

type tokenKey struct {
	token Address
	id    uint64
}

type operatorKey struct {
	token    Address
	owner    Address
	operator Address
}

// MemoryTokens is an in-memory TokenRegistry with ERC721-style approvals:
// a per-token approved account plus per-collection operator approvals.
type MemoryTokens struct {
	mu        sync.RWMutex
	owners    map[tokenKey]Address
	approvals map[tokenKey]Address
	operators map[operatorKey]bool
}

// NewMemoryTokens returns an empty registry.
func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{
		owners:    make(map[tokenKey]Address),
		approvals: make(map[tokenKey]Address),
		operators: make(map[operatorKey]bool),
	}
}

// Mint creates a token owned by owner.
func (t *MemoryTokens) Mint(token Address, tokenID uint64, owner Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := tokenKey{token, tokenID}
	if _, ok := t.owners[key]; ok {
		return ErrTokenExists
	}
	t.owners[key] = owner
	return nil
}

// Approve lets owner grant a single account the right to move one token.
func (t *MemoryTokens) Approve(owner, token Address, tokenID uint64, approved Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := tokenKey{token, tokenID}
	current, ok := t.owners[key]
	if !ok {
		return ErrUnknownToken
	}
	if current != owner {
		return ErrNotTokenHolder
	}
	t.approvals[key] = approved
	return nil
}

// SetApprovalForAll grants or revokes an operator for every token the owner
// holds in the collection.
func (t *MemoryTokens) SetApprovalForAll(owner, token, operator Address, approved bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := operatorKey{token, owner, operator}
	if approved {
		t.operators[key] = true
		return
	}
	delete(t.operators, key)
}

// OwnerOf returns the current owner of a token.
func (t *MemoryTokens) OwnerOf(token Address, tokenID uint64) (Address, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	owner, ok := t.owners[tokenKey{token, tokenID}]
	if !ok {
		return Nobody, fmt.Errorf("%w: %s/%d", ErrUnknownToken, token, tokenID)
	}
	return owner, nil
}

// Approved returns the account approved for a single token, or Nobody.
func (t *MemoryTokens) Approved(token Address, tokenID uint64) Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.approvals[tokenKey{token, tokenID}]
}

// ApprovedForAll reports whether operator holds a blanket approval.
func (t *MemoryTokens) ApprovedForAll(token, owner, operator Address) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.operators[operatorKey{token, owner, operator}]
}

// TransferFrom moves a token and clears its single-token approval.
func (t *MemoryTokens) TransferFrom(token Address, from, to Address, tokenID uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := tokenKey{token, tokenID}
	current, ok := t.owners[key]
	if !ok {
		return fmt.Errorf("%w: %s/%d", ErrUnknownToken, token, tokenID)
	}
	if current != from {
		return fmt.Errorf("%w: %s", ErrNotTokenHolder, from)
	}
	t.owners[key] = to
	delete(t.approvals, key)
	return nil
}
