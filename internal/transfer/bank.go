// Package transfer provides the in-process transfer primitive backing the
// settlement engine: a custody bank tracking native and token balances
// plus allowance-style token pulls. In production deployments the same
// interface is implemented by the external execution environment.
package transfer

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/donalab/dona-backend/internal/domain"
)

var (
	// ErrInsufficientFunds is returned when a transfer leg exceeds the
	// available balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientAllowance is returned when a token pull exceeds the
	// approved allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Bank is an in-memory custody account book. Safe for concurrent use.
type Bank struct {
	mu      sync.Mutex
	custody domain.Address

	native     map[domain.Address]*big.Int
	tokens     map[domain.Address]map[domain.Address]*big.Int
	allowances map[domain.Address]map[domain.Address]*big.Int
}

// NewBank creates a Bank whose custody account holds funds on behalf of
// the ledger.
func NewBank(custody domain.Address) *Bank {
	return &Bank{
		custody:    custody,
		native:     make(map[domain.Address]*big.Int),
		tokens:     make(map[domain.Address]map[domain.Address]*big.Int),
		allowances: make(map[domain.Address]map[domain.Address]*big.Int),
	}
}

// Custody returns the custody account address.
func (b *Bank) Custody() domain.Address {
	return b.custody
}

// TransferNative moves native value from custody to the destination.
func (b *Bank) TransferNative(ctx context.Context, to domain.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.move(b.native, b.custody, to, amount)
}

// PullToken moves tokens from the holder's balance into custody,
// consuming the holder's allowance.
func (b *Bank) PullToken(ctx context.Context, token, from domain.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	allowance := b.balance(b.allowanceBook(token), from)
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	book := b.tokenBook(token)
	if err := b.move(book, from, b.custody, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

// TransferToken moves tokens from custody to the destination.
func (b *Bank) TransferToken(ctx context.Context, token, to domain.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.move(b.tokenBook(token), b.custody, to, amount)
}

// MintNative credits native balance to an account (test/local setup).
func (b *Bank) MintNative(addr domain.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balance(b.native, addr).Add(b.balance(b.native, addr), amount)
}

// MintToken credits token balance to an account (test/local setup).
func (b *Bank) MintToken(token, addr domain.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	book := b.tokenBook(token)
	b.balance(book, addr).Add(b.balance(book, addr), amount)
}

// Approve grants custody an allowance over the owner's token balance.
func (b *Bank) Approve(token, owner domain.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	book := b.allowanceBook(token)
	book[owner] = new(big.Int).Set(amount)
}

// NativeBalance returns an account's native balance.
func (b *Bank) NativeBalance(addr domain.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.balance(b.native, addr))
}

// TokenBalance returns an account's balance for a token.
func (b *Bank) TokenBalance(token, addr domain.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.balance(b.tokenBook(token), addr))
}

func (b *Bank) move(book map[domain.Address]*big.Int, from, to domain.Address, amount *big.Int) error {
	src := b.balance(book, from)
	if src.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	src.Sub(src, amount)
	dst := b.balance(book, to)
	dst.Add(dst, amount)
	return nil
}

func (b *Bank) balance(book map[domain.Address]*big.Int, addr domain.Address) *big.Int {
	v, ok := book[addr]
	if !ok {
		v = new(big.Int)
		book[addr] = v
	}
	return v
}

func (b *Bank) tokenBook(token domain.Address) map[domain.Address]*big.Int {
	book, ok := b.tokens[token]
	if !ok {
		book = make(map[domain.Address]*big.Int)
		b.tokens[token] = book
	}
	return book
}

func (b *Bank) allowanceBook(token domain.Address) map[domain.Address]*big.Int {
	book, ok := b.allowances[token]
	if !ok {
		book = make(map[domain.Address]*big.Int)
		b.allowances[token] = book
	}
	return book
}
