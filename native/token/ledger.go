// Package token implements the asset-layer capability consumed by the vault
// and redemption engines: transfer, mint and burn of fixed-point token
// balances plus the mint metadata (decimals, authority, supply) the
// settlement path selection depends on.
package token

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxDecimals bounds the fixed-point precision a mint may declare.
const MaxDecimals = 18

var (
	// ErrUnknownMint is returned when an operation references an unregistered mint.
	ErrUnknownMint = errors.New("token: unknown mint")
	// ErrMintExists is returned when registering a mint symbol twice.
	ErrMintExists = errors.New("token: mint already registered")
	// ErrInvalidMint is returned when mint metadata fails validation.
	ErrInvalidMint = errors.New("token: invalid mint")
	// ErrInvalidAccount is returned when an account identifier is empty.
	ErrInvalidAccount = errors.New("token: invalid account")
	// ErrInsufficientBalance is returned when a debit exceeds the account balance.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	// ErrBalanceOverflow is returned when a credit would overflow the account balance.
	ErrBalanceOverflow = errors.New("token: balance overflow")
	// ErrSupplyOverflow is returned when a mint would overflow the total supply.
	ErrSupplyOverflow = errors.New("token: supply overflow")
	// ErrMaxSupplyExceeded is returned when a mint would exceed the configured cap.
	ErrMaxSupplyExceeded = errors.New("token: max supply exceeded")
)

// Mint captures the metadata tracked per registered token.
type Mint struct {
	Symbol    string
	Decimals  uint8
	Authority string
	Supply    uint64
	MaxSupply uint64 // 0 disables the cap
}

// Clone returns a copy of the mint record.
func (m *Mint) Clone() *Mint {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// Ledger is the capability interface the exchange engines settle against.
// Implementations surface their own insufficiency errors verbatim.
type Ledger interface {
	Transfer(from, to, mint string, amount uint64) error
	Mint(to, mint string, amount uint64) error
	Burn(from, mint string, amount uint64) error
	BalanceOf(account, mint string) (uint64, error)
	DecimalsOf(mint string) (uint8, error)
	MintAuthorityOf(mint string) (string, error)
	MintHeadroomOf(mint string) (uint64, error)
}

type ledgerState interface {
	TokenGetMint(symbol string) (*Mint, bool, error)
	TokenPutMint(*Mint) error
	TokenBalance(account, mint string) (uint64, error)
	TokenSetBalance(account, mint string, amount uint64) error
}

// Book is the state-backed Ledger implementation used by the daemon and
// tests.
type Book struct {
	state ledgerState
}

// NewBook constructs a ledger bound to the provided state backend.
func NewBook(state ledgerState) *Book {
	return &Book{state: state}
}

// NormalizeMint canonicalises a mint symbol.
func NormalizeMint(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeAccount canonicalises an account identifier.
func NormalizeAccount(account string) string {
	return strings.TrimSpace(account)
}

// Register adds a new mint to the registry.
func (b *Book) Register(mint *Mint) error {
	if b == nil || b.state == nil {
		return fmt.Errorf("token: ledger not initialised")
	}
	if mint == nil {
		return fmt.Errorf("%w: nil", ErrInvalidMint)
	}
	symbol := NormalizeMint(mint.Symbol)
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidMint)
	}
	if mint.Decimals > MaxDecimals {
		return fmt.Errorf("%w: decimals %d out of range", ErrInvalidMint, mint.Decimals)
	}
	if _, ok, err := b.state.TokenGetMint(symbol); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", ErrMintExists, symbol)
	}
	record := mint.Clone()
	record.Symbol = symbol
	record.Authority = NormalizeAccount(record.Authority)
	return b.state.TokenPutMint(record)
}

// SetMaxSupply updates the supply cap for a mint. A zero cap disables the
// limit. Existing supply above the new cap is left untouched; only future
// mints are rejected.
func (b *Book) SetMaxSupply(mint string, max uint64) error {
	record, err := b.mint(mint)
	if err != nil {
		return err
	}
	record.MaxSupply = max
	return b.state.TokenPutMint(record)
}

// Transfer moves amount between two accounts. Zero-amount transfers validate
// arguments and succeed without touching balances.
func (b *Book) Transfer(from, to, mint string, amount uint64) error {
	record, err := b.mint(mint)
	if err != nil {
		return err
	}
	from = NormalizeAccount(from)
	to = NormalizeAccount(to)
	if from == "" || to == "" {
		return ErrInvalidAccount
	}
	if amount == 0 || from == to {
		return nil
	}
	fromBal, err := b.state.TokenBalance(from, record.Symbol)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return fmt.Errorf("%w: %s has %d %s, need %d", ErrInsufficientBalance, from, fromBal, record.Symbol, amount)
	}
	toBal, err := b.state.TokenBalance(to, record.Symbol)
	if err != nil {
		return err
	}
	if toBal > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	if err := b.state.TokenSetBalance(from, record.Symbol, fromBal-amount); err != nil {
		return err
	}
	return b.state.TokenSetBalance(to, record.Symbol, toBal+amount)
}

// Mint credits amount to an account and grows the supply, enforcing the
// configured cap.
func (b *Book) Mint(to, mint string, amount uint64) error {
	record, err := b.mint(mint)
	if err != nil {
		return err
	}
	to = NormalizeAccount(to)
	if to == "" {
		return ErrInvalidAccount
	}
	if amount == 0 {
		return nil
	}
	if record.Supply > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}
	if record.MaxSupply > 0 && record.Supply+amount > record.MaxSupply {
		return fmt.Errorf("%w: supply %d + %d > cap %d", ErrMaxSupplyExceeded, record.Supply, amount, record.MaxSupply)
	}
	balance, err := b.state.TokenBalance(to, record.Symbol)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	record.Supply += amount
	if err := b.state.TokenPutMint(record); err != nil {
		return err
	}
	return b.state.TokenSetBalance(to, record.Symbol, balance+amount)
}

// Burn debits amount from an account and shrinks the supply.
func (b *Book) Burn(from, mint string, amount uint64) error {
	record, err := b.mint(mint)
	if err != nil {
		return err
	}
	from = NormalizeAccount(from)
	if from == "" {
		return ErrInvalidAccount
	}
	if amount == 0 {
		return nil
	}
	balance, err := b.state.TokenBalance(from, record.Symbol)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: %s has %d %s, need %d", ErrInsufficientBalance, from, balance, record.Symbol, amount)
	}
	if record.Supply < amount {
		return fmt.Errorf("%w: supply %d below burn %d", ErrInsufficientBalance, record.Supply, amount)
	}
	record.Supply -= amount
	if err := b.state.TokenPutMint(record); err != nil {
		return err
	}
	return b.state.TokenSetBalance(from, record.Symbol, balance-amount)
}

// BalanceOf reports the balance an account holds in a mint.
func (b *Book) BalanceOf(account, mint string) (uint64, error) {
	record, err := b.mint(mint)
	if err != nil {
		return 0, err
	}
	account = NormalizeAccount(account)
	if account == "" {
		return 0, ErrInvalidAccount
	}
	return b.state.TokenBalance(account, record.Symbol)
}

// DecimalsOf reports the fixed-point precision of a mint.
func (b *Book) DecimalsOf(mint string) (uint8, error) {
	record, err := b.mint(mint)
	if err != nil {
		return 0, err
	}
	return record.Decimals, nil
}

// MintAuthorityOf reports the account currently holding minting authority.
func (b *Book) MintAuthorityOf(mint string) (string, error) {
	record, err := b.mint(mint)
	if err != nil {
		return "", err
	}
	return record.Authority, nil
}

// GetMint returns a copy of a mint's metadata.
func (b *Book) GetMint(mint string) (*Mint, error) {
	record, err := b.mint(mint)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// MintHeadroomOf reports how much more of a mint can be created before the
// supply cap, or the counter width when no cap is set, is reached.
func (b *Book) MintHeadroomOf(mint string) (uint64, error) {
	record, err := b.mint(mint)
	if err != nil {
		return 0, err
	}
	limit := uint64(math.MaxUint64)
	if record.MaxSupply > 0 {
		limit = record.MaxSupply
	}
	if record.Supply >= limit {
		return 0, nil
	}
	return limit - record.Supply, nil
}

// SupplyOf reports the outstanding supply of a mint.
func (b *Book) SupplyOf(mint string) (uint64, error) {
	record, err := b.mint(mint)
	if err != nil {
		return 0, err
	}
	return record.Supply, nil
}

func (b *Book) mint(symbol string) (*Mint, error) {
	if b == nil || b.state == nil {
		return nil, fmt.Errorf("token: ledger not initialised")
	}
	normalized := NormalizeMint(symbol)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidMint)
	}
	record, ok, err := b.state.TokenGetMint(normalized)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMint, normalized)
	}
	return record, nil
}
