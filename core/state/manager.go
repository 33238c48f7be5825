// Package state binds the venue engines to the key-value persistence layer.
// The Manager implements every engine's state interface over a single
// storage.KV, so one store (in-memory for tests, bolt for the daemon) carries
// the whole venue.
package state

import (
	"encoding/binary"
	"fmt"

	"onre/native/governance"
	"onre/native/redemption"
	"onre/native/token"
	"onre/native/vault"
	"onre/storage"
)

const (
	vaultOfferSeqKey     = "vault/offers/seq"
	vaultOfferPrefix     = "vault/offer/"
	governanceKey        = "governance/state"
	tokenMintPrefix      = "token/mint/"
	tokenBalancePrefix   = "token/balance/"
	redemptionPrefix     = "redemption/offer/"
	dualPrefix           = "redemption/dual/"
	requestPrefix        = "redemption/request/"
	compositeSeparator   = "|"
	balancePairSeparator = "\x00"
)

// Manager mediates between the engines and the store.
type Manager struct {
	kv storage.KV
}

// NewManager wraps a key-value store.
func NewManager(kv storage.KV) *Manager {
	return &Manager{kv: kv}
}

func beUint64(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

func vaultOfferKey(id uint64) []byte {
	return append([]byte(vaultOfferPrefix), beUint64(id)...)
}

// VaultNextOfferID allocates the next vault offer identifier. IDs start at 1
// and are never reused.
func (m *Manager) VaultNextOfferID() (uint64, error) {
	var seq uint64
	if _, err := m.kv.KVGet([]byte(vaultOfferSeqKey), &seq); err != nil {
		return 0, err
	}
	seq++
	if err := m.kv.KVPut([]byte(vaultOfferSeqKey), seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// VaultPutOffer stores a vault offer under its identifier.
func (m *Manager) VaultPutOffer(offer *vault.Offer) error {
	return m.kv.KVPut(vaultOfferKey(offer.ID), offer)
}

// VaultGetOffer loads a vault offer by identifier.
func (m *Manager) VaultGetOffer(id uint64) (*vault.Offer, bool, error) {
	offer := new(vault.Offer)
	ok, err := m.kv.KVGet(vaultOfferKey(id), offer)
	if err != nil || !ok {
		return nil, false, err
	}
	return offer, true, nil
}

// VaultDeleteOffer removes a vault offer. Its identifier is not reissued.
func (m *Manager) VaultDeleteOffer(id uint64) error {
	return m.kv.KVDelete(vaultOfferKey(id))
}

// VaultListOffers returns every stored vault offer in ascending ID order.
func (m *Manager) VaultListOffers() ([]*vault.Offer, error) {
	var offers []*vault.Offer
	err := m.kv.KVIterate([]byte(vaultOfferPrefix), func(key, value []byte) error {
		offer := new(vault.Offer)
		if err := storage.DecodeValue(value, offer); err != nil {
			return fmt.Errorf("state: decode vault offer %x: %w", key, err)
		}
		offers = append(offers, offer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// GovernanceGet loads the single governance record.
func (m *Manager) GovernanceGet() (*governance.State, bool, error) {
	record := new(governance.State)
	ok, err := m.kv.KVGet([]byte(governanceKey), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// GovernancePut stores the governance record.
func (m *Manager) GovernancePut(record *governance.State) error {
	return m.kv.KVPut([]byte(governanceKey), record)
}

// TokenGetMint loads mint metadata by symbol.
func (m *Manager) TokenGetMint(symbol string) (*token.Mint, bool, error) {
	mint := new(token.Mint)
	ok, err := m.kv.KVGet([]byte(tokenMintPrefix+symbol), mint)
	if err != nil || !ok {
		return nil, false, err
	}
	return mint, true, nil
}

// TokenPutMint stores mint metadata.
func (m *Manager) TokenPutMint(mint *token.Mint) error {
	return m.kv.KVPut([]byte(tokenMintPrefix+mint.Symbol), mint)
}

func balanceKey(account, mint string) []byte {
	// Account names are caller supplied, so the separator is a byte that
	// cannot appear in a trimmed identifier.
	return []byte(tokenBalancePrefix + account + balancePairSeparator + mint)
}

// TokenBalance loads an account's balance in a mint. Missing records read as
// zero.
func (m *Manager) TokenBalance(account, mint string) (uint64, error) {
	var balance uint64
	if _, err := m.kv.KVGet(balanceKey(account, mint), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// TokenSetBalance stores an account's balance in a mint. Zero balances are
// deleted rather than stored.
func (m *Manager) TokenSetBalance(account, mint string, amount uint64) error {
	if amount == 0 {
		return m.kv.KVDelete(balanceKey(account, mint))
	}
	return m.kv.KVPut(balanceKey(account, mint), amount)
}

func redemptionOfferKey(tokenIn, tokenOut string) []byte {
	return []byte(redemptionPrefix + tokenIn + compositeSeparator + tokenOut)
}

func dualOfferKey(tokenIn, tokenOut1, tokenOut2 string) []byte {
	return []byte(dualPrefix + tokenIn + compositeSeparator + tokenOut1 + compositeSeparator + tokenOut2)
}

func requestKey(tokenIn, tokenOut string, counter uint64) []byte {
	return append(requestKeyPrefix(tokenIn, tokenOut), beUint64(counter)...)
}

func requestKeyPrefix(tokenIn, tokenOut string) []byte {
	return []byte(requestPrefix + tokenIn + compositeSeparator + tokenOut + "/")
}

// RedemptionGetOffer loads the single redemption offer for an ordered pair.
func (m *Manager) RedemptionGetOffer(tokenIn, tokenOut string) (*redemption.Offer, bool, error) {
	offer := new(redemption.Offer)
	ok, err := m.kv.KVGet(redemptionOfferKey(tokenIn, tokenOut), offer)
	if err != nil || !ok {
		return nil, false, err
	}
	return offer, true, nil
}

// RedemptionPutOffer stores a redemption offer under its mint pair.
func (m *Manager) RedemptionPutOffer(offer *redemption.Offer) error {
	return m.kv.KVPut(redemptionOfferKey(offer.TokenInMint, offer.TokenOutMint), offer)
}

// RedemptionGetDualOffer loads the dual redemption offer for an ordered triple.
func (m *Manager) RedemptionGetDualOffer(tokenIn, tokenOut1, tokenOut2 string) (*redemption.DualOffer, bool, error) {
	offer := new(redemption.DualOffer)
	ok, err := m.kv.KVGet(dualOfferKey(tokenIn, tokenOut1, tokenOut2), offer)
	if err != nil || !ok {
		return nil, false, err
	}
	return offer, true, nil
}

// RedemptionPutDualOffer stores a dual redemption offer under its mint triple.
func (m *Manager) RedemptionPutDualOffer(offer *redemption.DualOffer) error {
	return m.kv.KVPut(dualOfferKey(offer.TokenInMint, offer.TokenOutMint1, offer.TokenOutMint2), offer)
}

// RedemptionGetRequest loads a request by pair and counter.
func (m *Manager) RedemptionGetRequest(tokenIn, tokenOut string, counter uint64) (*redemption.Request, bool, error) {
	request := new(redemption.Request)
	ok, err := m.kv.KVGet(requestKey(tokenIn, tokenOut, counter), request)
	if err != nil || !ok {
		return nil, false, err
	}
	return request, true, nil
}

// RedemptionPutRequest stores a request under its pair and counter.
func (m *Manager) RedemptionPutRequest(request *redemption.Request) error {
	return m.kv.KVPut(requestKey(request.TokenInMint, request.TokenOutMint, request.Counter), request)
}

// RedemptionListRequests returns every request queued against a pair in
// ascending counter order.
func (m *Manager) RedemptionListRequests(tokenIn, tokenOut string) ([]*redemption.Request, error) {
	var requests []*redemption.Request
	err := m.kv.KVIterate(requestKeyPrefix(tokenIn, tokenOut), func(key, value []byte) error {
		request := new(redemption.Request)
		if err := storage.DecodeValue(value, request); err != nil {
			return fmt.Errorf("state: decode redemption request %x: %w", key, err)
		}
		requests = append(requests, request)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return requests, nil
}
