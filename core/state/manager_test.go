package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"onre/native/governance"
	"onre/native/redemption"
	"onre/native/token"
	"onre/native/vault"
	"onre/storage"
)

func TestVaultOfferRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemory())

	id, err := m.VaultNextOfferID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	offer := &vault.Offer{
		ID:           id,
		TokenInMint:  "USDC",
		TokenOutMint: "ONE",
		FeeBps:       25,
		Vectors: []vault.Vector{
			{SegmentID: 1, StartTime: 100, StartPrice: vault.PriceScale, APR: 36_500, PriceFixDuration: 86_400, ValidFrom: 100},
		},
	}
	require.NoError(t, m.VaultPutOffer(offer))

	loaded, ok, err := m.VaultGetOffer(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, offer, loaded)

	require.NoError(t, m.VaultDeleteOffer(id))
	_, ok, err = m.VaultGetOffer(id)
	require.NoError(t, err)
	require.False(t, ok)

	// Identifiers keep advancing past deleted offers.
	next, err := m.VaultNextOfferID()
	require.NoError(t, err)
	require.Equal(t, uint64(2), next)
}

func TestVaultListOffersOrdered(t *testing.T) {
	m := NewManager(storage.NewMemory())
	for i := 0; i < 3; i++ {
		id, err := m.VaultNextOfferID()
		require.NoError(t, err)
		require.NoError(t, m.VaultPutOffer(&vault.Offer{ID: id, TokenInMint: "USDC", TokenOutMint: "ONE"}))
	}
	require.NoError(t, m.VaultDeleteOffer(2))

	offers, err := m.VaultListOffers()
	require.NoError(t, err)
	require.Len(t, offers, 2)
	require.Equal(t, uint64(1), offers[0].ID)
	require.Equal(t, uint64(3), offers[1].ID)
}

func TestGovernanceRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemory())

	_, ok, err := m.GovernanceGet()
	require.NoError(t, err)
	require.False(t, ok)

	record := &governance.State{
		Boss:            "boss",
		Admins:          []string{"admin-1", "admin-2"},
		Approvers:       []string{"approver"},
		RedemptionAdmin: "fulfiller",
		KillSwitch:      true,
	}
	require.NoError(t, m.GovernancePut(record))

	loaded, ok, err := m.GovernanceGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record, loaded)
}

func TestTokenBalances(t *testing.T) {
	m := NewManager(storage.NewMemory())

	balance, err := m.TokenBalance("alice", "USDC")
	require.NoError(t, err)
	require.Zero(t, balance)

	require.NoError(t, m.TokenSetBalance("alice", "USDC", 500))
	balance, err = m.TokenBalance("alice", "USDC")
	require.NoError(t, err)
	require.Equal(t, uint64(500), balance)

	// Zeroing a balance removes the record entirely.
	require.NoError(t, m.TokenSetBalance("alice", "USDC", 0))
	balance, err = m.TokenBalance("alice", "USDC")
	require.NoError(t, err)
	require.Zero(t, balance)

	require.NoError(t, m.TokenPutMint(&token.Mint{Symbol: "USDC", Decimals: 6, Authority: "circle"}))
	mint, ok, err := m.TokenGetMint("USDC")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(6), mint.Decimals)
}

func TestRedemptionRecords(t *testing.T) {
	m := NewManager(storage.NewMemory())

	offer := &redemption.Offer{TokenInMint: "ONE", TokenOutMint: "USDC", Price: vault.PriceScale, StartTime: 1, EndTime: 2}
	require.NoError(t, m.RedemptionPutOffer(offer))
	loaded, ok, err := m.RedemptionGetOffer("ONE", "USDC")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, offer, loaded)

	// The reversed pair is a distinct record.
	_, ok, err = m.RedemptionGetOffer("USDC", "ONE")
	require.NoError(t, err)
	require.False(t, ok)

	dual := &redemption.DualOffer{TokenInMint: "ONE", TokenOutMint1: "USDC", TokenOutMint2: "USDT", RatioBps: 8_000, Price1: 1, Price2: 1, StartTime: 1, EndTime: 2}
	require.NoError(t, m.RedemptionPutDualOffer(dual))
	loadedDual, ok, err := m.RedemptionGetDualOffer("ONE", "USDC", "USDT")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, dual, loadedDual)

	for counter := uint64(1); counter <= 3; counter++ {
		require.NoError(t, m.RedemptionPutRequest(&redemption.Request{
			TokenInMint:  "ONE",
			TokenOutMint: "USDC",
			Counter:      counter,
			Requester:    "alice",
			Status:       redemption.RequestPending,
		}))
	}
	require.NoError(t, m.RedemptionPutRequest(&redemption.Request{
		TokenInMint:  "ONE",
		TokenOutMint: "USDT",
		Counter:      1,
		Requester:    "bob",
		Status:       redemption.RequestPending,
	}))

	requests, err := m.RedemptionListRequests("ONE", "USDC")
	require.NoError(t, err)
	require.Len(t, requests, 3)
	for i, request := range requests {
		require.Equal(t, uint64(i+1), request.Counter)
		require.Equal(t, "alice", request.Requester)
	}
}

// TestEngineWiring runs a full venue flow against a bolt-backed manager and
// reopens the store to confirm everything survives a restart.
func TestEngineWiring(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venue.db")
	db, err := storage.OpenBolt(path, nil)
	require.NoError(t, err)
	manager := NewManager(db)

	book := token.NewBook(manager)
	require.NoError(t, book.Register(&token.Mint{Symbol: "USDC", Decimals: 6, Authority: "circle"}))
	require.NoError(t, book.Register(&token.Mint{Symbol: "ONE", Decimals: 9, Authority: "venue-authority"}))
	require.NoError(t, book.Mint("alice", "USDC", 2_000_000))

	gov := governance.NewEngine()
	gov.SetState(manager)
	require.NoError(t, gov.Bootstrap(&governance.State{Boss: "boss"}))

	engine := vault.NewEngine()
	engine.SetState(manager)
	engine.SetLedger(book)
	engine.SetAuthority(gov)
	engine.SetAccounts("venue-authority", "vault-escrow", "intermediary")
	engine.SetNowFunc(func() int64 { return 1_000 })

	offer, err := engine.CreateOffer("boss", "USDC", "ONE", 0, false, true)
	require.NoError(t, err)
	_, err = engine.AddVector("boss", offer.ID, 500, vault.PriceScale, 0, 86_400)
	require.NoError(t, err)

	receipt, err := engine.TakeOffer("alice", offer.ID, 1_000_000, "")
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), receipt.TokenOutAmount)
	require.NoError(t, db.Close())

	// Reopen: balances, supply, governance and the offer must all be there.
	db, err = storage.OpenBolt(path, nil)
	require.NoError(t, err)
	defer db.Close()
	manager = NewManager(db)
	book = token.NewBook(manager)

	balance, err := book.BalanceOf("alice", "ONE")
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), balance)
	supply, err := book.SupplyOf("ONE")
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), supply)

	govState, ok, err := manager.GovernanceGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "boss", govState.Boss)

	stored, ok, err := manager.VaultGetOffer(offer.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, stored.Vectors, 1)
}
