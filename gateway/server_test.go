package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"onre/core/state"
	"onre/native/governance"
	"onre/native/redemption"
	"onre/native/token"
	"onre/native/vault"
	"onre/storage"
)

type testVenue struct {
	handler http.Handler
	auth    *Authenticator
	book    *token.Book
	clock   *int64
}

func newTestVenue(t *testing.T) *testVenue {
	t.Helper()
	manager := state.NewManager(storage.NewMemory())
	clock := int64(10_000)

	book := token.NewBook(manager)
	require.NoError(t, book.Register(&token.Mint{Symbol: "USDC", Decimals: 6, Authority: "circle"}))
	require.NoError(t, book.Register(&token.Mint{Symbol: "ONE", Decimals: 9, Authority: "venue-authority"}))

	gov := governance.NewEngine()
	gov.SetState(manager)
	gov.SetMintConfigurer(book)
	require.NoError(t, gov.Bootstrap(&governance.State{Boss: "boss", RedemptionAdmin: "fulfiller"}))

	vaultEngine := vault.NewEngine()
	vaultEngine.SetState(manager)
	vaultEngine.SetLedger(book)
	vaultEngine.SetAuthority(gov)
	vaultEngine.SetHaltView(governance.HaltView{Engine: gov})
	vaultEngine.SetAccounts("venue-authority", "vault-escrow", "intermediary")
	vaultEngine.SetNowFunc(func() int64 { return clock })

	redemptionEngine := redemption.NewEngine()
	redemptionEngine.SetState(manager)
	redemptionEngine.SetLedger(book)
	redemptionEngine.SetAuthority(gov)
	redemptionEngine.SetHaltView(governance.HaltView{Engine: gov})
	redemptionEngine.SetAccounts("venue-authority", "vault-escrow", "redemption-escrow")
	redemptionEngine.SetNowFunc(func() int64 { return clock })

	auth := NewAuthenticator("test-secret", "onred")
	server := NewServer(vaultEngine, redemptionEngine, gov, book, nil)
	return &testVenue{handler: server.Router(auth), auth: auth, book: book, clock: &clock}
}

func (v *testVenue) do(t *testing.T, method, path, caller string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != "" {
		token, err := v.auth.IssueToken(caller, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	v.handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &out))
	return out
}

func TestHealthzIsUnauthenticated(t *testing.T) {
	v := newTestVenue(t)
	resp := v.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthRejection(t *testing.T) {
	v := newTestVenue(t)

	resp := v.do(t, http.MethodGet, "/v1/vault/offers", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/vault/offers", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	recorder := httptest.NewRecorder()
	v.handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	v := newTestVenue(t)
	stale, err := v.auth.IssueToken("boss", -time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/vault/offers", nil)
	req.Header.Set("Authorization", "Bearer "+stale)
	recorder := httptest.NewRecorder()
	v.handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestVaultOfferFlow(t *testing.T) {
	v := newTestVenue(t)
	require.NoError(t, v.book.Mint("alice", "USDC", 5_000_000))

	resp := v.do(t, http.MethodPost, "/v1/vault/offers", "boss", createOfferRequest{
		TokenInMint:  "USDC",
		TokenOutMint: "ONE",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	offer := decodeBody[offerPayload](t, resp)
	require.Equal(t, uint64(1), offer.ID)

	resp = v.do(t, http.MethodPost, "/v1/vault/offers/1/vectors", "boss", addVectorRequest{
		StartTime:        5_000,
		StartPrice:       vault.PriceScale,
		PriceFixDuration: 86_400,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	vector := decodeBody[vectorPayload](t, resp)
	require.Equal(t, uint64(1), vector.SegmentID)
	require.Equal(t, uint64(10_000), vector.ValidFrom, "past start times clamp to now")

	resp = v.do(t, http.MethodPost, "/v1/vault/offers/1/take", "alice", takeOfferRequest{TokenInAmount: 1_000_000})
	require.Equal(t, http.StatusOK, resp.Code)
	receipt := decodeBody[takeReceiptPayload](t, resp)
	require.Equal(t, uint64(1_000_000_000), receipt.TokenOutAmount)
	require.True(t, receipt.OutputMinted)

	balance, err := v.book.BalanceOf("alice", "ONE")
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), balance)

	resp = v.do(t, http.MethodGet, "/v1/vault/offers", "alice", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	offers := decodeBody[[]offerPayload](t, resp)
	require.Len(t, offers, 1)
}

func TestErrorMapping(t *testing.T) {
	v := newTestVenue(t)

	// Unknown offer.
	resp := v.do(t, http.MethodGet, "/v1/vault/offers/99", "alice", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	// Non-admin creating an offer.
	resp = v.do(t, http.MethodPost, "/v1/vault/offers", "alice", createOfferRequest{TokenInMint: "USDC", TokenOutMint: "ONE"})
	require.Equal(t, http.StatusForbidden, resp.Code)

	// Identical mints.
	resp = v.do(t, http.MethodPost, "/v1/vault/offers", "boss", createOfferRequest{TokenInMint: "USDC", TokenOutMint: "USDC"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	// Unknown mint on a token read.
	resp = v.do(t, http.MethodGet, "/v1/tokens/DOGE", "alice", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestKillSwitchHaltsTakes(t *testing.T) {
	v := newTestVenue(t)
	require.NoError(t, v.book.Mint("alice", "USDC", 1_000_000))

	resp := v.do(t, http.MethodPost, "/v1/vault/offers", "boss", createOfferRequest{TokenInMint: "USDC", TokenOutMint: "ONE"})
	require.Equal(t, http.StatusCreated, resp.Code)
	resp = v.do(t, http.MethodPost, "/v1/vault/offers/1/vectors", "boss", addVectorRequest{StartTime: 5_000, StartPrice: vault.PriceScale, PriceFixDuration: 86_400})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = v.do(t, http.MethodPost, "/v1/governance/kill-switch", "boss", killSwitchRequest{Engaged: true})
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = v.do(t, http.MethodPost, "/v1/vault/offers/1/take", "alice", takeOfferRequest{TokenInAmount: 1_000_000})
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = v.do(t, http.MethodPost, "/v1/governance/kill-switch", "boss", killSwitchRequest{Engaged: false})
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = v.do(t, http.MethodPost, "/v1/vault/offers/1/take", "alice", takeOfferRequest{TokenInAmount: 1_000_000})
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestRedemptionRequestFlow(t *testing.T) {
	v := newTestVenue(t)
	require.NoError(t, v.book.Mint("alice", "ONE", 2_000_000_000))
	require.NoError(t, v.book.Mint("vault-escrow", "USDC", 10_000_000))

	resp := v.do(t, http.MethodPost, "/v1/redemption/offers", "boss", createRedemptionOfferRequest{
		TokenInMint:  "ONE",
		TokenOutMint: "USDC",
		Price:        vault.PriceScale,
		StartTime:    1_000,
		EndTime:      100_000,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	// Duplicate pair conflicts.
	resp = v.do(t, http.MethodPost, "/v1/redemption/offers", "boss", createRedemptionOfferRequest{
		TokenInMint:  "ONE",
		TokenOutMint: "USDC",
		Price:        vault.PriceScale,
		StartTime:    1_000,
		EndTime:      100_000,
	})
	require.Equal(t, http.StatusConflict, resp.Code)

	resp = v.do(t, http.MethodPost, "/v1/redemption/offers/ONE/USDC/requests", "alice", takeRedemptionRequest{TokenInAmount: 1_000_000_000})
	require.Equal(t, http.StatusCreated, resp.Code)
	request := decodeBody[requestPayload](t, resp)
	require.Equal(t, uint64(1), request.Counter)
	require.Equal(t, "pending", request.Status)

	// Only the redemption admin may fulfil.
	resp = v.do(t, http.MethodPost, "/v1/redemption/offers/ONE/USDC/requests/1/fulfill", "alice", nil)
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = v.do(t, http.MethodPost, "/v1/redemption/offers/ONE/USDC/requests/1/fulfill", "fulfiller", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	receipt := decodeBody[redemptionReceiptPayload](t, resp)
	require.Equal(t, uint64(1_000_000), receipt.TokenOutAmount)

	// A fulfilled request cannot be cancelled.
	resp = v.do(t, http.MethodPost, "/v1/redemption/offers/ONE/USDC/requests/1/cancel", "alice", nil)
	require.Equal(t, http.StatusConflict, resp.Code)

	resp = v.do(t, http.MethodGet, "/v1/redemption/offers/ONE/USDC/requests", "alice", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	requests := decodeBody[[]requestPayload](t, resp)
	require.Len(t, requests, 1)
	require.Equal(t, "fulfilled", requests[0].Status)
}

func TestGovernanceEndpoints(t *testing.T) {
	v := newTestVenue(t)

	resp := v.do(t, http.MethodPost, "/v1/governance/admins", "boss", addressRequest{Address: "admin-1"})
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = v.do(t, http.MethodPost, "/v1/governance/boss/propose", "boss", addressRequest{Address: "successor"})
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = v.do(t, http.MethodGet, "/v1/governance/", "admin-1", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	snapshot := decodeBody[governancePayload](t, resp)
	require.Equal(t, "boss", snapshot.Boss)
	require.Equal(t, "successor", snapshot.ProposedBoss)
	require.Equal(t, []string{"admin-1"}, snapshot.Admins)

	resp = v.do(t, http.MethodPost, "/v1/governance/boss/accept", "successor", nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = v.do(t, http.MethodGet, "/v1/governance/", "admin-1", nil)
	snapshot = decodeBody[governancePayload](t, resp)
	require.Equal(t, "successor", snapshot.Boss)
	require.Empty(t, snapshot.ProposedBoss)

	resp = v.do(t, http.MethodPost, "/v1/governance/max-supply", "successor", maxSupplyRequest{Mint: "ONE", MaxSupply: 42})
	require.Equal(t, http.StatusNoContent, resp.Code)
	mintResp := v.do(t, http.MethodGet, "/v1/tokens/ONE", "alice", nil)
	mint := decodeBody[mintPayload](t, mintResp)
	require.Equal(t, uint64(42), mint.MaxSupply)
}

func TestBalanceEndpoint(t *testing.T) {
	v := newTestVenue(t)
	require.NoError(t, v.book.Mint("alice", "USDC", 777))

	resp := v.do(t, http.MethodGet, "/v1/tokens/USDC/balances/alice", "alice", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	balance := decodeBody[balancePayload](t, resp)
	require.Equal(t, uint64(777), balance.Amount)
}
