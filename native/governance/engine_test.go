package governance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockState struct {
	record *State
}

func (m *mockState) GovernanceGet() (*State, bool, error) {
	if m.record == nil {
		return nil, false, nil
	}
	return m.record.Clone(), true, nil
}

func (m *mockState) GovernancePut(state *State) error {
	m.record = state.Clone()
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *mockState) {
	t.Helper()
	state := &mockState{}
	engine := NewEngine()
	engine.SetState(state)
	require.NoError(t, engine.Bootstrap(&State{Boss: "boss"}))
	return engine, state
}

func TestBootstrapDoesNotOverwrite(t *testing.T) {
	engine, state := newTestEngine(t)
	require.NoError(t, engine.Bootstrap(&State{Boss: "intruder"}))
	require.Equal(t, "boss", state.record.Boss)
	require.Error(t, engine.Bootstrap(&State{}))

	_ = engine
}

func TestAdminLifecycle(t *testing.T) {
	engine, _ := newTestEngine(t)

	require.ErrorIs(t, engine.AddAdmin("mallory", "a1"), ErrCallerNotAdmin)
	require.NoError(t, engine.AddAdmin("boss", "a1"))
	require.ErrorIs(t, engine.AddAdmin("boss", "a1"), ErrAdminAlreadyExists)

	// Existing admins may mutate the admin list.
	require.NoError(t, engine.AddAdmin("a1", "a2"))

	require.ErrorIs(t, engine.RemoveAdmin("boss", "ghost"), ErrAdminNotFound)
	require.NoError(t, engine.RemoveAdmin("boss", "a2"))

	require.NoError(t, engine.ClearAdmins("boss"))
	require.ErrorIs(t, engine.RemoveAdmin("boss", "a1"), ErrAdminNotFound)
}

func TestAdminCapacity(t *testing.T) {
	engine, _ := newTestEngine(t)
	for i := 0; i < MaxAdmins; i++ {
		require.NoError(t, engine.AddAdmin("boss", fmt.Sprintf("admin-%d", i)))
	}
	require.ErrorIs(t, engine.AddAdmin("boss", "one-too-many"), ErrMaxAdminsReached)
}

func TestApproverCapacity(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.ErrorIs(t, engine.AddApprover("someone", "ap1"), ErrCallerNotBoss)
	require.NoError(t, engine.AddApprover("boss", "ap1"))
	require.NoError(t, engine.AddApprover("boss", "ap2"))
	require.ErrorIs(t, engine.AddApprover("boss", "ap3"), ErrMaxApproversReached)
	require.ErrorIs(t, engine.AddApprover("boss", "ap1"), ErrApproverAlreadyExists)

	ok, err := engine.IsApprover("ap2")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, engine.RemoveApprover("boss", "ap2"))
	require.ErrorIs(t, engine.RemoveApprover("boss", "ap2"), ErrApproverNotFound)
}

func TestBossHandover(t *testing.T) {
	engine, _ := newTestEngine(t)

	require.ErrorIs(t, engine.AcceptBoss("next"), ErrNoProposedBoss)
	require.ErrorIs(t, engine.ProposeBoss("next", "next"), ErrCallerNotBoss)

	require.NoError(t, engine.ProposeBoss("boss", "next"))
	require.ErrorIs(t, engine.AcceptBoss("other"), ErrNotProposedBoss)
	require.NoError(t, engine.AcceptBoss("next"))

	boss, err := engine.Boss()
	require.NoError(t, err)
	require.Equal(t, "next", boss)

	// The old boss lost its authority with the handover.
	require.ErrorIs(t, engine.ProposeBoss("boss", "boss"), ErrCallerNotBoss)

	// A proposal can be cancelled by proposing the empty address.
	require.NoError(t, engine.ProposeBoss("next", "other"))
	require.NoError(t, engine.ProposeBoss("next", ""))
	require.ErrorIs(t, engine.AcceptBoss("other"), ErrNoProposedBoss)
}

func TestKillSwitch(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.NoError(t, engine.AddAdmin("boss", "oncall"))

	require.NoError(t, engine.SetKillSwitch("oncall", true))
	halted, err := engine.Halted()
	require.NoError(t, err)
	require.True(t, halted)
	require.True(t, HaltView{Engine: engine}.IsHalted("vault"))

	require.NoError(t, engine.SetKillSwitch("boss", false))
	require.False(t, HaltView{Engine: engine}.IsHalted("vault"))
}

func TestRedemptionAdmin(t *testing.T) {
	engine, _ := newTestEngine(t)

	require.ErrorIs(t, engine.RequireRedemptionAdmin("anyone"), ErrCallerNotRedemptionAdmin)
	require.NoError(t, engine.SetRedemptionAdmin("boss", "fulfiller"))
	require.NoError(t, engine.RequireRedemptionAdmin("fulfiller"))
	require.ErrorIs(t, engine.RequireRedemptionAdmin("boss"), ErrCallerNotRedemptionAdmin)
}

type mockMints struct {
	caps map[string]uint64
}

func (m *mockMints) SetMaxSupply(mint string, max uint64) error {
	if m.caps == nil {
		m.caps = make(map[string]uint64)
	}
	m.caps[mint] = max
	return nil
}

func TestSetMaxSupply(t *testing.T) {
	engine, _ := newTestEngine(t)
	mints := &mockMints{}
	engine.SetMintConfigurer(mints)

	require.ErrorIs(t, engine.SetMaxSupply("someone", "ONE", 10), ErrCallerNotBoss)
	require.NoError(t, engine.SetMaxSupply("boss", "ONE", 10))
	require.Equal(t, uint64(10), mints.caps["ONE"])
}
