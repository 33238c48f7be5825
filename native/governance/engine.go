// Package governance implements the venue authority model: a single boss
// with a two-step handover, a bounded admin set, approver registration, the
// redemption admin and the global kill switch.
package governance

import (
	"errors"
	"fmt"

	"onre/core/events"
)

var (
	errStateNotConfigured = errors.New("governance: state not configured")

	// ErrCallerNotBoss is returned when an op requires the boss signature.
	ErrCallerNotBoss = errors.New("governance: caller is not boss")
	// ErrCallerNotAdmin is returned when an op requires boss or admin authority.
	ErrCallerNotAdmin = errors.New("governance: caller is not boss or admin")
	// ErrCallerNotRedemptionAdmin is returned when an op requires the redemption admin.
	ErrCallerNotRedemptionAdmin = errors.New("governance: caller is not redemption admin")
	// ErrInvalidAddress is returned when an address argument is empty.
	ErrInvalidAddress = errors.New("governance: invalid address")
	// ErrAdminAlreadyExists is returned when adding a duplicate admin.
	ErrAdminAlreadyExists = errors.New("governance: admin already exists")
	// ErrAdminNotFound is returned when removing an unknown admin.
	ErrAdminNotFound = errors.New("governance: admin not found")
	// ErrMaxAdminsReached is returned when the admin set is full.
	ErrMaxAdminsReached = errors.New("governance: max admins reached")
	// ErrApproverAlreadyExists is returned when adding a duplicate approver.
	ErrApproverAlreadyExists = errors.New("governance: approver already exists")
	// ErrApproverNotFound is returned when removing an unknown approver.
	ErrApproverNotFound = errors.New("governance: approver not found")
	// ErrMaxApproversReached is returned when the approver set is full.
	ErrMaxApproversReached = errors.New("governance: max approvers reached")
	// ErrNoProposedBoss is returned when accepting a handover that was never proposed.
	ErrNoProposedBoss = errors.New("governance: no proposed boss")
	// ErrNotProposedBoss is returned when the acceptor is not the proposed boss.
	ErrNotProposedBoss = errors.New("governance: caller is not the proposed boss")
)

type engineState interface {
	GovernanceGet() (*State, bool, error)
	GovernancePut(*State) error
}

// MintConfigurer is the slice of the token ledger the governance engine needs
// to apply supply caps.
type MintConfigurer interface {
	SetMaxSupply(mint string, max uint64) error
}

// Engine orchestrates authority changes and exposes the checks consumed by
// the vault and redemption engines.
type Engine struct {
	state   engineState
	mints   MintConfigurer
	emitter events.Emitter
}

// NewEngine constructs a governance engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState wires the engine to its state backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetMintConfigurer wires the ledger used to enforce supply caps.
func (e *Engine) SetMintConfigurer(mints MintConfigurer) { e.mints = mints }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) load() (*State, error) {
	if e == nil || e.state == nil {
		return nil, errStateNotConfigured
	}
	state, ok, err := e.state.GovernanceGet()
	if err != nil {
		return nil, err
	}
	if !ok || state == nil {
		return nil, fmt.Errorf("governance: state not initialised")
	}
	return state.Clone(), nil
}

// Bootstrap seeds the governance record. It refuses to overwrite an existing
// record so a restart cannot silently reset authorities.
func (e *Engine) Bootstrap(state *State) error {
	if e == nil || e.state == nil {
		return errStateNotConfigured
	}
	if state == nil || normalizeAddress(state.Boss) == "" {
		return fmt.Errorf("%w: boss required", ErrInvalidAddress)
	}
	if _, ok, err := e.state.GovernanceGet(); err != nil {
		return err
	} else if ok {
		return nil
	}
	seeded := state.Clone()
	seeded.Boss = normalizeAddress(seeded.Boss)
	if len(seeded.Admins) > MaxAdmins {
		return ErrMaxAdminsReached
	}
	if len(seeded.Approvers) > MaxApprovers {
		return ErrMaxApproversReached
	}
	return e.state.GovernancePut(seeded)
}

// RequireBoss fails unless the caller is the boss.
func (e *Engine) RequireBoss(caller string) error {
	state, err := e.load()
	if err != nil {
		return err
	}
	if normalizeAddress(caller) != state.Boss {
		return ErrCallerNotBoss
	}
	return nil
}

// RequireBossOrAdmin fails unless the caller is the boss or a listed admin.
func (e *Engine) RequireBossOrAdmin(caller string) error {
	state, err := e.load()
	if err != nil {
		return err
	}
	caller = normalizeAddress(caller)
	if caller == state.Boss || state.IsAdmin(caller) {
		return nil
	}
	return ErrCallerNotAdmin
}

// RequireRedemptionAdmin fails unless the caller is the designated redemption
// admin.
func (e *Engine) RequireRedemptionAdmin(caller string) error {
	state, err := e.load()
	if err != nil {
		return err
	}
	if state.RedemptionAdmin == "" || normalizeAddress(caller) != state.RedemptionAdmin {
		return ErrCallerNotRedemptionAdmin
	}
	return nil
}

// Boss returns the current boss address.
func (e *Engine) Boss() (string, error) {
	state, err := e.load()
	if err != nil {
		return "", err
	}
	return state.Boss, nil
}

// IsApprover reports whether the address is a registered approver.
func (e *Engine) IsApprover(addr string) (bool, error) {
	state, err := e.load()
	if err != nil {
		return false, err
	}
	return state.IsApprover(addr), nil
}

// Halted reports whether the kill switch is engaged.
func (e *Engine) Halted() (bool, error) {
	state, err := e.load()
	if err != nil {
		return false, err
	}
	return state.KillSwitch, nil
}

// Snapshot returns a copy of the full governance record for queries.
func (e *Engine) Snapshot() (*State, error) {
	return e.load()
}

// AddAdmin appends an address to the admin set. Boss or an existing admin
// may mutate the admin list.
func (e *Engine) AddAdmin(caller, admin string) error {
	if err := e.RequireBossOrAdmin(caller); err != nil {
		return err
	}
	state, err := e.load()
	if err != nil {
		return err
	}
	admin = normalizeAddress(admin)
	if admin == "" {
		return ErrInvalidAddress
	}
	if state.IsAdmin(admin) {
		return ErrAdminAlreadyExists
	}
	if len(state.Admins) >= MaxAdmins {
		return ErrMaxAdminsReached
	}
	state.Admins = append(state.Admins, admin)
	if err := e.state.GovernancePut(state); err != nil {
		return err
	}
	e.emitter.Emit(events.AdminAdded{Admin: admin})
	return nil
}

// RemoveAdmin drops an address from the admin set.
func (e *Engine) RemoveAdmin(caller, admin string) error {
	if err := e.RequireBossOrAdmin(caller); err != nil {
		return err
	}
	state, err := e.load()
	if err != nil {
		return err
	}
	admin = normalizeAddress(admin)
	idx := -1
	for i, existing := range state.Admins {
		if existing == admin {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrAdminNotFound
	}
	state.Admins = append(state.Admins[:idx], state.Admins[idx+1:]...)
	if err := e.state.GovernancePut(state); err != nil {
		return err
	}
	e.emitter.Emit(events.AdminRemoved{Admin: admin})
	return nil
}

// ClearAdmins resets the admin set to empty.
func (e *Engine) ClearAdmins(caller string) error {
	if err := e.RequireBossOrAdmin(caller); err != nil {
		return err
	}
	state, err := e.load()
	if err != nil {
		return err
	}
	state.Admins = nil
	if err := e.state.GovernancePut(state); err != nil {
		return err
	}
	e.emitter.Emit(events.AdminRemoved{Cleared: true})
	return nil
}

// AddApprover registers a co-authorization approver. Boss only.
func (e *Engine) AddApprover(caller, approver string) error {
	if err := e.RequireBoss(caller); err != nil {
		return err
	}
	state, err := e.load()
	if err != nil {
		return err
	}
	approver = normalizeAddress(approver)
	if approver == "" {
		return ErrInvalidAddress
	}
	if state.IsApprover(approver) {
		return ErrApproverAlreadyExists
	}
	if len(state.Approvers) >= MaxApprovers {
		return ErrMaxApproversReached
	}
	state.Approvers = append(state.Approvers, approver)
	return e.state.GovernancePut(state)
}

// RemoveApprover drops a registered approver. Boss only.
func (e *Engine) RemoveApprover(caller, approver string) error {
	if err := e.RequireBoss(caller); err != nil {
		return err
	}
	state, err := e.load()
	if err != nil {
		return err
	}
	approver = normalizeAddress(approver)
	idx := -1
	for i, existing := range state.Approvers {
		if existing == approver {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrApproverNotFound
	}
	state.Approvers = append(state.Approvers[:idx], state.Approvers[idx+1:]...)
	return e.state.GovernancePut(state)
}

// ProposeBoss starts the two-step boss transfer. Boss only. Proposing an
// empty address cancels a pending handover.
func (e *Engine) ProposeBoss(caller, proposed string) error {
	if err := e.RequireBoss(caller); err != nil {
		return err
	}
	state, err := e.load()
	if err != nil {
		return err
	}
	state.ProposedBoss = normalizeAddress(proposed)
	if err := e.state.GovernancePut(state); err != nil {
		return err
	}
	e.emitter.Emit(events.BossProposed{Current: state.Boss, Proposed: state.ProposedBoss})
	return nil
}

// AcceptBoss completes the handover. Only the proposed boss may accept.
func (e *Engine) AcceptBoss(caller string) error {
	state, err := e.load()
	if err != nil {
		return err
	}
	if state.ProposedBoss == "" {
		return ErrNoProposedBoss
	}
	if normalizeAddress(caller) != state.ProposedBoss {
		return ErrNotProposedBoss
	}
	state.Boss = state.ProposedBoss
	state.ProposedBoss = ""
	if err := e.state.GovernancePut(state); err != nil {
		return err
	}
	e.emitter.Emit(events.BossAccepted{Boss: state.Boss})
	return nil
}

// SetKillSwitch toggles the global halt flag. Boss or admin, so an on-call
// operator can halt the venue without the boss key.
func (e *Engine) SetKillSwitch(caller string, engaged bool) error {
	if err := e.RequireBossOrAdmin(caller); err != nil {
		return err
	}
	state, err := e.load()
	if err != nil {
		return err
	}
	state.KillSwitch = engaged
	if err := e.state.GovernancePut(state); err != nil {
		return err
	}
	e.emitter.Emit(events.KillSwitchSet{Engaged: engaged})
	return nil
}

// SetRedemptionAdmin designates the sole fulfiller of redemption requests.
// Boss only.
func (e *Engine) SetRedemptionAdmin(caller, admin string) error {
	if err := e.RequireBoss(caller); err != nil {
		return err
	}
	state, err := e.load()
	if err != nil {
		return err
	}
	state.RedemptionAdmin = normalizeAddress(admin)
	if err := e.state.GovernancePut(state); err != nil {
		return err
	}
	e.emitter.Emit(events.RedemptionAdminSet{Admin: state.RedemptionAdmin})
	return nil
}

// SetMaxSupply applies a supply cap on a mint via the ledger. Boss only.
func (e *Engine) SetMaxSupply(caller, mint string, max uint64) error {
	if err := e.RequireBoss(caller); err != nil {
		return err
	}
	if e.mints == nil {
		return fmt.Errorf("governance: mint configurer not wired")
	}
	return e.mints.SetMaxSupply(mint, max)
}

// HaltView adapts the engine to the common.HaltView interface. State read
// failures report the module as halted so a broken store fails closed.
type HaltView struct {
	Engine *Engine
}

// IsHalted implements common.HaltView.
func (v HaltView) IsHalted(string) bool {
	if v.Engine == nil {
		return false
	}
	halted, err := v.Engine.Halted()
	if err != nil {
		return true
	}
	return halted
}
