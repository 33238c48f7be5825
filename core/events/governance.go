package events

import (
	"strconv"
	"strings"

	"onre/core/types"
)

const (
	// TypeAdminAdded is emitted when an address joins the admin set.
	TypeAdminAdded = "governance.admin.added"
	// TypeAdminRemoved is emitted when an address leaves the admin set.
	TypeAdminRemoved = "governance.admin.removed"
	// TypeBossProposed is emitted when a boss handover is initiated.
	TypeBossProposed = "governance.boss.proposed"
	// TypeBossAccepted is emitted when the proposed boss accepts the handover.
	TypeBossAccepted = "governance.boss.accepted"
	// TypeKillSwitchSet is emitted when the global halt flag changes.
	TypeKillSwitchSet = "governance.killswitch"
	// TypeRedemptionAdminSet is emitted when the redemption admin changes.
	TypeRedemptionAdminSet = "governance.redemption_admin"
)

// AdminAdded records an admin set addition.
type AdminAdded struct {
	Admin string
}

func (AdminAdded) EventType() string { return TypeAdminAdded }

// Event converts the payload into its attribute map representation.
func (e AdminAdded) Event() *types.Event {
	return &types.Event{
		Type:       TypeAdminAdded,
		Attributes: map[string]string{"admin": strings.TrimSpace(e.Admin)},
	}
}

// AdminRemoved records an admin set removal. Cleared reports a bulk reset.
type AdminRemoved struct {
	Admin   string
	Cleared bool
}

func (AdminRemoved) EventType() string { return TypeAdminRemoved }

// Event converts the payload into its attribute map representation.
func (e AdminRemoved) Event() *types.Event {
	return &types.Event{
		Type: TypeAdminRemoved,
		Attributes: map[string]string{
			"admin":   strings.TrimSpace(e.Admin),
			"cleared": strconv.FormatBool(e.Cleared),
		},
	}
}

// BossProposed records the start of a two-step boss transfer.
type BossProposed struct {
	Current  string
	Proposed string
}

func (BossProposed) EventType() string { return TypeBossProposed }

// Event converts the payload into its attribute map representation.
func (e BossProposed) Event() *types.Event {
	return &types.Event{
		Type: TypeBossProposed,
		Attributes: map[string]string{
			"current":  strings.TrimSpace(e.Current),
			"proposed": strings.TrimSpace(e.Proposed),
		},
	}
}

// BossAccepted records the completion of a boss transfer.
type BossAccepted struct {
	Boss string
}

func (BossAccepted) EventType() string { return TypeBossAccepted }

// Event converts the payload into its attribute map representation.
func (e BossAccepted) Event() *types.Event {
	return &types.Event{
		Type:       TypeBossAccepted,
		Attributes: map[string]string{"boss": strings.TrimSpace(e.Boss)},
	}
}

// KillSwitchSet records a change of the global halt flag.
type KillSwitchSet struct {
	Engaged bool
}

func (KillSwitchSet) EventType() string { return TypeKillSwitchSet }

// Event converts the payload into its attribute map representation.
func (e KillSwitchSet) Event() *types.Event {
	return &types.Event{
		Type:       TypeKillSwitchSet,
		Attributes: map[string]string{"engaged": strconv.FormatBool(e.Engaged)},
	}
}

// RedemptionAdminSet records a change of the redemption admin.
type RedemptionAdminSet struct {
	Admin string
}

func (RedemptionAdminSet) EventType() string { return TypeRedemptionAdminSet }

// Event converts the payload into its attribute map representation.
func (e RedemptionAdminSet) Event() *types.Event {
	return &types.Event{
		Type:       TypeRedemptionAdminSet,
		Attributes: map[string]string{"admin": strings.TrimSpace(e.Admin)},
	}
}
