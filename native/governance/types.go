package governance

import "strings"

const (
	// MaxAdmins bounds the peer-authority admin set.
	MaxAdmins = 20
	// MaxApprovers bounds the co-authorization approver set.
	MaxApprovers = 2
)

// State holds the venue's authority configuration. A single record exists in
// state; every mutating engine consults it before touching anything else.
type State struct {
	Boss            string
	ProposedBoss    string
	Admins          []string
	Approvers       []string
	RedemptionAdmin string
	KillSwitch      bool
}

// Clone returns a deep copy so callers can mutate the result safely.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Admins = append([]string(nil), s.Admins...)
	clone.Approvers = append([]string(nil), s.Approvers...)
	return &clone
}

// IsAdmin reports whether the address sits in the admin set. The sets are
// capped small enough that a linear scan is the right data structure.
func (s *State) IsAdmin(addr string) bool {
	addr = normalizeAddress(addr)
	for _, admin := range s.Admins {
		if admin == addr {
			return true
		}
	}
	return false
}

// IsApprover reports whether the address sits in the approver set.
func (s *State) IsApprover(addr string) bool {
	addr = normalizeAddress(addr)
	for _, approver := range s.Approvers {
		if approver == addr {
			return true
		}
	}
	return false
}

func normalizeAddress(addr string) string {
	return strings.TrimSpace(addr)
}
