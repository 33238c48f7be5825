package common

import "errors"

// ErrModuleHalted is returned when a mutating call arrives while the module
// (or the whole venue, via the kill switch) is halted.
var ErrModuleHalted = errors.New("module halted")

// HaltView reports whether a module is currently halted. The governance
// engine provides the canonical implementation backed by the kill switch.
type HaltView interface {
	IsHalted(module string) bool
}

// Guard rejects the call when the view reports the module as halted. A nil
// view or empty module name disables the check.
func Guard(v HaltView, module string) error {
	if v == nil || module == "" {
		return nil
	}
	if v.IsHalted(module) {
		return ErrModuleHalted
	}
	return nil
}
