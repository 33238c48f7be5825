package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type haltAll bool

func (h haltAll) IsHalted(string) bool { return bool(h) }

func TestGuard(t *testing.T) {
	require.NoError(t, Guard(nil, "vault"))
	require.NoError(t, Guard(haltAll(true), ""))
	require.NoError(t, Guard(haltAll(false), "vault"))
	require.ErrorIs(t, Guard(haltAll(true), "vault"), ErrModuleHalted)
}
