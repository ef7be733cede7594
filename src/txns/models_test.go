package txns

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockModeCompatibility(t *testing.T) {
	tests := []struct {
		held, requested LockMode
		compatible      bool
	}{
		{LockModeDefault, LockModeDefault, true},
		{LockModeDefault, LockModeUpdate, false},
		{LockModeUpdate, LockModeDefault, false},
		{LockModeUpdate, LockModeUpdate, false},
	}

	for _, test := range tests {
		name := fmt.Sprintf("held: %s, requested: %s", test.held, test.requested)
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.compatible, test.held.Compatible(test.requested))
			require.Equal(t, test.compatible, test.requested.Compatible(test.held))
		})
	}
}

func TestLockModeOrdering(t *testing.T) {
	require.True(t, LockModeDefault.WeakerOrEqual(LockModeDefault))
	require.True(t, LockModeDefault.WeakerOrEqual(LockModeUpdate))
	require.True(t, LockModeUpdate.WeakerOrEqual(LockModeUpdate))
	require.False(t, LockModeUpdate.WeakerOrEqual(LockModeDefault))

	require.True(t, LockModeDefault.Upgradable(LockModeUpdate))
	require.False(t, LockModeUpdate.Upgradable(LockModeUpdate))
	require.False(t, LockModeUpdate.Upgradable(LockModeDefault))

	require.Equal(t, LockModeUpdate, LockModeDefault.Stronger(LockModeUpdate))
	require.Equal(t, LockModeUpdate, LockModeUpdate.Stronger(LockModeDefault))
	require.Equal(t, LockModeDefault, LockModeDefault.Stronger(LockModeDefault))
}

func TestLockModeZeroValueIsDefault(t *testing.T) {
	var m LockMode
	require.Equal(t, LockModeDefault, m)
	require.Equal(t, "DEFAULT", m.String())
	require.Equal(t, "UPDATE", LockModeUpdate.String())
}
