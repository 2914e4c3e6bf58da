package accounting

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestNetZero(t *testing.T) {
	a := New()
	a.Change(u(100), u(150))
	a.Change(u(150), u(100))
	require.Equal(t, Zero, a.Net().Sign)
}

func TestNetGained(t *testing.T) {
	a := New()
	a.Add(u(50))
	a.Change(u(10), u(20))
	net := a.Net()
	require.Equal(t, Gained, net.Sign)
	require.Equal(t, *u(60), net.Amount)
}

func TestNetLost(t *testing.T) {
	a := New()
	a.Remove(u(21000))
	net := a.Net()
	require.Equal(t, Lost, net.Sign)
	require.Equal(t, *u(21000), net.Amount)
}
