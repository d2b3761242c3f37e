package partner

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"cardlink-engine/pkg/config"
	"cardlink-engine/services/authorization"
)

func TestNewExecutorsBuildsAllPartnersByDefault(t *testing.T) {
	node, err := snowflake.NewNode(8)
	require.NoError(t, err)

	execs, err := NewExecutors(ExecutorsParams{
		Cfg:         &config.Config{},
		Node:        node,
		Coordinator: authorization.NewCoordinator(nil),
	})
	require.NoError(t, err)

	for _, p := range authorization.Partners() {
		exec, ok := execs.For(p)
		require.True(t, ok)
		require.Equal(t, p, exec.Partner())
	}
}

func TestNewExecutorsHonorsEnabledList(t *testing.T) {
	node, err := snowflake.NewNode(8)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Partners.Enabled = []string{"amex", "visa"}

	execs, err := NewExecutors(ExecutorsParams{
		Cfg:         cfg,
		Node:        node,
		Coordinator: authorization.NewCoordinator(nil),
	})
	require.NoError(t, err)

	_, ok := execs.For(authorization.PartnerAmex)
	require.True(t, ok)
	_, ok = execs.For(authorization.PartnerVisa)
	require.True(t, ok)
	_, ok = execs.For(authorization.PartnerMasterCard)
	require.False(t, ok)
	_, ok = execs.For(authorization.PartnerFirstData)
	require.False(t, ok)
}
