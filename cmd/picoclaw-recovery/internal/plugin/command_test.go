package plugin

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPluginCommand(t *testing.T) {
	cmd := NewPluginCommand()

	require.NotNil(t, cmd)

	assert.Equal(t, "plugin", cmd.Use)
	assert.Equal(t, "Inspect and validate plugins", cmd.Short)

	assert.True(t, cmd.HasSubCommands())
	assert.False(t, cmd.HasFlags())
	assert.NotNil(t, cmd.RunE)

	allowedCommands := []string{"list", "lint"}

	subcommands := cmd.Commands()
	assert.Len(t, subcommands, len(allowedCommands))

	for _, subcmd := range subcommands {
		found := slices.Contains(allowedCommands, subcmd.Name())
		assert.True(t, found, "unexpected subcommand %q", subcmd.Name())
		assert.False(t, subcmd.Hidden)
	}
}
