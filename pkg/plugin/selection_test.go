package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSelection(t *testing.T) {
	available := []string{"error-recovery", "Audit"}

	tests := []struct {
		name         string
		in           SelectionInput
		wantEnabled  []string
		wantDisabled []string
		wantErr      bool
		wantWarnings int
	}{
		{
			name:         "default enabled",
			in:           SelectionInput{DefaultEnabled: true},
			wantEnabled:  []string{"audit", "error-recovery"},
			wantDisabled: nil,
		},
		{
			name:         "explicit enable only",
			in:           SelectionInput{Enabled: []string{" Error-Recovery "}},
			wantEnabled:  []string{"error-recovery"},
			wantDisabled: []string{"audit"},
		},
		{
			name:         "disabled wins",
			in:           SelectionInput{DefaultEnabled: true, Enabled: []string{"audit"}, Disabled: []string{"audit"}},
			wantEnabled:  []string{"error-recovery"},
			wantDisabled: []string{"audit"},
			wantWarnings: 1,
		},
		{
			name:         "unknown disabled warns",
			in:           SelectionInput{DefaultEnabled: true, Disabled: []string{"ghost"}},
			wantEnabled:  []string{"audit", "error-recovery"},
			wantWarnings: 1,
		},
		{
			name:         "unknown enabled fails",
			in:           SelectionInput{Enabled: []string{"ghost"}},
			wantDisabled: []string{"audit", "error-recovery"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ResolveSelection(available, tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, []string{"ghost"}, sel.UnknownEnabled)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantEnabled, sel.EnabledNames)
			assert.Equal(t, tt.wantDisabled, sel.DisabledNames)
			assert.Len(t, sel.Warnings, tt.wantWarnings)
		})
	}
}

func TestNormalizePluginName(t *testing.T) {
	assert.Equal(t, "error-recovery", NormalizePluginName("  Error-Recovery\t"))
	assert.Equal(t, "", NormalizePluginName("   "))
}
