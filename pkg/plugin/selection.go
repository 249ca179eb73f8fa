package plugin

import (
	"fmt"
	"sort"
	"strings"
)

// SelectionInput is the plugin section of the user config.
type SelectionInput struct {
	DefaultEnabled bool
	Enabled        []string
	Disabled       []string
}

// Selection is the outcome of matching config against available plugins.
// All names are normalized and sorted.
type Selection struct {
	EnabledNames    []string
	DisabledNames   []string
	UnknownEnabled  []string
	UnknownDisabled []string
	Warnings        []string
}

// NormalizePluginName lower-cases and trims a plugin name.
func NormalizePluginName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolveSelection decides which available plugins are enabled.
//
// A plugin listed in Disabled is always off. Otherwise it is on when listed in
// Enabled or when DefaultEnabled is set. Names in Enabled that are not
// available make the selection fail; unknown names in Disabled only warn.
func ResolveSelection(available []string, in SelectionInput) (Selection, error) {
	known := toSet(available)
	enabled := toSet(in.Enabled)
	disabled := toSet(in.Disabled)

	var sel Selection
	for name := range known {
		switch {
		case disabled[name]:
			sel.DisabledNames = append(sel.DisabledNames, name)
		case enabled[name] || in.DefaultEnabled:
			sel.EnabledNames = append(sel.EnabledNames, name)
		default:
			sel.DisabledNames = append(sel.DisabledNames, name)
		}
	}
	for name := range enabled {
		if !known[name] {
			sel.UnknownEnabled = append(sel.UnknownEnabled, name)
		}
	}
	for name := range disabled {
		if !known[name] {
			sel.UnknownDisabled = append(sel.UnknownDisabled, name)
			sel.Warnings = append(sel.Warnings, fmt.Sprintf("disabled plugin %q is not available", name))
		}
		if enabled[name] {
			sel.Warnings = append(sel.Warnings, fmt.Sprintf("plugin %q is both enabled and disabled; disabled wins", name))
		}
	}

	sort.Strings(sel.EnabledNames)
	sort.Strings(sel.DisabledNames)
	sort.Strings(sel.UnknownEnabled)
	sort.Strings(sel.UnknownDisabled)
	sort.Strings(sel.Warnings)

	if len(sel.UnknownEnabled) > 0 {
		return sel, fmt.Errorf("unknown enabled plugins: %s", strings.Join(sel.UnknownEnabled, ", "))
	}
	return sel, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n = NormalizePluginName(n); n != "" {
			set[n] = true
		}
	}
	return set
}
