package builtin

import (
	"sort"

	"github.com/sipeed/picoclaw-recovery/pkg/plugin"
	"github.com/sipeed/picoclaw-recovery/pkg/plugin/recoveryplugin"
	"github.com/sipeed/picoclaw-recovery/pkg/recovery"
)

// Options carries the config sections builtin plugins are built from.
type Options struct {
	Recovery recovery.Options
}

// Factory creates one builtin plugin instance.
type Factory func(Options) plugin.Plugin

// Catalog returns compile-time builtin plugin factories by name.
func Catalog() map[string]Factory {
	return map[string]Factory{
		recoveryplugin.Name: func(opts Options) plugin.Plugin {
			return recoveryplugin.New(opts.Recovery)
		},
	}
}

// Names returns sorted builtin plugin names.
func Names() []string {
	catalog := Catalog()
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
