package pluginruntime

import (
	"fmt"

	"github.com/sipeed/picoclaw-recovery/pkg/config"
	"github.com/sipeed/picoclaw-recovery/pkg/logger"
	"github.com/sipeed/picoclaw-recovery/pkg/plugin"
	"github.com/sipeed/picoclaw-recovery/pkg/plugin/builtin"
)

type Summary struct {
	Enabled         []string
	Disabled        []string
	UnknownEnabled  []string
	UnknownDisabled []string
	Warnings        []string
}

func ResolveConfiguredPlugins(cfg *config.Config) ([]plugin.Plugin, Summary, error) {
	if cfg == nil {
		return nil, Summary{}, fmt.Errorf("config is nil")
	}

	resolved, err := plugin.ResolveSelection(
		builtin.Names(),
		plugin.SelectionInput{
			DefaultEnabled: cfg.Plugins.DefaultEnabled,
			Enabled:        cfg.Plugins.Enabled,
			Disabled:       cfg.Plugins.Disabled,
		},
	)

	summary := Summary{
		Enabled:         resolved.EnabledNames,
		Disabled:        resolved.DisabledNames,
		UnknownEnabled:  resolved.UnknownEnabled,
		UnknownDisabled: resolved.UnknownDisabled,
		Warnings:        resolved.Warnings,
	}
	if err != nil {
		return nil, summary, err
	}

	catalog := builtin.Catalog()
	normalizedCatalog := make(map[string]builtin.Factory, len(catalog))
	for name, factory := range catalog {
		normalizedCatalog[plugin.NormalizePluginName(name)] = factory
	}

	opts := builtin.Options{Recovery: cfg.RecoveryOptions()}
	instances := make([]plugin.Plugin, 0, len(resolved.EnabledNames))
	for _, name := range resolved.EnabledNames {
		factory, ok := normalizedCatalog[name]
		if !ok {
			return nil, summary, fmt.Errorf("builtin plugin %q has no factory", name)
		}
		instance := factory(opts)
		if instance == nil {
			return nil, summary, fmt.Errorf("builtin plugin %q factory returned nil", name)
		}
		instances = append(instances, instance)
	}

	return instances, summary, nil
}

// NewManager resolves the configured plugins and registers them with a fresh
// manager. Selection warnings are logged.
func NewManager(cfg *config.Config) (*plugin.Manager, Summary, error) {
	instances, summary, err := ResolveConfiguredPlugins(cfg)
	if err != nil {
		return nil, summary, err
	}
	for _, w := range summary.Warnings {
		logger.WarnCF("plugins", w, nil)
	}

	pm := plugin.NewManager()
	if err := pm.RegisterAll(instances...); err != nil {
		return nil, summary, fmt.Errorf("registering plugins: %w", err)
	}
	return pm, summary, nil
}
