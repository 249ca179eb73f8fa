// PicoClaw - Ultra-lightweight personal AI agent
// Inspired by and based on nanobot: https://github.com/HKUDS/nanobot
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package plugin

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sipeed/picoclaw-recovery/pkg/hooks"
	"github.com/sipeed/picoclaw-recovery/pkg/logger"
)

// APIVersion identifies the compile-time plugin contract version.
const APIVersion = "v1alpha1"

var (
	ErrAPIVersion      = errors.New("plugin api version mismatch")
	ErrDuplicatePlugin = errors.New("plugin already registered")
)

// Plugin is the compile-time contract for hook plugins. Register attaches
// handlers to the shared registry and is called once per Manager.
type Plugin interface {
	Name() string
	APIVersion() string
	Register(*hooks.HookRegistry) error
}

// Manager loads plugins into one hook registry and keeps them addressable
// by normalized name, so callers can reach a concrete plugin after loading.
type Manager struct {
	registry *hooks.HookRegistry

	mu     sync.RWMutex
	order  []string
	byName map[string]Plugin
}

func NewManager() *Manager {
	return &Manager{
		registry: hooks.NewHookRegistry(),
		byName:   make(map[string]Plugin),
	}
}

func (m *Manager) HookRegistry() *hooks.HookRegistry {
	return m.registry
}

// Names returns plugin names as they reported them, in load order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

// Lookup finds a loaded plugin. Name matching ignores case and surrounding
// space.
func (m *Manager) Lookup(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byName[NormalizePluginName(name)]
	return p, ok
}

// Register validates p and lets it attach its handlers. A plugin whose
// Register fails is not recorded.
func (m *Manager) Register(p Plugin) error {
	name, err := checkPlugin(p)
	if err != nil {
		return err
	}
	key := NormalizePluginName(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.byName[key]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicatePlugin, name)
	}

	before := m.registry.Counts()
	if err := p.Register(m.registry); err != nil {
		return fmt.Errorf("register plugin %q: %w", name, err)
	}

	m.byName[key] = p
	m.order = append(m.order, name)

	fields := map[string]any{"plugin": name}
	for hook, n := range m.registry.Counts() {
		if added := n - before[hook]; added > 0 {
			fields[hook] = added
		}
	}
	logger.DebugCF("plugin", "Plugin loaded", fields)
	return nil
}

// RegisterAll registers plugins in order and stops at the first failure.
// Plugins loaded before the failure stay registered.
func (m *Manager) RegisterAll(plugins ...Plugin) error {
	for _, p := range plugins {
		if err := m.Register(p); err != nil {
			return err
		}
	}
	return nil
}

func checkPlugin(p Plugin) (string, error) {
	if p == nil {
		return "", errors.New("plugin is nil")
	}
	name := strings.TrimSpace(p.Name())
	if name == "" {
		return "", errors.New("plugin name is required")
	}
	got := strings.TrimSpace(p.APIVersion())
	if got == APIVersion {
		return name, nil
	}
	if got == "" {
		got = "<empty>"
	}
	return "", fmt.Errorf("%w: plugin %q has %s, want %s", ErrAPIVersion, name, got, APIVersion)
}
