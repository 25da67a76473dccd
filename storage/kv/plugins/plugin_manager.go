// Package plugins lists the kv drivers a registry can be kept in
package plugins

import (
	"sort"

	"github.com/jrife/regdb/storage/kv"
	"github.com/jrife/regdb/storage/kv/plugins/bbolt"
)

// Manager looks up kv drivers by name
type Manager struct {
	plugins map[string]kv.Plugin
}

// NewManager returns a Manager loaded with every built-in driver
func NewManager() *Manager {
	manager := &Manager{plugins: map[string]kv.Plugin{}}

	for _, plugin := range bbolt.Plugins() {
		manager.Register(plugin)
	}

	for _, plugin := range kv.MemoryPlugins() {
		manager.Register(plugin)
	}

	return manager
}

// Register adds plugin, replacing any driver with the same name
func (manager *Manager) Register(plugin kv.Plugin) {
	manager.plugins[plugin.Name()] = plugin
}

// Plugin returns the driver called name or nil
func (manager *Manager) Plugin(name string) kv.Plugin {
	return manager.plugins[name]
}

// Names returns the driver names in sorted order
func (manager *Manager) Names() []string {
	names := make([]string, 0, len(manager.plugins))

	for name := range manager.plugins {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Plugins returns every driver ordered by name
func (manager *Manager) Plugins() []kv.Plugin {
	plugins := make([]kv.Plugin, 0, len(manager.plugins))

	for _, name := range manager.Names() {
		plugins = append(plugins, manager.plugins[name])
	}

	return plugins
}
