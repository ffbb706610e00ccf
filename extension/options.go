package extension

import (
	"github.com/xraph/settle"
	"github.com/xraph/settle/plugin"
	"github.com/xraph/settle/store"
)

// Option configures the settle Forge extension.
type Option func(*Extension)

// WithStore sets the store for the registry.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithRegistryOption passes a settle.Option through to the underlying registry.
func WithRegistryOption(opt settle.Option) Option {
	return func(e *Extension) {
		e.registryOpts = append(e.registryOpts, opt)
	}
}

// WithPlugin registers a settle plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.registryOpts = append(e.registryOpts, settle.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithSnapshotKey sets the store key the participant list is saved under.
func WithSnapshotKey(key string) Option {
	return func(e *Extension) { e.config.SnapshotKey = key }
}

// WithPalette sets the participant colors as "#RRGGBB" strings.
func WithPalette(colors ...string) Option {
	return func(e *Extension) { e.config.Palette = colors }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
