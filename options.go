package settle

import (
	"log/slog"
	"time"

	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/plugin"
)

// Option configures a Registry instance.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
		r.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(r *Registry) {
		_ = r.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.plugins.WithTimeout(d)
	}
}

// WithSnapshotKey sets the store key the participant list is saved under.
// It has no effect when WithSnapshotStore is also used.
func WithSnapshotKey(key string) Option {
	return func(r *Registry) {
		if key != "" {
			r.key = key
		}
	}
}

// WithPalette replaces the default palette. Invalid palettes are ignored
// with a warning; use participant.Palette.Validate to check up front.
func WithPalette(p participant.Palette) Option {
	return func(r *Registry) {
		if err := p.Validate(); err != nil {
			r.logger.Warn("settle: ignoring invalid palette", "error", err)
			return
		}
		r.palette = p
	}
}

// WithRand sets the random source used to pick colors.
func WithRand(rnd participant.Rand) Option {
	return func(r *Registry) {
		r.rnd = rnd
	}
}

// WithSnapshotStore replaces the default SnapshotStore with a custom
// persistence port.
func WithSnapshotStore(s participant.Store) Option {
	return func(r *Registry) {
		r.snapshots = s
	}
}

// WithoutMigrate stops Start from running store migrations.
func WithoutMigrate() Option {
	return func(r *Registry) {
		r.migrate = false
	}
}
