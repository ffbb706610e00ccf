// Package extension provides the Forge extension adapter for settle.
//
// It implements the forge.Extension interface to integrate the participant
// registry into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.settle" or "settle" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/settle"
	"github.com/xraph/settle/store"
	"github.com/xraph/settle/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "settle"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Shared expense registry and settlement engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts settle as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	registry     *settle.Registry
	store        store.Store
	registryOpts []settle.Option
}

// New creates a new settle Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the underlying participant registry.
// This is nil until Register is called.
func (e *Extension) Registry() *settle.Registry { return e.registry }

// Register implements [forge.Extension]. It loads configuration, builds
// the registry and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildRegistryOpts()
	if err != nil {
		return err
	}
	e.registry = settle.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*settle.Registry, error) {
		return e.registry, nil
	})
}

// Start implements [forge.Extension]. It migrates the store unless
// DisableMigrate is set and loads the persisted participant list.
func (e *Extension) Start(ctx context.Context) error {
	if e.registry == nil {
		return errors.New("settle: extension not initialized")
	}

	if err := e.registry.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.registry != nil {
		if err := e.registry.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("settle: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildRegistryOpts constructs settle.Option values from the resolved config.
// Pass-through options come last so they win over config.
func (e *Extension) buildRegistryOpts() ([]settle.Option, error) {
	opts := make([]settle.Option, 0, len(e.registryOpts)+3)

	if e.config.SnapshotKey != "" {
		opts = append(opts, settle.WithSnapshotKey(e.config.SnapshotKey))
	}

	palette, err := e.config.palette()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", settle.ErrInvalidPalette, err)
	}
	if palette != nil {
		opts = append(opts, settle.WithPalette(palette))
	}

	if e.config.DisableMigrate {
		opts = append(opts, settle.WithoutMigrate())
	}

	opts = append(opts, e.registryOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("settle: configuration is required but not found in config files; " +
				"ensure 'extensions.settle' or 'settle' key exists in your config")
		}

		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("settle: configuration loaded",
		forge.F("snapshot_key", e.config.SnapshotKey),
		forge.F("palette_size", len(e.config.Palette)),
		forge.F("disable_migrate", e.config.DisableMigrate),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.settle" first (namespaced pattern).
	if cm.IsSet("extensions.settle") {
		if err := cm.Bind("extensions.settle", &cfg); err == nil {
			e.Logger().Debug("settle: loaded config from file",
				forge.F("key", "extensions.settle"),
			)
			return cfg, true
		}
		e.Logger().Warn("settle: failed to bind extensions.settle config",
			forge.F("error", "bind failed"),
		)
	}

	// Try top-level "settle" key.
	if cm.IsSet("settle") {
		if err := cm.Bind("settle", &cfg); err == nil {
			e.Logger().Debug("settle: loaded config from file",
				forge.F("key", "settle"),
			)
			return cfg, true
		}
		e.Logger().Warn("settle: failed to bind settle config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.SnapshotKey == "" {
		cfg.SnapshotKey = defaults.SnapshotKey
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.SnapshotKey == "" && programmaticConfig.SnapshotKey != "" {
		yamlConfig.SnapshotKey = programmaticConfig.SnapshotKey
	}
	if len(yamlConfig.Palette) == 0 && len(programmaticConfig.Palette) != 0 {
		yamlConfig.Palette = programmaticConfig.Palette
	}

	return mergeWithDefaults(yamlConfig)
}
