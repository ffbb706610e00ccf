package extension

import "github.com/xraph/settle/participant"

// Config holds the settle extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.settle" or "settle" keys).
type Config struct {
	// SnapshotKey is the store key the participant list is saved under
	// (default: "settle:participants").
	SnapshotKey string `json:"snapshot_key" mapstructure:"snapshot_key" yaml:"snapshot_key"`

	// Palette overrides the participant colors, as "#RRGGBB" strings.
	// Empty means the built-in palette.
	Palette []string `json:"palette" mapstructure:"palette" yaml:"palette"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SnapshotKey: "settle:participants",
	}
}

// palette converts the configured colors, or returns nil when none are set.
func (c Config) palette() (participant.Palette, error) {
	if len(c.Palette) == 0 {
		return nil, nil
	}
	p := make(participant.Palette, 0, len(c.Palette))
	for _, s := range c.Palette {
		p = append(p, participant.Color(s))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
