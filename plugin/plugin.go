// Package plugin provides an extensible plugin system for settle.
// Plugins can hook into registry lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/settlement"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the registry starts. r is the *settle.Registry.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, r any) error
}

// OnShutdown is called when the registry stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Participant hooks
// ──────────────────────────────────────────────────

// OnParticipantAdded is called after a participant is appended and persisted.
type OnParticipantAdded interface {
	Plugin
	OnParticipantAdded(ctx context.Context, p participant.Participant) error
}

// OnParticipantRemoved is called after the participant at position is removed.
type OnParticipantRemoved interface {
	Plugin
	OnParticipantRemoved(ctx context.Context, p participant.Participant, position int) error
}

// OnAddSkipped is called when an add is ignored because the name is empty
// or the amount does not parse.
type OnAddSkipped interface {
	Plugin
	OnAddSkipped(ctx context.Context, name, amountText string) error
}

// OnPaletteReset is called when every palette color has been used and the
// allocator starts a new cycle.
type OnPaletteReset interface {
	Plugin
	OnPaletteReset(ctx context.Context, cycle int) error
}

// ──────────────────────────────────────────────────
// Snapshot hooks
// ──────────────────────────────────────────────────

// OnSnapshotLoaded is called after the persisted snapshot is loaded.
type OnSnapshotLoaded interface {
	Plugin
	OnSnapshotLoaded(ctx context.Context, count int) error
}

// OnSnapshotCorrupt is called when the persisted snapshot cannot be decoded
// and the registry starts empty instead.
type OnSnapshotCorrupt interface {
	Plugin
	OnSnapshotCorrupt(ctx context.Context, err error) error
}

// OnSnapshotSaved is called after a full snapshot write succeeds.
type OnSnapshotSaved interface {
	Plugin
	OnSnapshotSaved(ctx context.Context, count int, elapsed time.Duration) error
}

// OnSnapshotSaveFailed is called when a snapshot write fails.
type OnSnapshotSaveFailed interface {
	Plugin
	OnSnapshotSaveFailed(ctx context.Context, err error) error
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnSettlementComputed is called after the registry computes a settlement.
type OnSettlementComputed interface {
	Plugin
	OnSettlementComputed(ctx context.Context, res *settlement.Result) error
}
