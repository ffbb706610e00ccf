// Package audithook bridges settle registry events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit backend. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/plugin"
	"github.com/xraph/settle/settlement"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnParticipantAdded   = (*Extension)(nil)
	_ plugin.OnParticipantRemoved = (*Extension)(nil)
	_ plugin.OnAddSkipped         = (*Extension)(nil)
	_ plugin.OnPaletteReset       = (*Extension)(nil)
	_ plugin.OnSnapshotCorrupt    = (*Extension)(nil)
	_ plugin.OnSnapshotSaveFailed = (*Extension)(nil)
	_ plugin.OnSettlementComputed = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges registry events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Participant hooks
// ──────────────────────────────────────────────────

// OnParticipantAdded implements plugin.OnParticipantAdded.
func (e *Extension) OnParticipantAdded(ctx context.Context, p participant.Participant) error {
	return e.record(ctx, ActionParticipantAdded, SeverityInfo, OutcomeSuccess,
		ResourceParticipant, p.Key, CategoryRegistry, nil,
		"name", p.Name,
		"amount", p.Amount,
		"color", p.Color.String(),
	)
}

// OnParticipantRemoved implements plugin.OnParticipantRemoved.
func (e *Extension) OnParticipantRemoved(ctx context.Context, p participant.Participant, position int) error {
	return e.record(ctx, ActionParticipantRemoved, SeverityInfo, OutcomeSuccess,
		ResourceParticipant, p.Key, CategoryRegistry, nil,
		"name", p.Name,
		"position", position,
	)
}

// OnAddSkipped implements plugin.OnAddSkipped.
func (e *Extension) OnAddSkipped(ctx context.Context, name, amountText string) error {
	return e.record(ctx, ActionParticipantSkipped, SeverityWarning, OutcomeFailure,
		ResourceParticipant, "", CategoryRegistry, nil,
		"name", name,
		"amount", amountText,
	)
}

// OnPaletteReset implements plugin.OnPaletteReset.
func (e *Extension) OnPaletteReset(ctx context.Context, cycle int) error {
	return e.record(ctx, ActionPaletteReset, SeverityInfo, OutcomeSuccess,
		ResourcePalette, "", CategoryRegistry, nil,
		"cycle", cycle,
	)
}

// ──────────────────────────────────────────────────
// Snapshot hooks
// ──────────────────────────────────────────────────

// OnSnapshotCorrupt implements plugin.OnSnapshotCorrupt.
func (e *Extension) OnSnapshotCorrupt(ctx context.Context, err error) error {
	return e.record(ctx, ActionSnapshotCorrupt, SeverityError, OutcomeFailure,
		ResourceSnapshot, "", CategoryPersistence, err,
	)
}

// OnSnapshotSaveFailed implements plugin.OnSnapshotSaveFailed.
func (e *Extension) OnSnapshotSaveFailed(ctx context.Context, err error) error {
	return e.record(ctx, ActionSnapshotSaveFailed, SeverityCritical, OutcomeFailure,
		ResourceSnapshot, "", CategoryPersistence, err,
	)
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnSettlementComputed implements plugin.OnSettlementComputed.
func (e *Extension) OnSettlementComputed(ctx context.Context, res *settlement.Result) error {
	if res == nil {
		return nil
	}
	return e.record(ctx, ActionSettlementComputed, SeverityInfo, OutcomeSuccess,
		ResourceSettlement, "", CategorySettlement, nil,
		"total", res.Total,
		"fair_share", res.FairShare,
		"participants", len(res.Balances),
		"transactions", len(res.Transactions),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged and never returned.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
