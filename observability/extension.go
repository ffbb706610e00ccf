// Package observability provides a metrics extension for settle that records
// registry event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/plugin"
	"github.com/xraph/settle/settlement"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnParticipantAdded   = (*MetricsExtension)(nil)
	_ plugin.OnParticipantRemoved = (*MetricsExtension)(nil)
	_ plugin.OnAddSkipped         = (*MetricsExtension)(nil)
	_ plugin.OnPaletteReset       = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotLoaded     = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotCorrupt    = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotSaved      = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotSaveFailed = (*MetricsExtension)(nil)
	_ plugin.OnSettlementComputed = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records registry metrics.
// Register it as a settle plugin to track participant and snapshot activity.
type MetricsExtension struct {
	factory MetricFactory

	// Participant metrics
	ParticipantAdded   Counter
	ParticipantRemoved Counter
	AddSkipped         Counter
	PaletteReset       Counter

	// Snapshot metrics
	SnapshotLoaded      Counter
	SnapshotCorrupt     Counter
	SnapshotSaved       Counter
	SnapshotSaveFailed  Counter
	SnapshotSaveLatency Histogram

	// Settlement metrics
	SettlementComputed     Counter
	SettlementTransactions Histogram
	SettlementTotal        Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use NewPrometheusFactory for a Prometheus-backed factory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		ParticipantAdded:   factory.Counter("settle.participant.added"),
		ParticipantRemoved: factory.Counter("settle.participant.removed"),
		AddSkipped:         factory.Counter("settle.participant.skipped"),
		PaletteReset:       factory.Counter("settle.palette.reset"),

		SnapshotLoaded:      factory.Counter("settle.snapshot.loaded"),
		SnapshotCorrupt:     factory.Counter("settle.snapshot.corrupt"),
		SnapshotSaved:       factory.Counter("settle.snapshot.saved"),
		SnapshotSaveFailed:  factory.Counter("settle.snapshot.save_failed"),
		SnapshotSaveLatency: factory.Histogram("settle.snapshot.save.latency_ms"),

		SettlementComputed:     factory.Counter("settle.settlement.computed"),
		SettlementTransactions: factory.Histogram("settle.settlement.transactions"),
		SettlementTotal:        factory.Histogram("settle.settlement.total_amount"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Participant hooks
// ──────────────────────────────────────────────────

// OnParticipantAdded implements plugin.OnParticipantAdded.
func (m *MetricsExtension) OnParticipantAdded(_ context.Context, _ participant.Participant) error {
	m.ParticipantAdded.Inc()
	return nil
}

// OnParticipantRemoved implements plugin.OnParticipantRemoved.
func (m *MetricsExtension) OnParticipantRemoved(_ context.Context, _ participant.Participant, _ int) error {
	m.ParticipantRemoved.Inc()
	return nil
}

// OnAddSkipped implements plugin.OnAddSkipped.
func (m *MetricsExtension) OnAddSkipped(_ context.Context, _, _ string) error {
	m.AddSkipped.Inc()
	return nil
}

// OnPaletteReset implements plugin.OnPaletteReset.
func (m *MetricsExtension) OnPaletteReset(_ context.Context, _ int) error {
	m.PaletteReset.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Snapshot hooks
// ──────────────────────────────────────────────────

// OnSnapshotLoaded implements plugin.OnSnapshotLoaded.
func (m *MetricsExtension) OnSnapshotLoaded(_ context.Context, _ int) error {
	m.SnapshotLoaded.Inc()
	return nil
}

// OnSnapshotCorrupt implements plugin.OnSnapshotCorrupt.
func (m *MetricsExtension) OnSnapshotCorrupt(_ context.Context, _ error) error {
	m.SnapshotCorrupt.Inc()
	return nil
}

// OnSnapshotSaved implements plugin.OnSnapshotSaved.
func (m *MetricsExtension) OnSnapshotSaved(_ context.Context, _ int, elapsed time.Duration) error {
	m.SnapshotSaved.Inc()
	m.SnapshotSaveLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnSnapshotSaveFailed implements plugin.OnSnapshotSaveFailed.
func (m *MetricsExtension) OnSnapshotSaveFailed(_ context.Context, _ error) error {
	m.SnapshotSaveFailed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnSettlementComputed implements plugin.OnSettlementComputed.
func (m *MetricsExtension) OnSettlementComputed(_ context.Context, res *settlement.Result) error {
	m.SettlementComputed.Inc()
	if res == nil {
		return nil
	}
	m.SettlementTransactions.Observe(float64(len(res.Transactions)))
	m.SettlementTotal.Observe(res.Total)
	return nil
}
