package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/settlement"
)

// DefaultTimeout bounds how long a single plugin hook may run.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so emitting an event only touches the
// plugins that implement it.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onParticipantAdded   []OnParticipantAdded
	onParticipantRemoved []OnParticipantRemoved
	onAddSkipped         []OnAddSkipped
	onPaletteReset       []OnPaletteReset
	onSnapshotLoaded     []OnSnapshotLoaded
	onSnapshotCorrupt    []OnSnapshotCorrupt
	onSnapshotSaved      []OnSnapshotSaved
	onSnapshotSaveFailed []OnSnapshotSaveFailed
	onSettlementComputed []OnSettlementComputed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout. Non-positive values are ignored.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnParticipantAdded); ok {
		r.onParticipantAdded = append(r.onParticipantAdded, v)
	}
	if v, ok := p.(OnParticipantRemoved); ok {
		r.onParticipantRemoved = append(r.onParticipantRemoved, v)
	}
	if v, ok := p.(OnAddSkipped); ok {
		r.onAddSkipped = append(r.onAddSkipped, v)
	}
	if v, ok := p.(OnPaletteReset); ok {
		r.onPaletteReset = append(r.onPaletteReset, v)
	}
	if v, ok := p.(OnSnapshotLoaded); ok {
		r.onSnapshotLoaded = append(r.onSnapshotLoaded, v)
	}
	if v, ok := p.(OnSnapshotCorrupt); ok {
		r.onSnapshotCorrupt = append(r.onSnapshotCorrupt, v)
	}
	if v, ok := p.(OnSnapshotSaved); ok {
		r.onSnapshotSaved = append(r.onSnapshotSaved, v)
	}
	if v, ok := p.(OnSnapshotSaveFailed); ok {
		r.onSnapshotSaveFailed = append(r.onSnapshotSaveFailed, v)
	}
	if v, ok := p.(OnSettlementComputed); ok {
		r.onSettlementComputed = append(r.onSettlementComputed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", Implemented(p),
	)

	return nil
}

// hookTypes lists every hook interface with the name reported by Implemented.
var hookTypes = []struct {
	typ  reflect.Type
	name string
}{
	{reflect.TypeFor[OnInit](), "OnInit"},
	{reflect.TypeFor[OnShutdown](), "OnShutdown"},
	{reflect.TypeFor[OnParticipantAdded](), "OnParticipantAdded"},
	{reflect.TypeFor[OnParticipantRemoved](), "OnParticipantRemoved"},
	{reflect.TypeFor[OnAddSkipped](), "OnAddSkipped"},
	{reflect.TypeFor[OnPaletteReset](), "OnPaletteReset"},
	{reflect.TypeFor[OnSnapshotLoaded](), "OnSnapshotLoaded"},
	{reflect.TypeFor[OnSnapshotCorrupt](), "OnSnapshotCorrupt"},
	{reflect.TypeFor[OnSnapshotSaved](), "OnSnapshotSaved"},
	{reflect.TypeFor[OnSnapshotSaveFailed](), "OnSnapshotSaveFailed"},
	{reflect.TypeFor[OnSettlementComputed](), "OnSettlementComputed"},
}

// Implemented returns the names of the hook interfaces p implements.
func Implemented(p Plugin) []string {
	var out []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			out = append(out, h.name)
		}
	}
	return out
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, registry any) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInit", hooks, func(p OnInit) error {
		return p.OnInit(ctx, registry)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	dispatch(ctx, r, "OnShutdown", hooks, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitParticipantAdded emits a participant added event.
func (r *Registry) EmitParticipantAdded(ctx context.Context, p participant.Participant) {
	r.mu.RLock()
	hooks := r.onParticipantAdded
	r.mu.RUnlock()

	dispatch(ctx, r, "OnParticipantAdded", hooks, func(h OnParticipantAdded) error {
		return h.OnParticipantAdded(ctx, p)
	})
}

// EmitParticipantRemoved emits a participant removed event.
func (r *Registry) EmitParticipantRemoved(ctx context.Context, p participant.Participant, position int) {
	r.mu.RLock()
	hooks := r.onParticipantRemoved
	r.mu.RUnlock()

	dispatch(ctx, r, "OnParticipantRemoved", hooks, func(h OnParticipantRemoved) error {
		return h.OnParticipantRemoved(ctx, p, position)
	})
}

// EmitAddSkipped emits an add skipped event.
func (r *Registry) EmitAddSkipped(ctx context.Context, name, amountText string) {
	r.mu.RLock()
	hooks := r.onAddSkipped
	r.mu.RUnlock()

	dispatch(ctx, r, "OnAddSkipped", hooks, func(h OnAddSkipped) error {
		return h.OnAddSkipped(ctx, name, amountText)
	})
}

// EmitPaletteReset emits a palette reset event.
func (r *Registry) EmitPaletteReset(ctx context.Context, cycle int) {
	r.mu.RLock()
	hooks := r.onPaletteReset
	r.mu.RUnlock()

	dispatch(ctx, r, "OnPaletteReset", hooks, func(h OnPaletteReset) error {
		return h.OnPaletteReset(ctx, cycle)
	})
}

// EmitSnapshotLoaded emits a snapshot loaded event.
func (r *Registry) EmitSnapshotLoaded(ctx context.Context, count int) {
	r.mu.RLock()
	hooks := r.onSnapshotLoaded
	r.mu.RUnlock()

	dispatch(ctx, r, "OnSnapshotLoaded", hooks, func(h OnSnapshotLoaded) error {
		return h.OnSnapshotLoaded(ctx, count)
	})
}

// EmitSnapshotCorrupt emits a snapshot corrupt event.
func (r *Registry) EmitSnapshotCorrupt(ctx context.Context, cause error) {
	r.mu.RLock()
	hooks := r.onSnapshotCorrupt
	r.mu.RUnlock()

	dispatch(ctx, r, "OnSnapshotCorrupt", hooks, func(h OnSnapshotCorrupt) error {
		return h.OnSnapshotCorrupt(ctx, cause)
	})
}

// EmitSnapshotSaved emits a snapshot saved event.
func (r *Registry) EmitSnapshotSaved(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	hooks := r.onSnapshotSaved
	r.mu.RUnlock()

	dispatch(ctx, r, "OnSnapshotSaved", hooks, func(h OnSnapshotSaved) error {
		return h.OnSnapshotSaved(ctx, count, elapsed)
	})
}

// EmitSnapshotSaveFailed emits a snapshot save failed event.
func (r *Registry) EmitSnapshotSaveFailed(ctx context.Context, cause error) {
	r.mu.RLock()
	hooks := r.onSnapshotSaveFailed
	r.mu.RUnlock()

	dispatch(ctx, r, "OnSnapshotSaveFailed", hooks, func(h OnSnapshotSaveFailed) error {
		return h.OnSnapshotSaveFailed(ctx, cause)
	})
}

// EmitSettlementComputed emits a settlement computed event.
func (r *Registry) EmitSettlementComputed(ctx context.Context, res *settlement.Result) {
	r.mu.RLock()
	hooks := r.onSettlementComputed
	r.mu.RUnlock()

	dispatch(ctx, r, "OnSettlementComputed", hooks, func(h OnSettlementComputed) error {
		return h.OnSettlementComputed(ctx, res)
	})
}

// dispatch runs fn for every hook in order. Failures are logged and never
// propagated to the caller.
func dispatch[T Plugin](ctx context.Context, r *Registry, hook string, hooks []T, fn func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block registry mutations.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("plugin panic: %s: %v", pluginName, rec)
			}
		}()
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
