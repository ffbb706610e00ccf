package settle

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/plugin"
	"github.com/xraph/settle/settlement"
	"github.com/xraph/settle/store"
)

// Registry owns the ordered participant list, tags each participant with a
// palette color and persists the whole list after every mutation.
//
// Registry anomalies (invalid adds, out-of-range removes, corrupt or
// unwritable snapshots) are absorbed and logged; none of them is returned
// to the caller.
type Registry struct {
	mu sync.RWMutex

	kv        store.Store
	snapshots participant.Store
	plugins   *plugin.Registry
	logger    *slog.Logger

	key     string
	migrate bool
	palette participant.Palette
	rnd     participant.Rand
	colors  *participant.ColorAllocator

	list []participant.Participant
}

// New creates a Registry persisting to kv. kv may be nil when a snapshot
// store is supplied with WithSnapshotStore; with neither, nothing is persisted.
func New(kv store.Store, opts ...Option) *Registry {
	r := &Registry{
		kv:      kv,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		key:     DefaultSnapshotKey,
		migrate: true,
		palette: participant.DefaultPalette,
		list:    []participant.Participant{},
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.snapshots == nil {
		if kv != nil {
			r.snapshots = NewSnapshotStore(kv, r.key)
		} else {
			r.snapshots = discardSnapshots{}
		}
	}
	r.colors = participant.NewColorAllocator(r.palette, r.rnd)

	return r
}

// Start migrates the store, initializes plugins and loads the persisted
// snapshot.
func (r *Registry) Start(ctx context.Context) error {
	if r.kv != nil && r.migrate {
		if err := r.kv.Migrate(ctx); err != nil {
			return err
		}
	}

	r.plugins.EmitInit(ctx, r)
	r.Initialize(ctx)

	r.logger.Info("settle started",
		"snapshot_key", r.key,
		"palette_size", len(r.palette),
		"participants", r.Len(),
	)

	return nil
}

// Stop notifies plugins and closes the store.
func (r *Registry) Stop() error {
	r.plugins.EmitShutdown(context.Background())

	if r.kv == nil {
		return nil
	}
	return r.kv.Close()
}

// Initialize replaces the in-memory list with the persisted snapshot.
// A missing, unreadable or malformed snapshot leaves the registry empty.
func (r *Registry) Initialize(ctx context.Context) {
	list, err := r.snapshots.Load(ctx)
	if err != nil {
		if isCorrupt(err) {
			r.logger.Warn("settle: discarding corrupt snapshot", "key", r.key, "error", err)
			r.plugins.EmitSnapshotCorrupt(ctx, err)
		} else {
			r.logger.Warn("settle: snapshot load failed", "key", r.key, "error", err)
		}
		list = nil
	}
	if list == nil {
		list = []participant.Participant{}
	}

	r.mu.Lock()
	r.list = list
	r.mu.Unlock()

	r.logger.Debug("snapshot loaded", "key", r.key, "participants", len(list))
	r.plugins.EmitSnapshotLoaded(ctx, len(list))
}

// Add appends a participant named name who paid amountText. It does
// nothing and returns false when the name is blank or the amount is not a
// finite, non-negative number.
func (r *Registry) Add(ctx context.Context, name, amountText string) (participant.Participant, bool) {
	_, nameErr := participant.ParseName(name)
	amount, amountErr := participant.ParseAmount(amountText)
	if nameErr != nil || amountErr != nil {
		r.logger.Debug("add skipped",
			"name", name,
			"amount", amountText,
			"name_error", nameErr,
			"amount_error", amountErr,
		)
		r.plugins.EmitAddSkipped(ctx, name, amountText)
		return participant.Participant{}, false
	}

	r.mu.Lock()
	cycle := r.colors.Cycle()
	p := participant.Participant{
		Key:    participant.NewKey(),
		Name:   name,
		Amount: amount,
		Color:  r.colors.Allocate(),
	}
	reset := r.colors.Cycle() != cycle
	r.list = append(slices.Clone(r.list), p)
	count, elapsed, err := r.persistLocked(ctx)
	r.mu.Unlock()

	if reset {
		r.plugins.EmitPaletteReset(ctx, cycle+1)
	}
	r.logger.Debug("participant added",
		"participant_id", p.Key,
		"color", p.Color.String(),
	)
	r.plugins.EmitParticipantAdded(ctx, p)
	r.afterPersist(ctx, count, elapsed, err)

	return p, true
}

// Remove deletes the participant at the 0-based position and persists the
// list. An out-of-range position leaves the list unchanged and returns
// false, but the current list is still written.
func (r *Registry) Remove(ctx context.Context, position int) bool {
	r.mu.Lock()
	if position < 0 || position >= len(r.list) {
		size := len(r.list)
		count, elapsed, err := r.persistLocked(ctx)
		r.mu.Unlock()
		r.logger.Debug("remove ignored", "position", position, "participants", size)
		r.afterPersist(ctx, count, elapsed, err)
		return false
	}

	p := r.list[position]
	r.list = slices.Delete(slices.Clone(r.list), position, position+1)
	count, elapsed, err := r.persistLocked(ctx)
	r.mu.Unlock()

	r.logger.Debug("participant removed",
		"participant_id", p.Key,
		"position", position,
	)
	r.plugins.EmitParticipantRemoved(ctx, p, position)
	r.afterPersist(ctx, count, elapsed, err)

	return true
}

// Reset removes every participant and persists the empty list. The color
// allocator keeps its used set.
func (r *Registry) Reset(ctx context.Context) {
	r.mu.Lock()
	removed := r.list
	r.list = []participant.Participant{}
	count, elapsed, err := r.persistLocked(ctx)
	r.mu.Unlock()

	for i, p := range removed {
		r.plugins.EmitParticipantRemoved(ctx, p, i)
	}
	r.afterPersist(ctx, count, elapsed, err)
}

// Snapshot returns a copy of the participants in registry order.
func (r *Registry) Snapshot() []participant.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.list)
}

// Len returns the number of participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// Settle computes the fair share and transactions for the current list.
// It only fails with ErrInvalidInput, which indicates a bug since the
// registry never stores invalid amounts.
func (r *Registry) Settle(ctx context.Context) (*settlement.Result, error) {
	res, err := settlement.Compute(r.Snapshot())
	if err != nil {
		r.logger.Error("settle: settlement rejected participant list", "error", err)
		return nil, err
	}

	r.plugins.EmitSettlementComputed(ctx, res)
	return res, nil
}

// Store returns the underlying key-value store, or nil.
func (r *Registry) Store() store.Store { return r.kv }

// Plugins returns the plugin registry.
func (r *Registry) Plugins() *plugin.Registry { return r.plugins }

// SnapshotKey returns the key the snapshot is persisted under.
func (r *Registry) SnapshotKey() string { return r.key }

// persistLocked saves the whole list. The caller must hold r.mu so writes
// reach the store in mutation order.
func (r *Registry) persistLocked(ctx context.Context) (int, time.Duration, error) {
	start := time.Now()
	err := r.snapshots.Save(ctx, r.list)
	return len(r.list), time.Since(start), err
}

// afterPersist reports the outcome of persistLocked. Save failures are
// logged and never returned.
func (r *Registry) afterPersist(ctx context.Context, count int, elapsed time.Duration, err error) {
	if err != nil {
		r.logger.Warn("settle: snapshot save failed", "key", r.key, "error", err)
		r.plugins.EmitSnapshotSaveFailed(ctx, err)
		return
	}
	r.plugins.EmitSnapshotSaved(ctx, count, elapsed)
}
