package settle_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/xraph/settle"
	"github.com/xraph/settle/id"
	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/settlement"
	"github.com/xraph/settle/store/memory"
)

func newRegistry(t *testing.T, kv *memory.Store, opts ...settle.Option) *settle.Registry {
	t.Helper()
	opts = append([]settle.Option{settle.WithRand(settle.NewRand(1, 2))}, opts...)
	r := settle.New(kv, opts...)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return r
}

func names(list []participant.Participant) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Name)
	}
	return out
}

// events records plugin hook calls in order.
type events struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (e *events) Name() string { return "events" }

func (e *events) add(call string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
	return nil
}

func (e *events) seen() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *events) OnParticipantAdded(_ context.Context, p participant.Participant) error {
	return e.add("added:" + p.Name)
}

func (e *events) OnParticipantRemoved(_ context.Context, p participant.Participant, _ int) error {
	return e.add("removed:" + p.Name)
}

func (e *events) OnAddSkipped(context.Context, string, string) error { return e.add("skipped") }
func (e *events) OnPaletteReset(context.Context, int) error         { return e.add("palette_reset") }
func (e *events) OnSnapshotLoaded(context.Context, int) error       { return e.add("loaded") }

func (e *events) OnSnapshotCorrupt(_ context.Context, err error) error {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
	return e.add("corrupt")
}

func (e *events) OnSnapshotSaved(context.Context, int, time.Duration) error {
	return e.add("saved")
}

func (e *events) OnSnapshotSaveFailed(context.Context, error) error { return e.add("save_failed") }

func (e *events) OnSettlementComputed(context.Context, *settlement.Result) error {
	return e.add("settled")
}

func TestAddAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, memory.New())

	for _, tc := range []struct{ name, amount string }{
		{"Ana", "90"}, {"Luis", "30"}, {"Sofía", "0"}, {"Marta", "60.5"},
	} {
		if _, ok := r.Add(ctx, tc.name, tc.amount); !ok {
			t.Fatalf("add %s rejected", tc.name)
		}
	}

	list := r.Snapshot()
	if diff := cmp.Diff([]string{"Ana", "Luis", "Sofía", "Marta"}, names(list)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if list[3].Amount != 60.5 {
		t.Errorf("expected 60.5, got %v", list[3].Amount)
	}

	seen := make(map[string]bool)
	for _, p := range list {
		if !strings.HasPrefix(p.Key, string(id.PrefixParticipant)+"_") {
			t.Errorf("unexpected key %q", p.Key)
		}
		if seen[p.Key] {
			t.Errorf("duplicate key %s", p.Key)
		}
		seen[p.Key] = true
		if !p.Color.Valid() {
			t.Errorf("invalid color %q", p.Color)
		}
	}
}

func TestAddInvalidInputIsIgnored(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	ev := &events{}
	r := newRegistry(t, kv, settle.WithPlugin(ev))

	tests := []struct{ name, amount string }{
		{"", "50"},
		{"   ", "50"},
		{"Bob", "abc"},
		{"Bob", ""},
		{"Bob", "-10"},
		{"Bob", "NaN"},
	}
	for _, tc := range tests {
		if p, ok := r.Add(ctx, tc.name, tc.amount); ok {
			t.Errorf("Add(%q, %q) accepted: %+v", tc.name, tc.amount, p)
		}
	}

	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
	if len(kv.Keys()) != 0 {
		t.Errorf("expected no writes, got keys %v", kv.Keys())
	}

	skipped := 0
	for _, c := range ev.seen() {
		if c == "skipped" {
			skipped++
		}
	}
	if skipped != len(tests) {
		t.Errorf("expected %d skipped events, got %d", len(tests), skipped)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, memory.New())
	r.Add(ctx, "Ana", "1")
	r.Add(ctx, "Luis", "2")
	r.Add(ctx, "Sofía", "3")

	if !r.Remove(ctx, 1) {
		t.Fatal("expected remove to succeed")
	}
	if diff := cmp.Diff([]string{"Ana", "Sofía"}, names(r.Snapshot())); diff != "" {
		t.Errorf("after remove (-want +got):\n%s", diff)
	}

	for _, pos := range []int{-1, 2, 100} {
		if r.Remove(ctx, pos) {
			t.Errorf("Remove(%d) should be ignored", pos)
		}
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 participants, got %d", r.Len())
	}
}

func TestRemoveOutOfRangePersists(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	if err := kv.Put(ctx, settle.DefaultSnapshotKey, []byte("{corrupt")); err != nil {
		t.Fatal(err)
	}

	ev := &events{}
	r := newRegistry(t, kv, settle.WithPlugin(ev))
	if r.Remove(ctx, 0) {
		t.Fatal("expected out-of-range remove to report false")
	}

	data, err := kv.Get(ctx, settle.DefaultSnapshotKey)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("expected the current list to be written, got %s", data)
	}
	if diff := cmp.Diff([]string{"corrupt", "loaded", "saved"}, ev.seen()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestLoadOpaqueKeys(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	raw := `[{"key":"1717171717171","name":"Ana","amount":90,"color":"#FFB6C1"},` +
		`{"key":"1717171717999","name":"Luis","amount":30,"color":"#87CEEB"}]`
	if err := kv.Put(ctx, settle.DefaultSnapshotKey, []byte(raw)); err != nil {
		t.Fatal(err)
	}

	r := newRegistry(t, kv)
	want := []participant.Participant{
		{Key: "1717171717171", Name: "Ana", Amount: 90, Color: "#FFB6C1"},
		{Key: "1717171717999", Name: "Luis", Amount: 30, Color: "#87CEEB"},
	}
	if diff := cmp.Diff(want, r.Snapshot()); diff != "" {
		t.Fatalf("loaded (-want +got):\n%s", diff)
	}

	// Keys survive the next write unchanged.
	r.Add(ctx, "Sofía", "0")
	data, err := kv.Get(ctx, settle.DefaultSnapshotKey)
	if err != nil {
		t.Fatal(err)
	}
	list, err := participant.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Key != "1717171717171" || list[1].Key != "1717171717999" {
		t.Errorf("keys rewritten: %+v", list)
	}

	res, err := r.Settle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Transactions) != 2 {
		t.Errorf("expected 2 transactions, got %+v", res.Transactions)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, memory.New())
	r.Add(ctx, "Ana", "1")

	list := r.Snapshot()
	list[0].Name = "changed"
	if r.Snapshot()[0].Name != "Ana" {
		t.Error("snapshot mutation leaked into registry")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	r := newRegistry(t, kv)
	r.Add(ctx, "Ana", "150")
	r.Add(ctx, "Luis", "0")
	r.Add(ctx, "Sofía", "33.75")
	r.Remove(ctx, 1)
	want := r.Snapshot()

	reloaded := newRegistry(t, kv)
	if diff := cmp.Diff(want, reloaded.Snapshot()); diff != "" {
		t.Errorf("reloaded (-want +got):\n%s", diff)
	}
}

func TestLoadEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	if err := kv.Put(ctx, settle.DefaultSnapshotKey, []byte("[]")); err != nil {
		t.Fatal(err)
	}

	r := newRegistry(t, kv)
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestLoadCorruptSnapshot(t *testing.T) {
	ctx := context.Background()

	tests := map[string]string{
		"garbage":   "this is {not json",
		"object":    `{"name":"Ana"}`,
		"bad entry": `[{"key":"","name":"","amount":1,"color":"#FFB6C1"}]`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			kv := memory.New()
			if err := kv.Put(ctx, settle.DefaultSnapshotKey, []byte(raw)); err != nil {
				t.Fatal(err)
			}

			ev := &events{}
			r := newRegistry(t, kv, settle.WithPlugin(ev))
			if r.Len() != 0 {
				t.Errorf("expected empty registry, got %d", r.Len())
			}
			if diff := cmp.Diff([]string{"corrupt", "loaded"}, ev.seen()); diff != "" {
				t.Errorf("events (-want +got):\n%s", diff)
			}
			if len(ev.errs) != 1 || !errors.Is(ev.errs[0], settle.ErrCorruptSnapshot) {
				t.Errorf("expected ErrCorruptSnapshot, got %v", ev.errs)
			}

			// The registry stays usable and overwrites the bad data.
			r.Add(ctx, "Ana", "10")
			data, err := kv.Get(ctx, settle.DefaultSnapshotKey)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := participant.Decode(data); err != nil {
				t.Errorf("expected valid snapshot after add, got %v", err)
			}
		})
	}
}

func TestSnapshotKey(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	r := newRegistry(t, kv, settle.WithSnapshotKey("trip:lisbon"))
	r.Add(ctx, "Ana", "10")

	if r.SnapshotKey() != "trip:lisbon" {
		t.Errorf("unexpected key %q", r.SnapshotKey())
	}
	if diff := cmp.Diff([]string{"trip:lisbon"}, kv.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestColorsAreNotRecycledOnRemove(t *testing.T) {
	ctx := context.Background()
	palette := participant.Palette{"#000001", "#000002", "#000003"}
	ev := &events{}
	r := newRegistry(t, memory.New(), settle.WithPalette(palette), settle.WithPlugin(ev))

	first, _ := r.Add(ctx, "A", "1")
	r.Remove(ctx, 0)

	second, _ := r.Add(ctx, "B", "1")
	third, _ := r.Add(ctx, "C", "1")
	if second.Color == first.Color || third.Color == first.Color {
		t.Errorf("removed color %q reused before exhaustion", first.Color)
	}
	if second.Color == third.Color {
		t.Errorf("color %q repeated within a cycle", second.Color)
	}

	// Palette exhausted: the next add starts a new cycle.
	r.Add(ctx, "D", "1")
	resets := 0
	for _, c := range ev.seen() {
		if c == "palette_reset" {
			resets++
		}
	}
	if resets != 1 {
		t.Errorf("expected 1 palette reset, got %d", resets)
	}
}

func TestInvalidPaletteIgnored(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, memory.New(), settle.WithPalette(participant.Palette{"red"}))
	p, ok := r.Add(ctx, "Ana", "1")
	if !ok {
		t.Fatal("add rejected")
	}
	if !p.Color.Valid() {
		t.Errorf("expected default palette color, got %q", p.Color)
	}
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	ev := &events{}
	r := newRegistry(t, memory.New(), settle.WithPlugin(ev))
	r.Add(ctx, "A", "90")
	r.Add(ctx, "B", "30")
	r.Add(ctx, "C", "0")
	r.Add(ctx, "D", "60")

	res, err := r.Settle(ctx)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.FairShare != 45 || res.Total != 180 {
		t.Errorf("unexpected summary: share %v total %v", res.FairShare, res.Total)
	}

	type flow struct {
		From, To string
		Amount   float64
	}
	var got []flow
	for _, tx := range res.Transactions {
		got = append(got, flow{tx.Debtor.Name, tx.Creditor.Name, tx.Amount})
	}
	want := []flow{{"B", "A", 15}, {"C", "A", 30}, {"C", "D", 15}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transactions (-want +got):\n%s", diff)
	}

	calls := ev.seen()
	if calls[len(calls)-1] != "settled" {
		t.Errorf("expected settled event last, got %v", calls)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	r := newRegistry(t, kv)
	r.Add(ctx, "Ana", "1")
	r.Add(ctx, "Luis", "2")

	r.Reset(ctx)
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}

	data, err := kv.Get(ctx, settle.DefaultSnapshotKey)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("expected persisted [], got %s", data)
	}
}

func TestPluginEventOrder(t *testing.T) {
	ctx := context.Background()
	ev := &events{}
	r := newRegistry(t, memory.New(), settle.WithPlugin(ev))

	r.Add(ctx, "Ana", "10")
	r.Add(ctx, "", "10")
	r.Remove(ctx, 0)
	r.Remove(ctx, 0)

	want := []string{
		"loaded",
		"added:Ana", "saved",
		"skipped",
		"removed:Ana", "saved",
		"saved",
	}
	if diff := cmp.Diff(want, ev.seen()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

// flakyStore fails every write.
type flakyStore struct {
	*memory.Store
}

func (flakyStore) Put(context.Context, string, []byte) error {
	return settle.ErrStoreNotReady
}

func TestSaveFailureIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	ev := &events{}
	r := settle.New(flakyStore{memory.New()}, settle.WithPlugin(ev))
	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if _, ok := r.Add(ctx, "Ana", "10"); !ok {
		t.Fatal("add should succeed even when persistence fails")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 participant, got %d", r.Len())
	}
	if diff := cmp.Diff([]string{"loaded", "added:Ana", "save_failed"}, ev.seen()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

// portStore is a participant.Store kept entirely in memory.
type portStore struct {
	saved [][]participant.Participant
}

func (p *portStore) Load(context.Context) ([]participant.Participant, error) {
	if len(p.saved) == 0 {
		return nil, nil
	}
	return p.saved[len(p.saved)-1], nil
}

func (p *portStore) Save(_ context.Context, list []participant.Participant) error {
	p.saved = append(p.saved, list)
	return nil
}

func TestWithSnapshotStore(t *testing.T) {
	ctx := context.Background()
	port := &portStore{}
	r := settle.New(nil, settle.WithSnapshotStore(port))
	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}

	r.Add(ctx, "Ana", "10")
	r.Add(ctx, "Luis", "20")
	r.Remove(ctx, 0)

	if len(port.saved) != 3 {
		t.Fatalf("expected one save per mutation, got %d", len(port.saved))
	}
	if diff := cmp.Diff([]string{"Ana", "Luis"}, names(port.saved[1])); diff != "" {
		t.Errorf("second save (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Luis"}, names(port.saved[2])); diff != "" {
		t.Errorf("third save (-want +got):\n%s", diff)
	}
	if err := r.Stop(); err != nil {
		t.Errorf("stop: %v", err)
	}
}

func TestNoStore(t *testing.T) {
	ctx := context.Background()
	r := settle.New(nil)
	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Add(ctx, "Ana", "1"); !ok {
		t.Fatal("add rejected")
	}
	if r.Store() != nil {
		t.Error("expected nil store")
	}
	if err := r.Stop(); err != nil {
		t.Errorf("stop: %v", err)
	}
}
