package settle

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/store"
)

// DefaultSnapshotKey is the store key the participant list is saved under.
const DefaultSnapshotKey = "settle:participants"

// SnapshotStore adapts a key-value store.Store to the participant.Store
// port. The whole list is encoded as one JSON array under a single key.
type SnapshotStore struct {
	kv  store.Store
	key string
}

var _ participant.Store = (*SnapshotStore)(nil)

// NewSnapshotStore returns a SnapshotStore writing to key in kv.
// An empty key selects DefaultSnapshotKey.
func NewSnapshotStore(kv store.Store, key string) *SnapshotStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &SnapshotStore{kv: kv, key: key}
}

// Key returns the store key in use.
func (s *SnapshotStore) Key() string { return s.key }

// Load reads and decodes the snapshot. A missing key yields an empty list;
// undecodable data yields an error wrapping ErrCorruptSnapshot.
func (s *SnapshotStore) Load(ctx context.Context) ([]participant.Participant, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if IsNotFound(err) {
			return []participant.Participant{}, nil
		}
		return nil, fmt.Errorf("settle: load snapshot %q: %w", s.key, err)
	}

	list, err := participant.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	return list, nil
}

// Save encodes list and overwrites the stored snapshot.
func (s *SnapshotStore) Save(ctx context.Context, list []participant.Participant) error {
	data, err := participant.Encode(list)
	if err != nil {
		return fmt.Errorf("settle: encode snapshot: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("settle: save snapshot %q: %w", s.key, err)
	}
	return nil
}

// discardSnapshots is used when a registry is built without any store.
type discardSnapshots struct{}

func (discardSnapshots) Load(context.Context) ([]participant.Participant, error) {
	return []participant.Participant{}, nil
}

func (discardSnapshots) Save(context.Context, []participant.Participant) error { return nil }

// isCorrupt reports whether err means the stored bytes were unusable, as
// opposed to the store itself failing.
func isCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptSnapshot) || errors.Is(err, participant.ErrMalformed)
}
