package participant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned by Decode when the snapshot bytes cannot be
// turned into a valid participant list.
var ErrMalformed = errors.New("participant: malformed snapshot")

// Store is the persistence port used by the registry. Load returns an
// empty list when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) ([]Participant, error)
	Save(ctx context.Context, list []Participant) error
}

// Encode serializes list as a JSON array in list order.
// A nil list encodes as "[]".
func Encode(list []Participant) ([]byte, error) {
	if list == nil {
		list = []Participant{}
	}
	return json.Marshal(list)
}

// Decode parses a JSON array produced by Encode. Entries with an empty key
// are given a fresh key; any other invalid entry rejects the whole snapshot.
// An empty input or "null" decodes to an empty list.
func Decode(data []byte) ([]Participant, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Participant{}, nil
	}

	var list []Participant
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	for i := range list {
		if list[i].Key == "" {
			list[i].Key = NewKey()
		}
		if err := list[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformed, i, err)
		}
	}
	if list == nil {
		list = []Participant{}
	}
	return list, nil
}
