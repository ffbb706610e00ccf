package mongo

import (
	"time"

	"github.com/xraph/grove"
)

type snapshotModel struct {
	grove.BaseModel `grove:"table:settle_snapshots"`

	Key       string    `grove:"snapshot_key,pk" bson:"_id"`
	Value     string    `grove:"value"           bson:"value"`
	UpdatedAt time.Time `grove:"updated_at"      bson:"updated_at"`
}

func toSnapshotModel(key string, value []byte) *snapshotModel {
	return &snapshotModel{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	}
}
