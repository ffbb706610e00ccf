package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestToSnapshotModel(t *testing.T) {
	before := time.Now().UTC()
	m := toSnapshotModel("settle:participants", []byte(`[{"key":"x"}]`))

	if m.Key != "settle:participants" {
		t.Errorf("unexpected key %q", m.Key)
	}
	if m.Value != `[{"key":"x"}]` {
		t.Errorf("unexpected value %q", m.Value)
	}
	if m.UpdatedAt.Before(before) || m.UpdatedAt.Location() != time.UTC {
		t.Errorf("unexpected updated_at %v", m.UpdatedAt)
	}
}

func TestIsNoRows(t *testing.T) {
	if !isNoRows(fmt.Errorf("scan: %w", sql.ErrNoRows)) {
		t.Error("expected wrapped sql.ErrNoRows to match")
	}
	if isNoRows(errors.New("connection refused")) {
		t.Error("unexpected match")
	}
}

func TestMigrationsRegistered(t *testing.T) {
	if Migrations == nil {
		t.Fatal("expected a migration group")
	}
}
