package settle

import (
	"errors"

	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/settlement"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound = errors.New("settle: not found")

	// ErrInvalidInput is returned by Settle when a participant amount is
	// negative or not finite. It matches settlement.ErrInvalidInput.
	ErrInvalidInput = settlement.ErrInvalidInput

	// Snapshot errors
	ErrCorruptSnapshot = errors.New("settle: corrupt snapshot")

	// Configuration errors
	ErrInvalidPalette     = errors.New("settle: invalid palette")
	ErrInvalidStoreDriver = errors.New("settle: invalid store driver")

	// Store errors
	ErrStoreNotReady   = errors.New("settle: store not ready")
	ErrStoreClosed     = errors.New("settle: store is closed")
	ErrMigrationFailed = errors.New("settle: migration failed")
)

// Participant validation errors, re-exported for convenience.
var (
	ErrEmptyName     = participant.ErrEmptyName
	ErrInvalidAmount = participant.ErrInvalidAmount
)

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
