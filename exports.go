package settle

import (
	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/settlement"
	"github.com/xraph/settle/types"
)

// Re-export common types for convenience so users don't have to import the
// sub-packages.

// Participant is re-exported from the participant package.
type Participant = participant.Participant

// Color is re-exported from the participant package.
type Color = participant.Color

// Palette is re-exported from the participant package.
type Palette = participant.Palette

// Result is re-exported from the settlement package.
type Result = settlement.Result

// Transaction is re-exported from the settlement package.
type Transaction = settlement.Transaction

// Balance is re-exported from the settlement package.
type Balance = settlement.Balance

// Locale is re-exported from the types package.
type Locale = types.Locale

// Re-export helpers
var (
	DefaultPalette = participant.DefaultPalette
	NewRand        = participant.NewRand
	Compute        = settlement.Compute
	FormatAmount   = types.FormatAmount
	FormatCurrency = types.FormatCurrency
)
