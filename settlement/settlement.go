// Package settlement computes who pays whom so that every participant ends
// up having paid the same fair share.
//
// Creditors and debtors are matched greedily in registry order; balances
// are never sorted by magnitude, so the same input always produces the
// same transactions.
package settlement

import (
	"errors"
	"fmt"
	"math"

	"github.com/xraph/settle/participant"
)

// Epsilon is the tolerance below which a balance counts as settled.
const Epsilon = 1e-6

// ErrInvalidInput is returned when a contributed amount is negative or
// not finite.
var ErrInvalidInput = errors.New("settlement: invalid input")

// InputError identifies the participant whose amount was rejected.
type InputError struct {
	Position    int
	Participant participant.Participant
}

func (e *InputError) Error() string {
	return fmt.Sprintf("settlement: invalid amount %v for %q at position %d",
		e.Participant.Amount, e.Participant.Name, e.Position)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// Balance is a participant's amount minus the fair share. Positive means
// the participant is owed money.
type Balance struct {
	Participant participant.Participant `json:"participant"`
	Amount      float64                 `json:"amount"`
}

// Transaction is a single payment from Debtor to Creditor.
type Transaction struct {
	Debtor   participant.Participant `json:"debtor"`
	Creditor participant.Participant `json:"creditor"`
	Amount   float64                 `json:"amount"`
}

// Result is the outcome of Compute.
type Result struct {
	Total        float64       `json:"total"`
	FairShare    float64       `json:"fair_share"`
	Balances     []Balance     `json:"balances"`
	Transactions []Transaction `json:"transactions"`
}

// Compute returns the fair share and the ordered transactions that settle
// every balance. The input slice is not modified.
//
// With fewer than two participants the fair share is 0 and there are no
// transactions.
func Compute(list []participant.Participant) (*Result, error) {
	if err := Validate(list); err != nil {
		return nil, err
	}

	res := &Result{
		Balances:     []Balance{},
		Transactions: []Transaction{},
	}
	for _, p := range list {
		res.Total += p.Amount
	}
	if len(list) < 2 {
		return res, nil
	}

	res.FairShare = res.Total / float64(len(list))

	var creditors, debtors []Balance
	for _, p := range list {
		b := Balance{Participant: p, Amount: p.Amount - res.FairShare}
		res.Balances = append(res.Balances, b)

		switch {
		case b.Amount > Epsilon:
			creditors = append(creditors, b)
		case b.Amount < -Epsilon:
			debtors = append(debtors, b)
		}
	}

	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		c, d := &creditors[i], &debtors[j]
		payment := math.Min(c.Amount, -d.Amount)

		res.Transactions = append(res.Transactions, Transaction{
			Debtor:   d.Participant,
			Creditor: c.Participant,
			Amount:   payment,
		})

		c.Amount -= payment
		d.Amount += payment

		if math.Abs(c.Amount) <= Epsilon {
			i++
		}
		if math.Abs(d.Amount) <= Epsilon {
			j++
		}
	}

	return res, nil
}

// Validate reports an *InputError for the first amount that is negative,
// NaN or infinite.
func Validate(list []participant.Participant) error {
	for i, p := range list {
		if math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) || p.Amount < 0 {
			return &InputError{Position: i, Participant: p}
		}
	}
	return nil
}
