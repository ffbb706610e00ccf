// Package settle splits a shared expense fairly between participants.
//
// Settle is designed as a library, not a service. It provides:
//
//   - A participant registry that keeps insertion order, tags each
//     participant with a palette color and persists the whole list
//     after every change
//   - A deterministic settlement engine that turns contributed amounts
//     into a fair share and a short list of debtor to creditor payments
//   - Pluggable key-value stores (memory, file, Redis, S3, SQLite,
//     PostgreSQL, MongoDB)
//   - Lifecycle hooks for metrics and audit trails
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/settle"
//	    "github.com/xraph/settle/store/memory"
//	)
//
//	r := settle.New(memory.New())
//	if err := r.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Stop()
//
//	r.Add(ctx, "Ana", "90")
//	r.Add(ctx, "Luis", "30")
//	r.Add(ctx, "Sofía", "0")
//
//	res, _ := r.Settle(ctx)
//	for _, tx := range res.Transactions {
//	    fmt.Printf("%s pays %s %s\n",
//	        tx.Debtor.Name, tx.Creditor.Name, settle.FormatCurrency(tx.Amount))
//	}
//
// # Settlement
//
// The fair share is the total divided by the number of participants.
// Participants above it are creditors, those below are debtors, both kept
// in registry order. A two-pointer pass pays the current creditor from the
// current debtor until one of them is settled, then advances. Balances
// within 1e-6 of zero count as settled.
//
// # Persistence
//
// The list is stored as a JSON array under DefaultSnapshotKey. A missing or
// malformed snapshot loads as an empty list; a failed write is logged and
// reported to plugins but never returned to the caller.
//
// # Keys
//
// Each participant has an opaque string key. New participants get a TypeID:
//
//	ptc_01h2xcejqtf2nbrexx3vqjhp41
//
// Keys read from an existing snapshot are kept as they are, whatever their shape.
package settle
