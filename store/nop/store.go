// Package nop provides a store.Store that silently drops every write.
// Reads always report settle.ErrNotFound, so a registry on top of it
// always starts empty.
package nop

import (
	"context"
	"fmt"

	"github.com/xraph/settle"
	"github.com/xraph/settle/store"
)

var _ store.Store = Store{}

// Store discards everything.
type Store struct{}

// New returns a nop store.
func New() Store { return Store{} }

func (Store) Get(_ context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("settle/nop: get %q: %w", key, settle.ErrNotFound)
}

func (Store) Put(context.Context, string, []byte) error { return nil }
func (Store) Delete(context.Context, string) error      { return nil }
func (Store) Migrate(context.Context) error             { return nil }
func (Store) Ping(context.Context) error                { return nil }
func (Store) Close() error                              { return nil }
