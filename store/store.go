// Package store defines the unified persistence interface the engine runs on.
// Backends live in the memory, sqlite, postgres and mongo subpackages.
package store

import (
	"context"

	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/rate"
)

// Store is the unified storage interface for all boxrate entities.
type Store interface {
	rate.Store
	account.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
