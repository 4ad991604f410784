// Package store persists the historical market-share table between monthly
// runs. Drivers live in sub-packages and register themselves on import:
//
//	import _ "github.com/JonMunkholm/marketshare/internal/store/postgres"
//	import _ "github.com/JonMunkholm/marketshare/internal/store/sqlite"
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/marketshare/internal/core"
)

// Store is a source and sink for the historical table.
type Store interface {
	// LoadHistory returns every stored row in insertion order.
	LoadHistory(ctx context.Context) (core.Table, error)

	// ReplacePeriod deletes the stored rows of every (year, month) present
	// in rows and inserts rows, in one transaction.
	ReplacePeriod(ctx context.Context, rows []core.Row) error

	Close() error
}

// ErrNotConfigured is returned by Open when no driver is set.
var ErrNotConfigured = errors.New("store not configured")

// Config selects and tunes a driver.
type Config struct {
	Driver string
	URL    string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Opener connects a driver and prepares its schema.
type Opener func(ctx context.Context, cfg Config) (Store, error)

var (
	drivers   = make(map[string]Opener)
	driversMu sync.RWMutex
)

// Register makes a driver available to Open.
// Panics if the name is already registered.
func Register(name string, open Opener) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if _, exists := drivers[name]; exists {
		panic(fmt.Sprintf("store driver already registered: %s", name))
	}
	drivers[name] = open
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open connects the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Driver == "" {
		return nil, ErrNotConfigured
	}

	driversMu.RLock()
	open, ok := drivers[cfg.Driver]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown store driver %q (registered: %v)", cfg.Driver, Drivers())
	}
	return open(ctx, cfg)
}
