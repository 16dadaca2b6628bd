// Package reconcile converts platform lifecycle events into durable
// session, participant, resource, and analytics state. The platform gives
// no ordering or delivery guarantee, so every handler is written to be
// idempotent or tolerant: upserts keyed on platform ids, conditional
// updates where zero affected rows is expected, and counters that floor
// at zero.
package reconcile

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Reconciler applies decoded events to the store.
type Reconciler struct {
	db  *gorm.DB
	now func() time.Time
}

// Opts holds parameters for creating a Reconciler.
type Opts struct {
	DB *gorm.DB
	// Now overrides the clock for tests.
	Now func() time.Time
}

// New creates a Reconciler.
func New(opts Opts) (*Reconciler, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("reconcile: db is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Reconciler{db: opts.DB, now: now}, nil
}
