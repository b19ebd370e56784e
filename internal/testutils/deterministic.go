// Package testutils holds the fakes and deterministic sources used by
// PawCheck tests and by the CLI's --test-mode.
package testutils

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Epoch is the first deterministic timestamp minus one second.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	idSeq   atomic.Uint64
	tickSeq atomic.Int64
)

// IDGenerator returns a message ID source. In test mode IDs count up in
// UUID v4 layout (00000001-0000-4000-8000-000000000001, ...); otherwise they
// are random.
func IDGenerator(testMode bool) func() string {
	if !testMode {
		return uuid.NewString
	}
	return func() string {
		n := idSeq.Add(1)
		return fmt.Sprintf("%08x-0000-4000-8000-%012x", n, n)
	}
}

// Clock returns a time source. In test mode each call is one second after
// the previous one, starting at Epoch plus one second.
func Clock(testMode bool) func() time.Time {
	if !testMode {
		return time.Now
	}
	return func() time.Time {
		return Epoch.Add(time.Duration(tickSeq.Add(1)) * time.Second)
	}
}

// ResetTestCounters restarts both deterministic sequences. Test code only.
func ResetTestCounters() {
	idSeq.Store(0)
	tickSeq.Store(0)
}
