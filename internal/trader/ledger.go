package trader

import (
	"sync"

	"solana-trade-engine/internal/observability"
)

// PendingSellLedger tracks in-flight sell amounts per instrument so two
// concurrent sells can never double-spend one position. Entries are never
// negative and disappear once every referencing sell completes.
type PendingSellLedger struct {
	mu      sync.Mutex
	pending map[string]uint64
}

func NewPendingSellLedger() *PendingSellLedger {
	return &PendingSellLedger{pending: make(map[string]uint64)}
}

// Add reserves amount against the instrument.
func (l *PendingSellLedger) Add(tokenAddress string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending[tokenAddress] += amount
	observability.SetPendingSellLamports(l.totalLocked())
}

// Release returns a reservation. Clamps at zero and removes empty entries.
func (l *PendingSellLedger) Release(tokenAddress string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.pending[tokenAddress]
	if amount >= cur {
		delete(l.pending, tokenAddress)
	} else {
		l.pending[tokenAddress] = cur - amount
	}
	observability.SetPendingSellLamports(l.totalLocked())
}

// totalLocked sums all reservations. Caller holds the lock.
func (l *PendingSellLedger) totalLocked() uint64 {
	var total uint64
	for _, v := range l.pending {
		total += v
	}
	return total
}

// Pending returns the reserved amount for the instrument, zero when absent.
func (l *PendingSellLedger) Pending(tokenAddress string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending[tokenAddress]
}
