// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"cmp"
	"slices"
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// entry keeps the transaction with the order it was received.
type entry struct {
	tx  database.Tx
	seq uint64
}

// Mempool represents a cache of transactions waiting to be included in a
// block, organized by transaction id.
type Mempool struct {
	pool map[string]entry
	seq  uint64
	mu   sync.RWMutex
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]entry),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool. The last
// submission for an id wins.
func (mp *Mempool) Upsert(tx database.Tx) (string, int) {
	id := tx.ID()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.seq++
	mp.pool[id] = entry{tx: tx, seq: mp.seq}

	return id, len(mp.pool)
}

// Get returns the transaction for the specified id.
func (mp *Mempool) Get(id string) (database.Tx, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	e, exists := mp.pool[id]
	return e.tx, exists
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(id string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, id)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]entry)
}

// Copy returns the transactions in the pool in the order they were
// received. The pool is not modified.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	entries := make([]entry, 0, len(mp.pool))
	for _, e := range mp.pool {
		entries = append(entries, e)
	}
	mp.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.seq, b.seq)
	})

	trans := make([]database.Tx, len(entries))
	for i, e := range entries {
		trans[i] = e.tx
	}

	return trans
}
