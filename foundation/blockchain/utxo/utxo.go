// Package utxo maintains the set of unspent transaction outputs that
// represents the current ledger state.
package utxo

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// Set of error variables for output lookups.
var (
	ErrUnknownTx    = errors.New("transaction has no unspent outputs")
	ErrUnknownIndex = errors.New("output index is not unspent")
)

// UnspentTx represents the outputs of a single transaction that are
// still spendable. A record with no outputs is never kept in the set.
type UnspentTx struct {
	TxID    string                     `json:"tx_id"`
	Outputs map[uint32]database.Output `json:"outputs"`
}

// Unspent represents a single unspent output for reporting.
type Unspent struct {
	database.OutPoint
	database.Output
}

// Set manages the unspent outputs of the ledger.
type Set struct {
	mu      sync.RWMutex
	records map[string]UnspentTx
}

// New constructs an empty set.
func New() *Set {
	return &Set{
		records: make(map[string]UnspentTx),
	}
}

// Lookup returns the output referenced by the transaction id and index.
func (s *Set) Lookup(txID string, index uint32) (database.Output, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[txID]
	if !exists {
		return database.Output{}, ErrUnknownTx
	}

	out, exists := rec.Outputs[index]
	if !exists {
		return database.Output{}, ErrUnknownIndex
	}

	return out, nil
}

// Has reports whether the transaction id has any unspent outputs.
func (s *Set) Has(txID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.records[txID]
	return exists
}

// Spend removes the referenced output. The record for the transaction is
// removed once it holds no outputs. The caller must have validated the
// output exists.
func (s *Set) Spend(txID string, index uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[txID]
	if !exists {
		return
	}

	delete(rec.Outputs, index)
	if len(rec.Outputs) == 0 {
		delete(s.records, txID)
	}
}

// Create inserts the output into the record for the transaction id,
// creating the record if needed.
func (s *Set) Create(txID string, index uint32, out database.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[txID]
	if !exists {
		rec = UnspentTx{
			TxID:    txID,
			Outputs: make(map[uint32]database.Output),
		}
		s.records[txID] = rec
	}

	rec.Outputs[index] = out
}

// Count returns the number of transactions with unspent outputs.
func (s *Set) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Total returns the sum of the value of all unspent outputs.
func (s *Set) Total() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total uint64
	for _, rec := range s.records {
		for _, out := range rec.Outputs {
			total += out.Value
		}
	}

	return total
}

// Copy makes a deep copy of the records in the set.
func (s *Set) Copy() map[string]UnspentTx {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cpy := make(map[string]UnspentTx, len(s.records))
	for txID, rec := range s.records {
		cpy[txID] = UnspentTx{
			TxID:    txID,
			Outputs: maps.Clone(rec.Outputs),
		}
	}

	return cpy
}

// Outputs returns every unspent output ordered by transaction id and
// output index.
func (s *Set) Outputs() []Unspent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Unspent
	for _, txID := range slices.Sorted(maps.Keys(s.records)) {
		rec := s.records[txID]
		for _, index := range slices.Sorted(maps.Keys(rec.Outputs)) {
			out = append(out, Unspent{
				OutPoint: database.OutPoint{TxID: txID, Index: index},
				Output:   rec.Outputs[index],
			})
		}
	}

	return out
}

// Truncate removes every record from the set.
func (s *Set) Truncate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]UnspentTx)
}
