// Package chain maintains the index of committed blocks and the links
// between a block and its known successors.
package chain

import (
	"errors"
	"slices"
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
)

// GenesisID is the well known identity of the genesis entry.
const GenesisID = signature.ZeroHash

// ErrNotFound is returned when a block id is not in the index.
var ErrNotFound = errors.New("block not found")

// Entry represents a committed block. Successors accumulate whenever a new
// block names this entry as its parent. More than one successor means the
// chain has branched.
type Entry struct {
	ID         string               `json:"id"`
	Header     database.BlockHeader `json:"header"`
	Successors []string             `json:"successors"`
}

// Index manages the committed blocks and the current tip.
type Index struct {
	mu          sync.RWMutex
	entries     map[string]*Entry
	lastBlockID string
}

// New constructs an index pre-seeded with the genesis entry.
func New(genesis database.BlockHeader) *Index {
	idx := Index{
		entries: map[string]*Entry{
			GenesisID: {ID: GenesisID, Header: genesis},
		},
		lastBlockID: GenesisID,
	}

	return &idx
}

// Get returns a copy of the entry for the specified block id.
func (idx *Index) Get(id string) (Entry, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, exists := idx.entries[id]
	if !exists {
		return Entry{}, ErrNotFound
	}

	return Entry{
		ID:         e.ID,
		Header:     e.Header,
		Successors: slices.Clone(e.Successors),
	}, nil
}

// Has reports whether the block id is in the index.
func (idx *Index) Has(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	_, exists := idx.entries[id]
	return exists
}

// Insert creates a new entry with no successors.
func (idx *Index) Insert(id string, header database.BlockHeader) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries[id] = &Entry{ID: id, Header: header}
}

// Link records the child as a successor of the parent.
func (idx *Index) Link(parentID string, childID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	parent, exists := idx.entries[parentID]
	if !exists {
		return
	}

	if slices.Contains(parent.Successors, childID) {
		return
	}

	parent.Successors = append(parent.Successors, childID)
}

// LastBlockID returns the id of the most recently committed block.
func (idx *Index) LastBlockID() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastBlockID
}

// SetLastBlockID updates the tip of the chain.
func (idx *Index) SetLastBlockID(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.lastBlockID = id
}

// Count returns the number of entries including genesis.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.entries)
}

// Reset removes every entry except genesis and moves the tip back to it.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	genesis := idx.entries[GenesisID]
	genesis.Successors = nil

	idx.entries = map[string]*Entry{GenesisID: genesis}
	idx.lastBlockID = GenesisID
}
