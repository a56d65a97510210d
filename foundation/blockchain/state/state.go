// Package state is the core API for the ledger and implements all the
// business rules for validating and committing blocks.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/chain"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/utxo"
	"github.com/ardanlabs/utxoledger/foundation/validate"
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis   genesis.Genesis
	Verifier  signature.Verifier
	Clock     func() time.Time
	EvHandler EventHandler
}

// State manages the ledger. The unspent outputs, the pending pool and the
// chain index are only mutated while the mutex is held, which makes block
// validation and commitment one serialized critical section.
type State struct {
	mu sync.Mutex

	genesis   genesis.Genesis
	verifier  signature.Verifier
	now       func() time.Time
	evHandler EventHandler

	utxos   *utxo.Set
	mempool *mempool.Mempool
	chain   *chain.Index

	Worker Worker
}

// New constructs a new ledger with the genesis entry pre-seeded.
func New(cfg Config) (*State, error) {
	if err := validate.Check(cfg.Genesis); err != nil {
		return nil, fmt.Errorf("validating genesis: %w", err)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = signature.ECDSAVerifier{}
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	state := State{
		genesis:   cfg.Genesis,
		verifier:  verifier,
		now:       now,
		evHandler: ev,

		utxos:   utxo.New(),
		mempool: mempool.New(),
		chain:   chain.New(cfg.Genesis.Header()),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all mining activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Truncate resets the ledger back to the genesis state.
func (s *State) Truncate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: Truncate: reset to genesis")

	s.mempool.Truncate()
	s.utxos.Truncate()
	s.chain.Reset()
}
