package state

import (
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/validate"
)

// SubmitTransaction accepts a transaction for inclusion in a future block.
// The inputs are not resolved against the ledger until a block carrying the
// transaction is validated. Submitting an identical transaction again
// replaces the pending one.
func (s *State) SubmitTransaction(tx database.Tx) (string, error) {
	if err := validate.Check(tx); err != nil {
		return "", err
	}

	s.mu.Lock()
	id, count := s.mempool.Upsert(tx)
	s.mu.Unlock()

	s.evHandler("state: SubmitTransaction: tx[%s]: mempool[%d]", id, count)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return id, nil
}
