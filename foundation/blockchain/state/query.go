package state

import (
	"github.com/ardanlabs/utxoledger/foundation/blockchain/chain"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/utxo"
)

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Difficulty returns the number of leading zero bits every block hash
// must carry.
func (s *State) Difficulty() uint16 {
	return s.genesis.Difficulty
}

// LastBlockID returns the id of the most recently committed block.
func (s *State) LastBlockID() string {
	return s.chain.LastBlockID()
}

// QueryOutput returns the unspent output referenced by the transaction id
// and output index.
func (s *State) QueryOutput(txID string, index uint32) (database.Output, error) {
	return s.utxos.Lookup(txID, index)
}

// QueryUnspent returns every unspent output in the ledger.
func (s *State) QueryUnspent() []utxo.Unspent {
	return s.utxos.Outputs()
}

// QueryBalances returns the total unspent value owned by each account.
func (s *State) QueryBalances() map[database.AccountID]uint64 {
	balances := make(map[database.AccountID]uint64)
	for _, u := range s.utxos.Outputs() {
		balances[u.Owner] += u.Value
	}

	return balances
}

// QueryMempool returns a copy of the pending transactions in the order
// they were received.
func (s *State) QueryMempool() []database.Tx {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlock returns the chain entry for the specified block id.
func (s *State) QueryBlock(blockID string) (chain.Entry, error) {
	return s.chain.Get(blockID)
}

// QueryChainLength returns the number of entries in the chain index,
// including the genesis entry.
func (s *State) QueryChainLength() int {
	return s.chain.Count()
}

// QueryHasUnspent reports whether the transaction id still has unspent
// outputs in the ledger.
func (s *State) QueryHasUnspent(txID string) bool {
	return s.utxos.Has(txID)
}
