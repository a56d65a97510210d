package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/chain"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/utxo"
)

// MaxFutureBlockTime is how far ahead of the current time a block
// timestamp may be.
const MaxFutureBlockTime = 2 * time.Hour

// =============================================================================

// AddBlock validates the block against the consensus rules and if the block
// passes, applies it to the ledger. A rejected block leaves the ledger
// untouched. The block id is returned on success.
func (s *State) AddBlock(block database.Block) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blockID := block.Hash()

	s.evHandler("state: AddBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.Header.PrevBlockID, blockID, len(block.Trans))
	defer s.evHandler("state: AddBlock: completed: newBlk[%s]", blockID)

	changes, err := s.validateBlock(blockID, block)
	if err != nil {
		s.evHandler("state: AddBlock: REJECTED: newBlk[%s]: %s", blockID, err)
		return "", err
	}

	s.commit(blockID, block, changes)

	s.blockEvent(blockID, block)

	return blockID, nil
}

// ProcessProposedBlock takes a block built outside of this node, adds it to
// the ledger and stops any mining operation working on the previous tip.
func (s *State) ProcessProposedBlock(block database.Block) (string, error) {
	blockID, err := s.AddBlock(block)
	if err != nil {
		return "", err
	}

	if s.Worker != nil {
		s.evHandler("state: ProcessProposedBlock: signal mining operation to restart")
		s.Worker.SignalCancelMining()
		s.Worker.SignalStartMining()
	}

	return blockID, nil
}

// =============================================================================

// pendingOutput is an output to be created when the block commits.
type pendingOutput struct {
	database.OutPoint
	output database.Output
}

// changeSet holds the mutations a validated block applies at commit.
type changeSet struct {
	spends  []database.OutPoint
	creates []pendingOutput
	txIDs   []string
}

// validateBlock runs the block through the ordered set of checks. Nothing
// is mutated, the changes to apply are returned instead.
func (s *State) validateBlock(blockID string, block database.Block) (changeSet, error) {
	if s.chain.Has(blockID) {
		return changeSet{}, fmt.Errorf("%w: %s", ErrDuplicateBlock, blockID)
	}

	s.evHandler("state: validateBlock: blk[%s]: check: parent exists", blockID)

	parent, err := s.chain.Get(block.Header.PrevBlockID)
	if err != nil {
		if errors.Is(err, chain.ErrNotFound) {
			return changeSet{}, fmt.Errorf("%w: %s", ErrUnknownParentBlock, block.Header.PrevBlockID)
		}
		return changeSet{}, err
	}

	s.evHandler("state: validateBlock: blk[%s]: check: difficulty matches", blockID)

	difficulty := s.genesis.Difficulty
	if block.Header.Difficulty != difficulty {
		return changeSet{}, fmt.Errorf("%w: got %d, exp %d", ErrDifficultyMismatch, block.Header.Difficulty, difficulty)
	}

	s.evHandler("state: validateBlock: blk[%s]: check: hash has been solved", blockID)

	if !signature.IsHashSolved(difficulty, blockID) {
		return changeSet{}, fmt.Errorf("%w: %s: difficulty %d", ErrInsufficientProofOfWork, blockID, difficulty)
	}

	s.evHandler("state: validateBlock: blk[%s]: check: timestamp after parent", blockID)

	if block.Header.TimeStamp <= parent.Header.TimeStamp {
		return changeSet{}, fmt.Errorf("%w: parent %d, block %d", ErrNonMonotonicTimestamp, parent.Header.TimeStamp, block.Header.TimeStamp)
	}

	s.evHandler("state: validateBlock: blk[%s]: check: timestamp not too far ahead", blockID)

	limit := uint64(s.now().Add(MaxFutureBlockTime).Unix())
	if block.Header.TimeStamp > limit {
		return changeSet{}, fmt.Errorf("%w: limit %d, block %d", ErrTimestampTooFarAhead, limit, block.Header.TimeStamp)
	}

	s.evHandler("state: validateBlock: blk[%s]: check: coinbase transaction exists", blockID)

	if len(block.Trans) == 0 {
		return changeSet{}, ErrMissingCoinbaseTransaction
	}

	s.evHandler("state: validateBlock: blk[%s]: check: transactions", blockID)

	return s.validateTransactions(block.Trans)
}

// validateTransactions checks every transaction of the block in order and
// that the coinbase reward equals the subsidy plus the fees collected.
func (s *State) validateTransactions(trans []database.Tx) (changeSet, error) {
	var changes changeSet

	var announced uint64
	actual := s.genesis.Subsidy

	consumed := make(map[database.OutPoint]struct{})
	seen := make(map[string]struct{}, len(trans))

	for i, tx := range trans {
		txID := tx.ID()

		var inputSum uint64
		switch {
		case i == 0:
			announced = tx.Reward
			inputSum = tx.Reward

		case tx.Reward != 0:
			return changeSet{}, fmt.Errorf("%w: tx[%d]: %s: reward %d", ErrNonZeroRewardOnNonCoinbase, i, txID, tx.Reward)
		}

		if _, exists := seen[txID]; exists || s.utxos.Has(txID) {
			return changeSet{}, fmt.Errorf("%w: tx[%d]: %s", ErrDuplicateTransaction, i, txID)
		}
		seen[txID] = struct{}{}

		for j, in := range tx.Inputs {
			op := in.OutPoint()

			out, err := s.utxos.Lookup(op.TxID, op.Index)
			switch {
			case errors.Is(err, utxo.ErrUnknownTx):
				return changeSet{}, fmt.Errorf("%w: tx[%d]: input[%d]: %s", ErrUnknownInputTransaction, i, j, op)
			case errors.Is(err, utxo.ErrUnknownIndex):
				return changeSet{}, fmt.Errorf("%w: tx[%d]: input[%d]: %s", ErrUnknownInputOutputIndex, i, j, op)
			case err != nil:
				return changeSet{}, err
			}

			if _, exists := consumed[op]; exists {
				return changeSet{}, fmt.Errorf("%w: tx[%d]: input[%d]: %s", ErrDoubleSpend, i, j, op)
			}

			if !s.verifier.Verify(txID, in.Signature, string(out.Owner)) {
				return changeSet{}, fmt.Errorf("%w: tx[%d]: input[%d]: owner %s", ErrInvalidAuthorization, i, j, out.Owner)
			}

			sum := inputSum + out.Value
			if sum < inputSum {
				return changeSet{}, fmt.Errorf("%w: tx[%d]: input sum", ErrValueOverflow, i)
			}
			inputSum = sum

			consumed[op] = struct{}{}
			changes.spends = append(changes.spends, op)
		}

		var outputSum uint64
		for k, out := range tx.Outputs {
			sum := outputSum + out.Value
			if sum < outputSum {
				return changeSet{}, fmt.Errorf("%w: tx[%d]: output sum", ErrValueOverflow, i)
			}
			outputSum = sum

			changes.creates = append(changes.creates, pendingOutput{
				OutPoint: database.OutPoint{TxID: txID, Index: uint32(k)},
				output:   out,
			})
		}

		if outputSum > inputSum {
			return changeSet{}, fmt.Errorf("%w: tx[%d]: %s: inputs %d, outputs %d", ErrOutputsExceedInputs, i, txID, inputSum, outputSum)
		}

		fee := inputSum - outputSum
		if i == 0 && fee != 0 {
			return changeSet{}, fmt.Errorf("%w: fee %d", ErrCoinbaseFeeNotZero, fee)
		}

		sum := actual + fee
		if sum < actual {
			return changeSet{}, fmt.Errorf("%w: tx[%d]: block reward", ErrValueOverflow, i)
		}
		actual = sum

		changes.txIDs = append(changes.txIDs, txID)
	}

	if actual != announced {
		return changeSet{}, fmt.Errorf("%w: announced %d, actual %d", ErrRewardAnnouncementMismatch, announced, actual)
	}

	return changes, nil
}

// commit applies a validated block. Every check has already passed so
// nothing here can fail.
func (s *State) commit(blockID string, block database.Block, changes changeSet) {
	s.evHandler("state: commit: blk[%s]: spend[%d]: create[%d]", blockID, len(changes.spends), len(changes.creates))

	for _, op := range changes.spends {
		s.utxos.Spend(op.TxID, op.Index)
	}

	for _, pend := range changes.creates {
		s.utxos.Create(pend.TxID, pend.Index, pend.output)
	}

	for _, txID := range changes.txIDs {
		s.evHandler("state: commit: blk[%s]: tx[%s] remove from mempool", blockID, txID)
		s.mempool.Delete(txID)
	}

	s.chain.Insert(blockID, block.Header)
	s.chain.Link(block.Header.PrevBlockID, blockID)
	s.chain.SetLastBlockID(blockID)
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(blockID string, block database.Block) {
	blockEvent := struct {
		ID     string               `json:"id"`
		Header database.BlockHeader `json:"header"`
		TxIDs  []string             `json:"tx_ids"`
	}{
		ID:     blockID,
		Header: block.Header,
		TxIDs:  block.TxIDs(),
	}

	data, err := json.Marshal(blockEvent)
	if err != nil {
		s.evHandler("state: blockEvent: ERROR: %s", err)
		return
	}

	s.evHandler("viewer: block: %s", string(data))
}
