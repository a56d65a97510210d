// Package miner assembles candidate blocks from the mempool and performs the
// proof of work to add them to the ledger.
package miner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
)

// Config represents the configuration required to construct a miner.
type Config struct {
	State       *state.State
	Beneficiary database.AccountID
	Verifier    signature.Verifier
	Clock       func() time.Time
	EvHandler   state.EventHandler
}

// Miner builds blocks on the current tip of the ledger.
type Miner struct {
	state       *state.State
	beneficiary database.AccountID
	verifier    signature.Verifier
	now         func() time.Time
	evHandler   state.EventHandler
}

// New constructs a miner paying block rewards to the beneficiary.
func New(cfg Config) (*Miner, error) {
	if cfg.State == nil {
		return nil, errors.New("state is required")
	}

	if !cfg.Beneficiary.IsAccountID() {
		return nil, fmt.Errorf("invalid beneficiary %q", cfg.Beneficiary)
	}

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

	m := Miner{
		state:       cfg.State,
		beneficiary: cfg.Beneficiary,
		verifier:    verifier,
		now:         now,
		evHandler:   ev,
	}

	return &m, nil
}

// Beneficiary returns the account receiving the block rewards.
func (m *Miner) Beneficiary() database.AccountID {
	return m.beneficiary
}

// Candidate assembles an unsolved block on the current tip. Transactions
// that do not resolve against the ledger, or that conflict with a
// transaction picked before them, are left out. The coinbase transaction
// claims the subsidy plus the fees of the picked transactions.
func (m *Miner) Candidate(trans []database.Tx) (database.Block, error) {
	tipID := m.state.LastBlockID()

	parent, err := m.state.QueryBlock(tipID)
	if err != nil {
		return database.Block{}, fmt.Errorf("query tip: %w", err)
	}

	picked, reward := m.pick(trans, m.state.Genesis().Subsidy)

	timeStamp := max(uint64(m.now().Unix()), parent.Header.TimeStamp+1)

	coinbase := database.NewCoinbaseTx(
		m.state.Genesis().Version,
		uint32(timeStamp),
		reward,
		database.Output{Owner: m.beneficiary, Value: reward},
	)

	block := database.Block{
		Header: database.BlockHeader{
			Version:     m.state.Genesis().Version,
			PrevBlockID: tipID,
			TimeStamp:   timeStamp,
			Difficulty:  m.state.Difficulty(),
		},
		Trans: append([]database.Tx{coinbase}, picked...),
	}

	m.evHandler("miner: Candidate: prevBlk[%s]: numTrans[%d]: reward[%d]", tipID, len(block.Trans), reward)

	return block, nil
}

// Mine builds a candidate from the mempool, solves the proof of work and
// adds the block to the ledger. The search can be cancelled through the
// context.
func (m *Miner) Mine(ctx context.Context) (database.Block, error) {
	m.evHandler("miner: Mine: MINING: build candidate")

	candidate, err := m.Candidate(m.state.QueryMempool())
	if err != nil {
		return database.Block{}, err
	}

	m.evHandler("miner: Mine: MINING: perform POW")

	block, err := database.POW(ctx, database.POWArgs{
		Version:     candidate.Header.Version,
		PrevBlockID: candidate.Header.PrevBlockID,
		TimeStamp:   candidate.Header.TimeStamp,
		Difficulty:  candidate.Header.Difficulty,
		Trans:       candidate.Trans,
		EvHandler:   m.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	m.evHandler("miner: Mine: MINING: add block to the ledger")

	if _, err := m.state.AddBlock(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// =============================================================================

// pick selects the transactions that would pass validation when placed in
// receipt order after the coinbase transaction. The returned reward is the
// subsidy plus the fees of the picked transactions.
func (m *Miner) pick(trans []database.Tx, subsidy uint64) ([]database.Tx, uint64) {
	var picked []database.Tx
	reward := subsidy

	seen := make(map[string]struct{})
	consumed := make(map[database.OutPoint]struct{})

	for _, tx := range trans {
		txID := tx.ID()

		fee, claims, err := m.resolve(txID, tx, seen, consumed)
		if err == nil && reward+fee < reward {
			err = state.ErrValueOverflow
		}
		if err != nil {
			m.evHandler("miner: pick: tx[%s]: SKIPPED: %s", txID, err)
			continue
		}

		seen[txID] = struct{}{}
		for _, op := range claims {
			consumed[op] = struct{}{}
		}

		picked = append(picked, tx)
		reward += fee
	}

	return picked, reward
}

// resolve returns the fee of the transaction and the outputs it spends.
func (m *Miner) resolve(txID string, tx database.Tx, seen map[string]struct{}, consumed map[database.OutPoint]struct{}) (uint64, []database.OutPoint, error) {
	if tx.Reward != 0 {
		return 0, nil, state.ErrNonZeroRewardOnNonCoinbase
	}

	if _, exists := seen[txID]; exists || m.state.QueryHasUnspent(txID) {
		return 0, nil, state.ErrDuplicateTransaction
	}

	var inputSum uint64
	claims := make([]database.OutPoint, 0, len(tx.Inputs))

	for _, in := range tx.Inputs {
		op := in.OutPoint()

		out, err := m.state.QueryOutput(op.TxID, op.Index)
		if err != nil {
			return 0, nil, fmt.Errorf("input %s: %w", op, err)
		}

		if _, exists := consumed[op]; exists {
			return 0, nil, state.ErrDoubleSpend
		}
		for _, claimed := range claims {
			if claimed == op {
				return 0, nil, state.ErrDoubleSpend
			}
		}

		if !m.verifier.Verify(txID, in.Signature, string(out.Owner)) {
			return 0, nil, state.ErrInvalidAuthorization
		}

		sum := inputSum + out.Value
		if sum < inputSum {
			return 0, nil, state.ErrValueOverflow
		}
		inputSum = sum

		claims = append(claims, op)
	}

	outputSum, ok := tx.OutputValue()
	if !ok {
		return 0, nil, state.ErrValueOverflow
	}

	if outputSum > inputSum {
		return 0, nil, state.ErrOutputsExceedInputs
	}

	return inputSum - outputSum, claims, nil
}
