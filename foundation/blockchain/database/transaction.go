package database

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Output represents value assigned to an account by a transaction. Once
// created an output is never modified, only spent.
type Output struct {
	Owner AccountID `json:"owner" validate:"required,eth_addr_checksum"` // Account that can spend this output.
	Value uint64    `json:"value"`                                       // Monetary value held by this output.
}

// OutPoint identifies a single output of a transaction.
type OutPoint struct {
	TxID  string `json:"tx_id"`
	Index uint32 `json:"index"`
}

// String implements the fmt.Stringer interface for logging.
func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxID, op.Index)
}

// Input references exactly one prior output and carries the signature
// proving the right to spend it.
type Input struct {
	PrevTxID    string        `json:"prev_tx_id" validate:"required,hexadecimal,len=66"` // Bitcoin: Id of the transaction holding the output.
	OutputIndex uint32        `json:"output_index"`                                      // Bitcoin: Index of the output in that transaction.
	Signature   hexutil.Bytes `json:"signature"`                                         // Bitcoin: Signature of the transaction id by the owner.
	Sequence    uint32        `json:"sequence"`                                          // Bitcoin: Unused by validation.
}

// OutPoint returns the output being referenced by this input.
func (in Input) OutPoint() OutPoint {
	return OutPoint{
		TxID:  in.PrevTxID,
		Index: in.OutputIndex,
	}
}

// =============================================================================

// Tx describes the inputs consumed and the outputs produced by a transfer
// of value. The first transaction of a block is the coinbase transaction,
// which is the only one allowed to declare a reward.
type Tx struct {
	Version  uint32   `json:"version"`                // Bitcoin: Transaction format version.
	LockTime uint32   `json:"locktime"`               // Bitcoin: Distinguishes otherwise identical transactions.
	Reward   uint64   `json:"reward"`                 // Subsidy plus fees claimed by the coinbase transaction.
	Inputs   []Input  `json:"inputs" validate:"dive"` // Outputs being spent.
	Outputs  []Output `json:"outputs" validate:"dive"`
}

// NewCoinbaseTx constructs the first transaction of a block, claiming the
// reward for the specified outputs.
func NewCoinbaseTx(version uint32, lockTime uint32, reward uint64, outputs ...Output) Tx {
	return Tx{
		Version:  version,
		LockTime: lockTime,
		Reward:   reward,
		Inputs:   []Input{},
		Outputs:  outputs,
	}
}

// ID returns the identity of the transaction. The signatures are not part
// of the identity so each signature can commit to it.
func (tx Tx) ID() string {
	return signature.Hash(tx.unsigned())
}

// Sign uses the specified private keys to sign every input of the
// transaction. One key must be provided for each input, in order.
func (tx Tx) Sign(privateKeys ...*ecdsa.PrivateKey) (Tx, error) {
	if len(privateKeys) != len(tx.Inputs) {
		return Tx{}, fmt.Errorf("wrong number of keys, got %d, exp %d", len(privateKeys), len(tx.Inputs))
	}

	signed := tx.unsigned()
	id := signature.Hash(signed)

	for i, pk := range privateKeys {
		sig, err := signature.Sign(id, pk)
		if err != nil {
			return Tx{}, fmt.Errorf("signing input %d: %w", i, err)
		}
		signed.Inputs[i].Signature = sig
	}

	return signed, nil
}

// OutputValue returns the sum of all the output values. The second value
// is false if the sum overflows.
func (tx Tx) OutputValue() (uint64, bool) {
	var total uint64
	for _, out := range tx.Outputs {
		sum := total + out.Value
		if sum < total {
			return 0, false
		}
		total = sum
	}

	return total, true
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:in[%d]:out[%d]", tx.ID(), len(tx.Inputs), len(tx.Outputs))
}

// unsigned returns a copy of the transaction with all signatures removed
// and empty collections normalized, which is the canonical form hashed
// for the identity.
func (tx Tx) unsigned() Tx {
	inputs := make([]Input, len(tx.Inputs))
	for i, in := range tx.Inputs {
		in.Signature = nil
		inputs[i] = in
	}

	outputs := make([]Output, len(tx.Outputs))
	copy(outputs, tx.Outputs)

	tx.Inputs = inputs
	tx.Outputs = outputs

	return tx
}
