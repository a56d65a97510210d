package database

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
)

// ErrNoCoinbase is returned from POW when no transactions are provided.
var ErrNoCoinbase = errors.New("block requires a coinbase transaction")

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Version     uint32 `json:"version"`       // Bitcoin: Block format version.
	PrevBlockID string `json:"prev_block_id"` // Bitcoin: Hash of the previous block in the chain.
	MerkleRoot  string `json:"merkle_root"`   // Bitcoin: Carried but not validated by this ledger.
	TimeStamp   uint64 `json:"timestamp"`     // Bitcoin: Time the block was mined in unix seconds.
	Difficulty  uint16 `json:"difficulty"`    // Number of leading zero bits needed to solve the hash solution.
	Nonce       uint64 `json:"nonce"`         // Bitcoin: Value identified to solve the hash solution.
}

// Block represents a group of transactions batched together. The first
// transaction is the coinbase transaction.
type Block struct {
	Header BlockHeader `json:"header"`
	Trans  []Tx        `json:"trans"`
}

// Hash returns the unique hash for the Block. The header is hashed together
// with the ordered transaction ids so the proof of work covers the
// transactions without requiring a merkle root.
func (b Block) Hash() string {
	return b.hash(b.TxIDs())
}

// TxIDs returns the ids of the transactions in block order.
func (b Block) TxIDs() []string {
	ids := make([]string, len(b.Trans))
	for i, tx := range b.Trans {
		ids[i] = tx.ID()
	}

	return ids
}

// IsSolved reports whether the block hash satisfies its own difficulty.
func (b Block) IsSolved() bool {
	return signature.IsHashSolved(b.Header.Difficulty, b.Hash())
}

func (b Block) hash(ids []string) string {
	content := struct {
		Header BlockHeader `json:"header"`
		TxIDs  []string    `json:"tx_ids"`
	}{
		Header: b.Header,
		TxIDs:  ids,
	}

	return signature.Hash(content)
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Version     uint32
	PrevBlockID string
	TimeStamp   uint64
	Difficulty  uint16
	Trans       []Tx
	EvHandler   func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	if len(args.Trans) == 0 {
		return Block{}, ErrNoCoinbase
	}

	ev := args.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	// Construct the block to be mined.
	nb := Block{
		Header: BlockHeader{
			Version:     args.Version,
			PrevBlockID: args.PrevBlockID,
			TimeStamp:   args.TimeStamp,
			Difficulty:  args.Difficulty,
			Nonce:       0, // Will be identified by the POW algorithm.
		},
		Trans: args.Trans,
	}

	// Peform the proof of work mining operation.
	if err := nb.performPOW(ctx, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started")
	defer ev("database: PerformPOW: MINING: completed")

	// Log the transactions that are a part of this potential block.
	ids := b.TxIDs()
	for _, id := range ids {
		ev("database: PerformPOW: MINING: tx[%s]", id)
	}

	// Choose a random starting point for the nonce. After this, the nonce
	// will be incremented by 1 until a solution is found.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return err
	}
	b.Header.Nonce = nBig.Uint64()

	// Loop until we find a solution for the next block.
	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.hash(ids)
		if !signature.IsHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockID, hash)
		ev("database: PerformPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}
