package cmd

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/logger"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Replay a series of valid and invalid blocks against a fresh ledger",
	RunE:  demoRun,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func demoRun(cmd *cobra.Command, args []string) error {
	ev := func(string, ...any) {}

	if verbose {
		log, err := logger.New("LEDGER", "stderr")
		if err != nil {
			return err
		}
		defer log.Sync()

		ev = func(v string, args ...any) {
			log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
		}
	}

	return runDemo(cmd.Context(), cmd.OutOrStdout(), ev)
}

// =============================================================================

// demo drives a ledger with hand built blocks and prints the unspent
// outputs after every accepted block.
type demo struct {
	w         io.Writer
	state     *state.State
	ns        *nameservice.NameService
	timeStamp uint64
	lockTime  uint32
}

func runDemo(ctx context.Context, w io.Writer, ev state.EventHandler) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := state.New(state.Config{
		Genesis:   genesis.Default(),
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	ns, err := nameservice.New("")
	if err != nil {
		return err
	}

	d := demo{
		w:         w,
		state:     st,
		ns:        ns,
		timeStamp: uint64(time.Now().Unix()) - 60,
	}

	d.printUnspent()

	for _, name := range []string{"Bob", "John", "Alice 1", "Alice 2", "Alice 3", "Eve"} {
		if _, err := ns.Generate(name); err != nil {
			return err
		}
	}

	subsidy := st.Genesis().Subsidy

	// Bob mines the first block.
	outs, err := d.outputs(share{"Bob", subsidy})
	if err != nil {
		return err
	}
	bobCoinbase := d.coinbase(subsidy, outs...)
	if err := d.mineAndAdd(ctx, bobCoinbase); err != nil {
		return err
	}

	// Bob pays John 60 units, keeps 35 and leaves 5 as a fee.
	if outs, err = d.outputs(share{"John", 60}, share{"Bob", 35}); err != nil {
		return err
	}
	bobTx, err := d.transfer(
		[]database.OutPoint{{TxID: bobCoinbase.ID(), Index: 0}},
		[]string{"Bob"},
		outs...,
	)
	if err != nil {
		return err
	}
	if _, err := st.SubmitTransaction(bobTx); err != nil {
		return err
	}

	// Alice mines the next block with the pending transactions, splitting
	// the reward across two keys.
	if outs, err = d.outputs(share{"Alice 1", 40}, share{"Alice 2", 65}); err != nil {
		return err
	}
	aliceCoinbase := d.coinbase(subsidy+5, outs...)
	if err := d.mineAndAdd(ctx, append([]database.Tx{aliceCoinbase}, st.QueryMempool()...)...); err != nil {
		return err
	}

	// Eve makes a mistake with every block she tries.
	eveBlocks := []database.Block{
		d.header(st.LastBlockID(), d.nextTimeStamp(), false),
		d.header(signature.Hash(123456), d.nextTimeStamp(), true),
		d.header(st.LastBlockID(), uint64(time.Now().Add(state.MaxFutureBlockTime+time.Hour).Unix()), true),
		d.header(st.LastBlockID(), d.nextTimeStamp(), true),
	}
	for _, block := range eveBlocks {
		d.add(block)
	}

	// Alice spends John's output along with her own, gives some to Eve and
	// John, and claims the rest as the fee of her block.
	if outs, err = d.outputs(share{"Eve", 10}, share{"John", 1}); err != nil {
		return err
	}
	revengeTx, err := d.transfer(
		[]database.OutPoint{
			{TxID: bobTx.ID(), Index: 0},
			{TxID: aliceCoinbase.ID(), Index: 0},
			{TxID: aliceCoinbase.ID(), Index: 1},
		},
		[]string{"John", "Alice 1", "Alice 2"},
		outs...,
	)
	if err != nil {
		return err
	}

	reward := subsidy + 105 + 60 - 10 - 1
	if outs, err = d.outputs(share{"Alice 3", reward}); err != nil {
		return err
	}
	revengeCoinbase := d.coinbase(reward, outs...)

	return d.mineAndAdd(ctx, revengeCoinbase, revengeTx)
}

// =============================================================================

func (d *demo) nextTimeStamp() uint64 {
	d.timeStamp++
	return d.timeStamp
}

func (d *demo) nextLockTime() uint32 {
	d.lockTime++
	return d.lockTime
}

// share is the value to pay to a named account.
type share struct {
	name  string
	value uint64
}

// outputs resolves the names of the shares to their accounts.
func (d *demo) outputs(shares ...share) ([]database.Output, error) {
	outs := make([]database.Output, len(shares))
	for i, s := range shares {
		account, err := d.ns.Account(s.name)
		if err != nil {
			return nil, err
		}
		outs[i] = database.Output{Owner: account, Value: s.value}
	}

	return outs, nil
}

func (d *demo) coinbase(reward uint64, outputs ...database.Output) database.Tx {
	return database.NewCoinbaseTx(d.state.Genesis().Version, d.nextLockTime(), reward, outputs...)
}

// transfer builds a transaction spending the outputs, signed with the keys
// of the named owners.
func (d *demo) transfer(ins []database.OutPoint, owners []string, outs ...database.Output) (database.Tx, error) {
	tx := database.Tx{
		Version:  d.state.Genesis().Version,
		LockTime: d.nextLockTime(),
		Inputs:   make([]database.Input, len(ins)),
		Outputs:  outs,
	}

	keys := make([]*ecdsa.PrivateKey, len(owners))
	for i, name := range owners {
		key, err := d.ns.Key(name)
		if err != nil {
			return database.Tx{}, err
		}
		keys[i] = key
	}

	for i, op := range ins {
		tx.Inputs[i] = database.Input{PrevTxID: op.TxID, OutputIndex: op.Index}
	}

	return tx.Sign(keys...)
}

// header builds a block without transactions. The nonce is searched so the
// block either solves the difficulty or does not.
func (d *demo) header(prevBlockID string, timeStamp uint64, solved bool) database.Block {
	block := database.Block{
		Header: database.BlockHeader{
			Version:     d.state.Genesis().Version,
			PrevBlockID: prevBlockID,
			TimeStamp:   timeStamp,
			Difficulty:  d.state.Difficulty(),
		},
	}

	for block.IsSolved() != solved {
		block.Header.Nonce++
	}

	return block
}

func (d *demo) mineAndAdd(ctx context.Context, trans ...database.Tx) error {
	block, err := database.POW(ctx, database.POWArgs{
		Version:     d.state.Genesis().Version,
		PrevBlockID: d.state.LastBlockID(),
		TimeStamp:   d.nextTimeStamp(),
		Difficulty:  d.state.Difficulty(),
		Trans:       trans,
	})
	if err != nil {
		return err
	}

	d.add(block)

	return nil
}

func (d *demo) add(block database.Block) {
	fmt.Fprint(d.w, "\n=> ADDING BLOCK: ")

	if _, err := d.state.AddBlock(block); err != nil {
		fmt.Fprintln(d.w, err)
		return
	}

	fmt.Fprintln(d.w, "OK")
	d.printUnspent()
}

func (d *demo) printUnspent() {
	unspent := d.state.QueryUnspent()
	if len(unspent) == 0 {
		fmt.Fprintln(d.w, "<Nobody has any money>")
		return
	}

	for _, u := range unspent {
		fmt.Fprintf(d.w, "%s: %d units\n", d.ns.Lookup(u.Owner), u.Value)
	}
}
