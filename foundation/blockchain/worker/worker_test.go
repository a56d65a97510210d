package worker_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/miner"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const minerECDSA = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"

// waitFor polls the condition until it holds or the timeout expires.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}

	return cond()
}

func Test_Worker(t *testing.T) {
	key, err := crypto.HexToECDSA(minerECDSA)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}
	minerID := database.PublicKeyToAccountID(key.PublicKey)

	st, err := state.New(state.Config{Genesis: genesis.Default()})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	m, err := miner.New(miner.Config{State: st, Beneficiary: minerID})
	if err != nil {
		t.Fatalf("Should be able to construct the miner: %s", err)
	}

	t.Log("Given the need to mine in the background.")
	{
		t.Logf("\tTest 0:\tWhen the ticker drives mining.")
		{
			w := worker.Run(st, m, 20*time.Millisecond, nil)

			if !waitFor(5*time.Second, func() bool { return st.QueryChainLength() >= 2 }) {
				w.Shutdown()
				t.Fatalf("\t%s\tTest 0:\tShould mine a block on a tick.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould mine a block on a tick.", success)

			w.Shutdown()
			t.Logf("\t%s\tTest 0:\tShould be able to shutdown.", success)
		}

		t.Logf("\tTest 1:\tWhen a transaction is submitted.")
		{
			w := worker.Run(st, m, 0, nil)
			defer w.Shutdown()

			funding := st.QueryUnspent()[0]
			tx := database.Tx{
				Version: genesis.DefaultVersion,
				Inputs:  []database.Input{{PrevTxID: funding.TxID, OutputIndex: funding.Index}},
				Outputs: []database.Output{{Owner: minerID, Value: funding.Value}},
			}
			signed, err := tx.Sign(key)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign the transaction: %v", failed, err)
			}

			if _, err := st.SubmitTransaction(signed); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit the transaction: %v", failed, err)
			}

			if !waitFor(5*time.Second, func() bool { return st.QueryMempoolLength() == 0 }) {
				t.Fatalf("\t%s\tTest 1:\tShould mine the submitted transaction.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould mine the submitted transaction.", success)

			if _, err := st.QueryOutput(signed.ID(), 0); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould hold the new output: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould hold the new output.", success)
		}
	}
}
