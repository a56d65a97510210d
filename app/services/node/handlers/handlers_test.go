package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/utxoledger/app/services/node/handlers"
	"github.com/ardanlabs/utxoledger/business/web/errs"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/chain"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/events"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

type node struct {
	mux   http.Handler
	state *state.State
	ns    *nameservice.NameService
}

func newNode(t *testing.T) node {
	t.Helper()

	st, err := state.New(state.Config{Genesis: genesis.Default()})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	ns, err := nameservice.New("")
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %s", err)
	}

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		NS:       ns,
		Evts:     events.New(),
	})

	return node{mux: mux, state: st, ns: ns}
}

func (n node) do(t *testing.T, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Should be able to encode the body: %s", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	n.mux.ServeHTTP(w, r)

	return w
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	n := newNode(t)

	t.Log("Given the need to read the ledger parameters.")
	{
		t.Logf("\tTest 0:\tWhen requesting the genesis.")
		{
			w := n.do(t, http.MethodGet, "/v1/genesis/list", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 0:\tShould receive a 200 status code, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 0:\tShould receive a 200 status code.", success)

			var gen genesis.Genesis
			if err := json.NewDecoder(w.Body).Decode(&gen); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to decode the response: %v", failed, err)
			}

			if gen.Difficulty != genesis.DefaultDifficulty || gen.Subsidy != genesis.DefaultSubsidy {
				t.Fatalf("\t%s\tTest 0:\tShould get the default parameters, got %+v.", failed, gen)
			}
			t.Logf("\t%s\tTest 0:\tShould get the default parameters.", success)
		}
	}
}

func Test_SubmitBlock(t *testing.T) {
	n := newNode(t)

	bob, err := n.ns.Generate("bob")
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	subsidy := n.state.Genesis().Subsidy
	block, err := database.POW(ctx, database.POWArgs{
		Version:     n.state.Genesis().Version,
		PrevBlockID: chain.GenesisID,
		TimeStamp:   uint64(time.Now().Unix()),
		Difficulty:  n.state.Difficulty(),
		Trans: []database.Tx{
			database.NewCoinbaseTx(1, 1, subsidy, database.Output{Owner: bob, Value: subsidy}),
		},
	})
	if err != nil {
		t.Fatalf("Should be able to mine the block: %s", err)
	}

	t.Log("Given the need to submit blocks over the api.")
	{
		t.Logf("\tTest 0:\tWhen the block has an unknown parent.")
		{
			orphan := block
			orphan.Header.PrevBlockID = "0x0000000000000000000000000000000000000000000000000000000000000001"

			w := n.do(t, http.MethodPost, "/v1/block/submit", orphan)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 0:\tShould receive a 400 status code, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 0:\tShould receive a 400 status code.", success)

			var resp errs.Response
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to decode the response: %v", failed, err)
			}

			if !strings.Contains(resp.Error, state.ErrUnknownParentBlock.Error()) {
				t.Fatalf("\t%s\tTest 0:\tShould report the rejection, got %q.", failed, resp.Error)
			}
			t.Logf("\t%s\tTest 0:\tShould report the rejection.", success)

			if resp.Kind != state.ErrUnknownParentBlock.Error() {
				t.Fatalf("\t%s\tTest 0:\tShould report the rule that was broken, got %q.", failed, resp.Kind)
			}
			t.Logf("\t%s\tTest 0:\tShould report the rule that was broken.", success)
		}

		t.Logf("\tTest 1:\tWhen the block is valid.")
		{
			w := n.do(t, http.MethodPost, "/v1/block/submit", block)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 1:\tShould receive a 200 status code, got %d: %s", failed, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest 1:\tShould receive a 200 status code.", success)

			w = n.do(t, http.MethodGet, "/v1/chain/tip", nil)

			var tip struct {
				ID     string `json:"id"`
				Length int    `json:"length"`
			}
			if err := json.NewDecoder(w.Body).Decode(&tip); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to decode the tip: %v", failed, err)
			}

			if tip.ID != block.Hash() || tip.Length != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould move the tip to the block, got %+v.", failed, tip)
			}
			t.Logf("\t%s\tTest 1:\tShould move the tip to the block.", success)

			w = n.do(t, http.MethodGet, "/v1/balances/list", nil)

			var bals struct {
				Balances []struct {
					Name    string `json:"name"`
					Balance uint64 `json:"balance"`
				} `json:"balances"`
			}
			if err := json.NewDecoder(w.Body).Decode(&bals); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to decode the balances: %v", failed, err)
			}

			if len(bals.Balances) != 1 || bals.Balances[0].Name != "bob" || bals.Balances[0].Balance != subsidy {
				t.Fatalf("\t%s\tTest 1:\tShould credit bob with the subsidy, got %+v.", failed, bals)
			}
			t.Logf("\t%s\tTest 1:\tShould credit bob with the subsidy.", success)
		}

		t.Logf("\tTest 2:\tWhen the block is unknown.")
		{
			w := n.do(t, http.MethodGet, "/v1/chain/block/0x01", nil)
			if w.Code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest 2:\tShould receive a 404 status code, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 2:\tShould receive a 404 status code.", success)
		}
	}
}

func Test_SubmitTransaction(t *testing.T) {
	n := newNode(t)

	t.Log("Given the need to submit transactions over the api.")
	{
		t.Logf("\tTest 0:\tWhen an output has no owner.")
		{
			tx := database.Tx{
				Version: 1,
				Inputs:  []database.Input{{PrevTxID: chain.GenesisID}},
				Outputs: []database.Output{{Value: 10}},
			}

			w := n.do(t, http.MethodPost, "/v1/tx/submit", tx)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 0:\tShould receive a 400 status code, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 0:\tShould receive a 400 status code.", success)

			var resp errs.Response
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to decode the response: %v", failed, err)
			}

			if _, exists := resp.Fields["Tx.outputs[0].owner"]; !exists {
				t.Fatalf("\t%s\tTest 0:\tShould report the owner field, got %v.", failed, resp.Fields)
			}
			t.Logf("\t%s\tTest 0:\tShould report the owner field.", success)
		}

		t.Logf("\tTest 1:\tWhen the transaction is well formed.")
		{
			tx := database.Tx{
				Version: 1,
				Inputs:  []database.Input{{PrevTxID: chain.GenesisID}},
				Outputs: []database.Output{{Owner: "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4", Value: 10}},
			}

			w := n.do(t, http.MethodPost, "/v1/tx/submit", tx)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 1:\tShould receive a 200 status code, got %d: %s", failed, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest 1:\tShould receive a 200 status code.", success)

			w = n.do(t, http.MethodGet, "/v1/tx/uncommitted/list", nil)

			var trans []struct {
				ID string `json:"id"`
			}
			if err := json.NewDecoder(w.Body).Decode(&trans); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to decode the mempool: %v", failed, err)
			}

			if len(trans) != 1 || trans[0].ID != tx.ID() {
				t.Fatalf("\t%s\tTest 1:\tShould list the pending transaction, got %+v.", failed, trans)
			}
			t.Logf("\t%s\tTest 1:\tShould list the pending transaction.", success)
		}
	}
}
