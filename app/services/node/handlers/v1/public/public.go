// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ardanlabs/utxoledger/business/web/errs"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/chain"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/events"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/ardanlabs/utxoledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Tip returns the most recently committed block.
func (h Handlers) Tip(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	entry, err := h.State.QueryBlock(h.State.LastBlockID())
	if err != nil {
		return err
	}

	resp := tip{
		Length: h.State.QueryChainLength(),
		Entry:  entry,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Block returns the chain entry for the specified block id.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	entry, err := h.State.QueryBlock(id)
	if err != nil {
		if errors.Is(err, chain.ErrNotFound) {
			return errs.NewTrusted(fmt.Errorf("block %s: %w", id, err), http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, entry, http.StatusOK)
}

// Unspent returns every unspent output in the ledger.
func (h Handlers) Unspent(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	outputs := h.State.QueryUnspent()

	resp := make([]unspent, len(outputs))
	for i, u := range outputs {
		resp[i] = unspent{
			TxID:  u.TxID,
			Index: u.Index,
			Owner: u.Owner,
			Name:  h.NS.Lookup(u.Owner),
			Value: u.Value,
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balances returns the current balances for all owners.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var bals []balance
	for account, value := range h.State.QueryBalances() {
		bals = append(bals, balance{
			Account: account,
			Name:    h.NS.Lookup(account),
			Balance: value,
		})
	}

	sort.Slice(bals, func(i, j int) bool {
		return bals[i].Name < bals[j].Name
	})

	resp := balances{
		LastBlockID: h.State.LastBlockID(),
		Uncommitted: h.State.QueryMempoolLength(),
		Balances:    bals,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.QueryMempool()

	trans := make([]tx, len(mempool))
	for i, tran := range mempool {
		trans[i] = tx{
			ID: tran.ID(),
			Tx: tran,
		}
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tran database.Tx
	if err := web.Decode(r, &tran); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "inputs", len(tran.Inputs), "outputs", len(tran.Outputs))

	id, err := h.State.SubmitTransaction(tran)
	if err != nil {
		return err
	}

	resp := submitted{
		ID:     id,
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitBlock validates a block built outside of this node and adds it to
// the ledger.
func (h Handlers) SubmitBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("submit block", "traceid", v.TraceID, "prevblk", block.Header.PrevBlockID, "trans", len(block.Trans))

	id, err := h.State.ProcessProposedBlock(block)
	if err != nil {
		return err
	}

	resp := submitted{
		ID:     id,
		Status: "block added to the ledger",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
