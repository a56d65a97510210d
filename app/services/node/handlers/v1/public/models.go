package public

import (
	"github.com/ardanlabs/utxoledger/foundation/blockchain/chain"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

type tip struct {
	Length int `json:"length"`
	chain.Entry
}

type unspent struct {
	TxID  string             `json:"tx_id"`
	Index uint32             `json:"index"`
	Owner database.AccountID `json:"owner"`
	Name  string             `json:"name"`
	Value uint64             `json:"value"`
}

type balance struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Balance uint64             `json:"balance"`
}

type balances struct {
	LastBlockID string    `json:"last_block_id"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

type tx struct {
	ID string `json:"id"`
	database.Tx
}

type submitted struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
