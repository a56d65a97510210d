package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/spf13/cobra"
)

// ErrInsufficientFunds is returned when the sender does not own enough
// unspent value to cover the transfer and the fee.
var ErrInsufficientFunds = errors.New("insufficient funds")

var (
	sendFrom  string
	sendTo    string
	sendValue uint64
	sendFee   uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign a transfer and submit it to a running node",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().StringVarP(&sendFrom, "from", "f", "", "Name of the sending account.")
	sendCmd.Flags().StringVarP(&sendTo, "to", "t", "", "Name or address of the receiving account.")
	sendCmd.Flags().Uint64Var(&sendValue, "value", 0, "Value to send.")
	sendCmd.Flags().Uint64Var(&sendFee, "fee", 0, "Fee left for the miner.")
}

// unspentOutput is the shape of the outputs listed by the node.
type unspentOutput struct {
	TxID  string             `json:"tx_id"`
	Index uint32             `json:"index"`
	Owner database.AccountID `json:"owner"`
	Value uint64             `json:"value"`
}

func sendRun(cmd *cobra.Command, args []string) error {
	ns, err := nameservice.New(accountPath)
	if err != nil {
		return err
	}

	privateKey, err := ns.Key(sendFrom)
	if err != nil {
		return err
	}

	to, err := ns.Account(sendTo)
	if err != nil {
		if to, err = database.ToAccountID(sendTo); err != nil {
			return fmt.Errorf("receiver %q is neither a known name nor an account", sendTo)
		}
	}

	client := http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(nodeURL + "/v1/utxo/list")
	if err != nil {
		return fmt.Errorf("query node: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query node: status %s", resp.Status)
	}

	var unspent []unspentOutput
	if err := json.NewDecoder(resp.Body).Decode(&unspent); err != nil {
		return fmt.Errorf("decode unspent outputs: %w", err)
	}

	tx, err := buildTransfer(privateKey, to, sendValue, sendFee, unspent, uint32(time.Now().Unix()))
	if err != nil {
		return err
	}

	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	submit, err := client.Post(nodeURL+"/v1/tx/submit", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("submit transaction: %w", err)
	}
	defer submit.Body.Close()

	if submit.StatusCode != http.StatusOK {
		return fmt.Errorf("submit transaction: %w", responseError(submit))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "submitted: %s\n", tx.ID())

	return nil
}

// responseError builds an error from a failed response, carrying the error
// message of the node when the body holds one.
func responseError(resp *http.Response) error {
	var er struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
		return fmt.Errorf("status %s", resp.Status)
	}

	return fmt.Errorf("status %s: %s", resp.Status, er.Error)
}

// buildTransfer spends outputs owned by the key, in the order listed, until
// the value and the fee are covered. Any remainder is returned to the
// sender as change.
func buildTransfer(privateKey *ecdsa.PrivateKey, to database.AccountID, value uint64, fee uint64, unspent []unspentOutput, lockTime uint32) (database.Tx, error) {
	from := database.PublicKeyToAccountID(privateKey.PublicKey)

	need := value + fee
	if need < value {
		return database.Tx{}, errors.New("value and fee overflow")
	}

	var inputs []database.Input
	var have uint64
	for _, u := range unspent {
		if have >= need && len(inputs) > 0 {
			break
		}
		if u.Owner != from || have+u.Value < have {
			continue
		}

		inputs = append(inputs, database.Input{PrevTxID: u.TxID, OutputIndex: u.Index})
		have += u.Value
	}

	if len(inputs) == 0 || have < need {
		return database.Tx{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, have, need)
	}

	outputs := []database.Output{{Owner: to, Value: value}}
	if change := have - need; change > 0 {
		outputs = append(outputs, database.Output{Owner: from, Value: change})
	}

	tx := database.Tx{
		Version:  genesis.DefaultVersion,
		LockTime: lockTime,
		Inputs:   inputs,
		Outputs:  outputs,
	}

	keys := make([]*ecdsa.PrivateKey, len(inputs))
	for i := range keys {
		keys[i] = privateKey
	}

	return tx.Sign(keys...)
}
