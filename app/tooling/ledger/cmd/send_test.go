package cmd

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

func Test_BuildTransfer(t *testing.T) {
	key, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}
	from := database.PublicKeyToAccountID(key.PublicKey)

	other, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}
	to := database.PublicKeyToAccountID(other.PublicKey)

	unspent := []unspentOutput{
		{TxID: "0x01", Index: 0, Owner: to, Value: 500},
		{TxID: "0x02", Index: 1, Owner: from, Value: 30},
		{TxID: "0x03", Index: 0, Owner: from, Value: 40},
		{TxID: "0x04", Index: 2, Owner: from, Value: 90},
	}

	t.Log("Given the need to build a transfer from the unspent outputs.")
	{
		t.Logf("\tTest 0:\tWhen the sender holds enough value.")
		{
			tx, err := buildTransfer(key, to, 60, 5, unspent, 7)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build the transfer: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to build the transfer.", success)

			if len(tx.Inputs) != 2 || tx.Inputs[0].PrevTxID != "0x02" || tx.Inputs[1].PrevTxID != "0x03" {
				t.Fatalf("\t%s\tTest 0:\tShould only spend the sender's outputs in order: %+v", failed, tx.Inputs)
			}
			t.Logf("\t%s\tTest 0:\tShould only spend the sender's outputs in order.", success)

			if len(tx.Outputs) != 2 || tx.Outputs[0] != (database.Output{Owner: to, Value: 60}) || tx.Outputs[1] != (database.Output{Owner: from, Value: 5}) {
				t.Fatalf("\t%s\tTest 0:\tShould pay the receiver and return the change: %+v", failed, tx.Outputs)
			}
			t.Logf("\t%s\tTest 0:\tShould pay the receiver and return the change.", success)

			for i, in := range tx.Inputs {
				if !(signature.ECDSAVerifier{}).Verify(tx.ID(), in.Signature, string(from)) {
					t.Fatalf("\t%s\tTest 0:\tShould sign input %d for the sender.", failed, i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould sign every input for the sender.", success)
		}

		t.Logf("\tTest 1:\tWhen the value is exactly covered.")
		{
			tx, err := buildTransfer(key, to, 30, 0, unspent, 7)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build the transfer: %v", failed, err)
			}

			if len(tx.Inputs) != 1 || len(tx.Outputs) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould not create change.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould not create change.", success)
		}

		t.Logf("\tTest 2:\tWhen the sender does not hold enough value.")
		{
			_, err := buildTransfer(key, to, 200, 0, unspent, 7)
			if !errors.Is(err, ErrInsufficientFunds) {
				t.Fatalf("\t%s\tTest 2:\tShould reject the transfer, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the transfer.", success)
		}
	}
}

func Test_ResponseError(t *testing.T) {
	tt := []struct {
		name string
		body string
		exp  string
	}{
		{name: "an error message", body: `{"error":"outputs exceed inputs"}`, exp: "status 400 Bad Request: outputs exceed inputs"},
		{name: "a body that is not json", body: "bad gateway", exp: "status 400 Bad Request"},
		{name: "an empty body", body: "", exp: "status 400 Bad Request"},
	}

	t.Log("Given the need to report failed node responses.")
	{
		for testID, test := range tt {
			t.Logf("\tTest %d:\tWhen the response carries %s.", testID, test.name)
			{
				w := httptest.NewRecorder()
				w.WriteHeader(http.StatusBadRequest)
				w.WriteString(test.body)

				err := responseError(w.Result())
				if err == nil || err.Error() != test.exp {
					t.Fatalf("\t%s\tTest %d:\tShould report %q, got %v.", failed, testID, test.exp, err)
				}
				t.Logf("\t%s\tTest %d:\tShould report the failure.", success, testID)
			}
		}
	}
}
