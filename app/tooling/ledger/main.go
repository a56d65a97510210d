// This program runs the ledger demo and performs key management tasks.
package main

import "github.com/ardanlabs/utxoledger/app/tooling/ledger/cmd"

func main() {
	cmd.Execute()
}
