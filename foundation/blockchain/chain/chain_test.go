package chain_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/chain"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestIndex(t *testing.T) {
	t.Log("Given the need to index committed blocks.")
	{
		t.Logf("\tTest 0:\tWhen starting with genesis.")
		{
			idx := chain.New(database.BlockHeader{Version: 1})

			genesis, err := idx.Get(chain.GenesisID)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould have a genesis entry: %v", failed, err)
			}
			if genesis.Header.Version != 1 || genesis.Header.TimeStamp != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould have a zero valued genesis header.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have a genesis entry.", success)

			if idx.LastBlockID() != chain.GenesisID {
				t.Fatalf("\t%s\tTest 0:\tShould start with genesis as the tip.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould start with genesis as the tip.", success)

			if _, err := idx.Get("0x1234"); !errors.Is(err, chain.ErrNotFound) {
				t.Fatalf("\t%s\tTest 0:\tShould get not found for unknown blocks: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get not found for unknown blocks.", success)
		}

		t.Logf("\tTest 1:\tWhen the chain branches.")
		{
			idx := chain.New(database.BlockHeader{Version: 1})

			idx.Insert("0xaa", database.BlockHeader{PrevBlockID: chain.GenesisID, TimeStamp: 1})
			idx.Link(chain.GenesisID, "0xaa")
			idx.SetLastBlockID("0xaa")

			idx.Insert("0xbb", database.BlockHeader{PrevBlockID: chain.GenesisID, TimeStamp: 2})
			idx.Link(chain.GenesisID, "0xbb")
			idx.Link(chain.GenesisID, "0xbb")
			idx.SetLastBlockID("0xbb")

			genesis, _ := idx.Get(chain.GenesisID)
			if len(genesis.Successors) != 2 || genesis.Successors[0] != "0xaa" || genesis.Successors[1] != "0xbb" {
				t.Logf("\t%s\tTest 1:\tgot: %v", failed, genesis.Successors)
				t.Fatalf("\t%s\tTest 1:\tShould record both successors once.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould record both successors once.", success)

			genesis.Successors[0] = "0xff"
			again, _ := idx.Get(chain.GenesisID)
			if again.Successors[0] != "0xaa" {
				t.Fatalf("\t%s\tTest 1:\tShould return a copy of the entry.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould return a copy of the entry.", success)

			if idx.LastBlockID() != "0xbb" || idx.Count() != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould track the most recent block as the tip.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould track the most recent block as the tip.", success)

			idx.Reset()
			if idx.Count() != 1 || idx.LastBlockID() != chain.GenesisID || idx.Has("0xaa") {
				t.Fatalf("\t%s\tTest 1:\tShould reset back to genesis.", failed)
			}
			genesis, _ = idx.Get(chain.GenesisID)
			if len(genesis.Successors) != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould clear the genesis successors.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reset back to genesis.", success)
		}
	}
}
