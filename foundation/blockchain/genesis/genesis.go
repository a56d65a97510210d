// Package genesis maintains access to the genesis file that defines the
// parameters of the ledger.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/validate"
)

// Set of default ledger parameters.
const (
	DefaultVersion    = 1
	DefaultDifficulty = 4
	DefaultSubsidy    = 100
)

// Genesis represents the genesis file.
type Genesis struct {
	Date       time.Time `json:"date"`
	Version    uint32    `json:"version" validate:"required"`   // Version used for the genesis header and new blocks.
	Difficulty uint16    `json:"difficulty" validate:"lte=256"` // Number of leading zero bits needed to solve the work problem.
	Subsidy    uint64    `json:"subsidy" validate:"required"`   // Value minted by the coinbase transaction of every block.
}

// Default returns the genesis used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Version:    DefaultVersion,
		Difficulty: DefaultDifficulty,
		Subsidy:    DefaultSubsidy,
	}
}

// Header returns the header of the genesis entry. Every field other than
// the version is zero valued.
func (g Genesis) Header() database.BlockHeader {
	return database.BlockHeader{
		Version: g.Version,
	}
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if err := validate.Check(genesis); err != nil {
		return Genesis{}, fmt.Errorf("validating genesis: %w", err)
	}

	return genesis, nil
}
