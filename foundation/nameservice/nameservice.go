// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the ledger accounts.
package nameservice

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrUnknownName is returned when no key is registered for a name.
var ErrUnknownName = errors.New("unknown name")

// keyExt is the extension of the private key files.
const keyExt = ".ecdsa"

// NameService maintains the keys and names of the known accounts.
type NameService struct {
	mu       sync.RWMutex
	accounts map[database.AccountID]string
	keys     map[string]*ecdsa.PrivateKey
}

// New constructs a name service with the accounts found in the folder. An
// empty root produces an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[database.AccountID]string),
		keys:     make(map[string]*ecdsa.PrivateKey),
	}

	if root == "" {
		return &ns, nil
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != keyExt {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		ns.add(strings.TrimSuffix(path.Base(fileName), keyExt), privateKey)

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Generate creates a new key for the name, replacing any existing key.
func (ns *NameService) Generate(name string) (database.AccountID, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if old, exists := ns.keys[name]; exists {
		delete(ns.accounts, database.PublicKeyToAccountID(old.PublicKey))
	}

	return ns.add(name, privateKey), nil
}

// Save writes the key for the name to the folder.
func (ns *NameService) Save(root string, name string) (string, error) {
	privateKey, err := ns.Key(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("creating folder: %w", err)
	}

	fileName := filepath.Join(root, name+keyExt)
	if err := crypto.SaveECDSA(fileName, privateKey); err != nil {
		return "", fmt.Errorf("saving key: %w", err)
	}

	return fileName, nil
}

// Key returns the private key registered for the name.
func (ns *NameService) Key(name string) (*ecdsa.PrivateKey, error) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	privateKey, exists := ns.keys[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownName, name)
	}

	return privateKey, nil
}

// Account returns the account registered for the name.
func (ns *NameService) Account(name string) (database.AccountID, error) {
	privateKey, err := ns.Key(name)
	if err != nil {
		return "", err
	}

	return database.PublicKeyToAccountID(privateKey.PublicKey), nil
}

// Lookup returns the name for the specified account.
func (ns *NameService) Lookup(account database.AccountID) string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	name, exists := ns.accounts[account]
	if !exists {
		return string(account)
	}
	return name
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[database.AccountID]string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	return maps.Clone(ns.accounts)
}

// add registers the key under the name. The caller must hold the lock
// unless the name service is still being constructed.
func (ns *NameService) add(name string, privateKey *ecdsa.PrivateKey) database.AccountID {
	account := database.PublicKeyToAccountID(privateKey.PublicKey)
	ns.accounts[account] = name
	ns.keys[name] = privateKey

	return account
}
