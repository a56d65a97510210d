package signature_test

import (
	"strings"
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey    = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from        = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
	otherHexKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if err := signature.VerifySignature(sig); err != nil {
		t.Fatalf("Should be able to verify the signature: %s", err)
	}

	addr, err := signature.FromAddress(value, sig)
	if err != nil {
		t.Fatalf("Should be able to generate from address: %s", err)
	}

	if from != addr {
		t.Logf("got: %s", addr)
		t.Logf("exp: %s", from)
		t.Fatalf("Should get back the right address.")
	}
}

func Test_Verifier(t *testing.T) {
	value := "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	other, err := crypto.HexToECDSA(otherHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	otherSig, err := signature.Sign(value, other)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	var v signature.ECDSAVerifier

	if !v.Verify(value, sig, from) {
		t.Fatalf("Should accept a signature from the owner.")
	}

	if v.Verify(value, otherSig, from) {
		t.Fatalf("Should reject a signature from a different key.")
	}

	if v.Verify("different data", sig, from) {
		t.Fatalf("Should reject a signature over different data.")
	}

	if v.Verify(value, sig[:10], from) {
		t.Fatalf("Should reject a truncated signature.")
	}

	if v.Verify(value, nil, from) {
		t.Fatalf("Should reject a missing signature.")
	}

	if !v.Verify(value, sig, strings.ToLower(from)) {
		t.Fatalf("Should accept the owner written in lower case.")
	}

	if !v.Verify(value, sig, "0x"+strings.ToUpper(from[2:])) {
		t.Fatalf("Should accept the owner written in upper case.")
	}

	if v.Verify(value, sig, "bill") {
		t.Fatalf("Should reject an owner that is not an address.")
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}
	hash := "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	h := signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	h = signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the same hash twice.")
	}
}

func Test_LeadingZeroBits(t *testing.T) {
	tt := []struct {
		hash  string
		zeros int
	}{
		{hash: signature.ZeroHash, zeros: 256},
		{hash: "0x8000000000000000000000000000000000000000000000000000000000000000", zeros: 0},
		{hash: "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a", zeros: 4},
		{hash: "0x00ff000000000000000000000000000000000000000000000000000000000000", zeros: 8},
		{hash: "0x0001000000000000000000000000000000000000000000000000000000000000", zeros: 15},
		{hash: "not a hash", zeros: 0},
	}

	for _, tst := range tt {
		if got := signature.LeadingZeroBits(tst.hash); got != tst.zeros {
			t.Logf("got: %d", got)
			t.Logf("exp: %d", tst.zeros)
			t.Fatalf("Should get the right number of leading zero bits for %s.", tst.hash)
		}
	}

	if !signature.IsHashSolved(4, "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a") {
		t.Fatalf("Should solve a difficulty of 4 with 4 leading zero bits.")
	}

	if signature.IsHashSolved(5, "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a") {
		t.Fatalf("Should not solve a difficulty of 5 with 4 leading zero bits.")
	}

	if signature.IsHashSolved(0, "0x00") {
		t.Fatalf("Should not solve with a short hash.")
	}
}
