package ledger

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds the operator key used to sign state-changing transactions.
// It is passed explicitly to clients rather than read from ambient state so
// tool handlers stay testable with stub credentials.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSignerFromHex parses a hex-encoded secp256k1 private key. A leading
// "0x" is accepted.
func NewSignerFromHex(hexKey string) (*Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key not set")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the account address derived from the key.
func (s *Signer) Address() common.Address {
	return s.address
}
