package ledger

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Compiled artifact for the ERC-20 style fungible token deployed by
// create-fungible-asset. Constructor: (name, symbol, decimals, initialSupply).
var (
	//go:embed contracts/FungibleToken.abi
	fungibleABIJSON string

	//go:embed contracts/FungibleToken.bin
	fungibleBinHex string
)

var (
	fungibleABIOnce sync.Once
	fungibleABI     abi.ABI
	fungibleABIErr  error
)

// tokenABI parses the embedded ABI once.
func tokenABI() (abi.ABI, error) {
	fungibleABIOnce.Do(func() {
		fungibleABI, fungibleABIErr = abi.JSON(strings.NewReader(fungibleABIJSON))
	})
	return fungibleABI, fungibleABIErr
}

// tokenBytecode returns the deployable bytecode.
func tokenBytecode() []byte {
	return common.FromHex(strings.TrimSpace(fungibleBinHex))
}
