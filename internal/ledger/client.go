// Package ledger wraps go-ethereum for the handful of operations the tool
// set needs: balance queries, native-value transfers, and ERC-20 style
// fungible-asset deploy/mint/transfer. One Client per network; clients are
// safe for concurrent use.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

const transferGasLimit = 21000

// Client executes ledger operations against one network on behalf of the
// signer. No retry is performed here: a value transfer retried blindly could
// double-spend, so failures surface immediately to the caller.
type Client struct {
	network core.NetworkDescriptor
	eth     *ethclient.Client
	signer  *Signer
	chainID *big.Int
	log     *zap.SugaredLogger

	mu sync.Mutex // serializes nonce acquisition for state-changing calls
}

// Dial connects to the network's RPC endpoint and verifies the chain id
// matches the descriptor.
func Dial(ctx context.Context, network core.NetworkDescriptor, signer *Signer, log *zap.SugaredLogger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, network.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", network.NetworkID, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("chain id of %s: %w", network.NetworkID, err)
	}
	if network.ChainID != 0 && chainID.Int64() != network.ChainID {
		eth.Close()
		return nil, fmt.Errorf("%s: endpoint reports chain id %s, descriptor says %d",
			network.NetworkID, chainID, network.ChainID)
	}

	return &Client{
		network: network,
		eth:     eth,
		signer:  signer,
		chainID: chainID,
		log:     log.With("network", network.NetworkID),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// Address returns the signer's account address.
func (c *Client) Address() common.Address {
	return c.signer.Address()
}

// Balance returns the native balance of addr in smallest units.
func (c *Client) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", addr.Hex(), err)
	}
	return balance, nil
}

// TransferValue sends amount (smallest units) of the native currency to the
// recipient and returns the transaction hash.
func (c *Client) TransferValue(ctx context.Context, to common.Address, amount *big.Int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nonce, err := c.eth.PendingNonceAt(ctx, c.signer.Address())
	if err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount,
		Gas:      transferGasLimit,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.signer.key)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	hash := signed.Hash().Hex()
	c.log.Infow("value transfer submitted", "to", to.Hex(), "amount", amount.String(), "tx", hash)
	return hash, nil
}

// CreateFungible deploys a new fungible token contract and returns its
// address together with the deployment transaction hash.
func (c *Client) CreateFungible(ctx context.Context, name, symbol string, decimals uint8, initialSupply *big.Int) (string, string, error) {
	parsed, err := tokenABI()
	if err != nil {
		return "", "", fmt.Errorf("token abi: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	auth, err := c.transactOpts(ctx)
	if err != nil {
		return "", "", err
	}
	addr, tx, _, err := bind.DeployContract(auth, parsed, tokenBytecode(), c.eth, name, symbol, decimals, initialSupply)
	if err != nil {
		return "", "", fmt.Errorf("deploy token: %w", err)
	}

	c.log.Infow("fungible token deployed", "name", name, "symbol", symbol, "token", addr.Hex(), "tx", tx.Hash().Hex())
	return addr.Hex(), tx.Hash().Hex(), nil
}

// MintFungible mints amount (smallest units) of the token to the recipient.
func (c *Client) MintFungible(ctx context.Context, token, recipient common.Address, amount *big.Int) (string, error) {
	return c.transactToken(ctx, token, "mint", recipient, amount)
}

// TransferFungible transfers amount (smallest units) of the token to the
// recipient.
func (c *Client) TransferFungible(ctx context.Context, token, to common.Address, amount *big.Int) (string, error) {
	return c.transactToken(ctx, token, "transfer", to, amount)
}

func (c *Client) transactToken(ctx context.Context, token common.Address, method string, args ...any) (string, error) {
	parsed, err := tokenABI()
	if err != nil {
		return "", fmt.Errorf("token abi: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	auth, err := c.transactOpts(ctx)
	if err != nil {
		return "", err
	}
	bound := bind.NewBoundContract(token, parsed, c.eth, c.eth, c.eth)
	tx, err := bound.Transact(auth, method, args...)
	if err != nil {
		return "", fmt.Errorf("%s on %s: %w", method, token.Hex(), err)
	}

	hash := tx.Hash().Hex()
	c.log.Infow("token transaction submitted", "method", method, "token", token.Hex(), "tx", hash)
	return hash, nil
}

func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(c.signer.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	auth.Context = ctx
	return auth, nil
}
