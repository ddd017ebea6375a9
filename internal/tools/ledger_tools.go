package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/ledger"
)

// Fungible tokens are deployed with 18 decimals unless the creator asks for
// fewer, so mint and transfer amounts are scaled by the deployed default.
// TODO: read decimals() from the token contract instead of assuming.
const defaultTokenDecimals = 18

func ledgerToolSpecs() []Spec {
	return []Spec{
		{
			Name:        "get-address",
			Description: "Get the address of the connected account.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Handler: handleGetAddress,
		},
		{
			Name:        "get-balance",
			Description: "Get the native currency balance of an account. Defaults to the connected account when no address is given.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"address": map[string]any{
						"type":        "string",
						"format":      "address",
						"description": "Account address to query. Optional; defaults to the connected account.",
					},
				},
			},
			Handler: handleGetBalance,
		},
		{
			Name:        "transfer-value",
			Description: "Transfer native currency to a recipient. Amount is in whole units of the network's native currency.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to": map[string]any{
						"type":        "string",
						"format":      "address",
						"description": "Recipient address.",
					},
					"amount": map[string]any{
						"type":             "number",
						"exclusiveMinimum": 0,
						"description":      "Amount in whole native currency units.",
					},
				},
				"required": []string{"to", "amount"},
			},
			Handler: handleTransferValue,
		},
		{
			Name:        "create-fungible-asset",
			Description: "Create a new fungible token with a name, symbol, decimals, and initial supply owned by the connected account.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"minLength":   1,
						"description": "Token name.",
					},
					"symbol": map[string]any{
						"type":        "string",
						"minLength":   1,
						"description": "Token symbol.",
					},
					"decimals": map[string]any{
						"type":        "integer",
						"minimum":     0,
						"maximum":     18,
						"description": "Token decimal places.",
					},
					"initialSupply": map[string]any{
						"type":        "number",
						"minimum":     0,
						"description": "Initial supply in whole tokens, minted to the connected account.",
					},
				},
				"required": []string{"name", "symbol", "decimals", "initialSupply"},
			},
			Handler: handleCreateFungible,
		},
		{
			Name:        "mint-fungible-asset",
			Description: "Mint additional supply of an existing fungible token to a recipient.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tokenAddress": map[string]any{
						"type":        "string",
						"format":      "address",
						"description": "Token contract address.",
					},
					"recipient": map[string]any{
						"type":        "string",
						"format":      "address",
						"description": "Address receiving the minted tokens.",
					},
					"amount": map[string]any{
						"type":             "number",
						"exclusiveMinimum": 0,
						"description":      "Amount in whole tokens.",
					},
				},
				"required": []string{"tokenAddress", "recipient", "amount"},
			},
			Handler: handleMintFungible,
		},
		{
			Name:        "transfer-fungible-asset",
			Description: "Transfer fungible tokens from the connected account to a recipient.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tokenAddress": map[string]any{
						"type":        "string",
						"format":      "address",
						"description": "Token contract address.",
					},
					"to": map[string]any{
						"type":        "string",
						"format":      "address",
						"description": "Recipient address.",
					},
					"amount": map[string]any{
						"type":             "number",
						"exclusiveMinimum": 0,
						"description":      "Amount in whole tokens.",
					},
				},
				"required": []string{"tokenAddress", "to", "amount"},
			},
			Handler: handleTransferFungible,
		},
	}
}

func handleGetAddress(_ context.Context, _ Args, lg Ledger, network core.NetworkDescriptor) (map[string]any, error) {
	return map[string]any{
		"address": lg.Address().Hex(),
		"network": network.NetworkID,
	}, nil
}

func handleGetBalance(ctx context.Context, args Args, lg Ledger, network core.NetworkDescriptor) (map[string]any, error) {
	addr := lg.Address()
	if args.Has("address") {
		addr = args.Address("address")
	}

	raw, err := lg.Balance(ctx, addr)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"address": addr.Hex(),
		"balance": ledger.FormatUnits(raw, network.NativeDecimals),
		"raw":     raw.String(),
		"unit":    network.NativeSymbol,
		"network": network.NetworkID,
	}, nil
}

func handleTransferValue(ctx context.Context, args Args, lg Ledger, network core.NetworkDescriptor) (map[string]any, error) {
	amount, err := ledger.ParseUnits(args.Number("amount").String(), network.NativeDecimals)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	hash, err := lg.TransferValue(ctx, args.Address("to"), amount)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"txHash":  hash,
		"to":      args.String("to"),
		"amount":  args.Number("amount").String(),
		"unit":    network.NativeSymbol,
		"network": network.NetworkID,
	}, nil
}

func handleCreateFungible(ctx context.Context, args Args, lg Ledger, network core.NetworkDescriptor) (map[string]any, error) {
	decimals, err := args.Number("decimals").Int64()
	if err != nil {
		return nil, fmt.Errorf("decimals: %w", err)
	}

	supply, err := parseSupply(args.Number("initialSupply"), int(decimals))
	if err != nil {
		return nil, fmt.Errorf("initialSupply: %w", err)
	}

	tokenAddr, hash, err := lg.CreateFungible(ctx, args.String("name"), args.String("symbol"), uint8(decimals), supply)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"tokenAddress":  tokenAddr,
		"txHash":        hash,
		"name":          args.String("name"),
		"symbol":        args.String("symbol"),
		"decimals":      decimals,
		"initialSupply": args.Number("initialSupply").String(),
		"network":       network.NetworkID,
	}, nil
}

// parseSupply scales a token supply to smallest units. Unlike transfer
// amounts, a supply of zero is legal.
func parseSupply(num json.Number, decimals int) (*big.Int, error) {
	if f, ok := new(big.Float).SetString(num.String()); ok && f.Sign() == 0 {
		return big.NewInt(0), nil
	}
	return ledger.ParseUnits(num.String(), decimals)
}

func handleMintFungible(ctx context.Context, args Args, lg Ledger, network core.NetworkDescriptor) (map[string]any, error) {
	amount, err := ledger.ParseUnits(args.Number("amount").String(), defaultTokenDecimals)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	hash, err := lg.MintFungible(ctx, args.Address("tokenAddress"), args.Address("recipient"), amount)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"txHash":       hash,
		"tokenAddress": args.String("tokenAddress"),
		"recipient":    args.String("recipient"),
		"amount":       args.Number("amount").String(),
		"network":      network.NetworkID,
	}, nil
}

func handleTransferFungible(ctx context.Context, args Args, lg Ledger, network core.NetworkDescriptor) (map[string]any, error) {
	amount, err := ledger.ParseUnits(args.Number("amount").String(), defaultTokenDecimals)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	hash, err := lg.TransferFungible(ctx, args.Address("tokenAddress"), args.Address("to"), amount)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"txHash":       hash,
		"tokenAddress": args.String("tokenAddress"),
		"to":           args.String("to"),
		"amount":       args.Number("amount").String(),
		"network":      network.NetworkID,
	}, nil
}
