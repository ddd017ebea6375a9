// Package network maps logical network identifiers to concrete connection
// descriptors. The table is built once at startup and never mutated, so
// Resolve is safe for concurrent use without locking.
package network

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

// ErrUnknownNetwork is returned when a network id is not in the table.
var ErrUnknownNetwork = errors.New("unknown network")

// Built-in descriptors. Hedera's JSON-RPC relay reports HBAR in 8-decimal
// tinybars, unlike the 18 decimals of wei.
var builtin = map[string]core.NetworkDescriptor{
	"ethereum-mainnet": {
		NetworkID:      "ethereum-mainnet",
		ChainID:        1,
		RPCEndpoint:    "https://eth.llamarpc.com",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
	},
	"ethereum-sepolia": {
		NetworkID:      "ethereum-sepolia",
		ChainID:        11155111,
		RPCEndpoint:    "https://rpc.sepolia.org",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
	},
	"hedera-testnet": {
		NetworkID:      "hedera-testnet",
		ChainID:        296,
		RPCEndpoint:    "https://testnet.hashio.io/api",
		NativeSymbol:   "HBAR",
		NativeDecimals: 8,
	},
}

// definitionsFile models the structure of networks.yaml.
type definitionsFile struct {
	Networks map[string]core.NetworkDescriptor `yaml:"networks"`
}

// Resolver is a pure lookup from network id to descriptor.
type Resolver struct {
	table map[string]core.NetworkDescriptor
}

// NewResolver returns a resolver over the built-in table.
func NewResolver() *Resolver {
	table := make(map[string]core.NetworkDescriptor, len(builtin))
	for id, d := range builtin {
		table[id] = d
	}
	return &Resolver{table: table}
}

// NewResolverFromFile overlays definitions from a YAML file on top of the
// built-in table. Entries with the same id replace the built-in descriptor;
// an empty path returns the built-in table unchanged.
func NewResolverFromFile(path string) (*Resolver, error) {
	r := NewResolver()
	if strings.TrimSpace(path) == "" {
		return r, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network config: %w", err)
	}
	var defs definitionsFile
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return nil, fmt.Errorf("parse network config: %w", err)
	}

	for id, d := range defs.Networks {
		d.NetworkID = id
		if base, ok := r.table[id]; ok {
			// Partial overrides inherit the built-in values.
			if d.ChainID == 0 {
				d.ChainID = base.ChainID
			}
			if d.RPCEndpoint == "" {
				d.RPCEndpoint = base.RPCEndpoint
			}
			if d.NativeSymbol == "" {
				d.NativeSymbol = base.NativeSymbol
			}
			if d.NativeDecimals == 0 {
				d.NativeDecimals = base.NativeDecimals
			}
		}
		if d.RPCEndpoint == "" {
			return nil, fmt.Errorf("network %s: missing rpc_url", id)
		}
		if d.NativeDecimals == 0 {
			d.NativeDecimals = 18
		}
		r.table[id] = d
	}
	return r, nil
}

// Resolve returns the descriptor for id, or ErrUnknownNetwork.
func (r *Resolver) Resolve(id string) (core.NetworkDescriptor, error) {
	d, ok := r.table[id]
	if !ok {
		return core.NetworkDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, id)
	}
	return d, nil
}

// Networks returns the sorted list of known network ids.
func (r *Resolver) Networks() []string {
	ids := make([]string, 0, len(r.table))
	for id := range r.table {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
