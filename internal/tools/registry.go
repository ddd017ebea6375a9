// Package tools implements the fixed, schema-validated tool set exposed to
// the model. The registry is a static table of {name, schema, handler}
// entries; validation is uniform and runs to completion before any network
// traffic, so an invalid value transfer never reaches the ledger.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

// Ledger is the subset of ledger operations the tool handlers need. The
// production implementation is *ledger.Client; tests substitute stubs.
type Ledger interface {
	Address() common.Address
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
	TransferValue(ctx context.Context, to common.Address, amount *big.Int) (string, error)
	CreateFungible(ctx context.Context, name, symbol string, decimals uint8, initialSupply *big.Int) (string, string, error)
	MintFungible(ctx context.Context, token, recipient common.Address, amount *big.Int) (string, error)
	TransferFungible(ctx context.Context, token, to common.Address, amount *big.Int) (string, error)
}

// LedgerFactory yields the client for a resolved network. Called only after
// argument validation has passed.
type LedgerFactory func(ctx context.Context, network core.NetworkDescriptor) (Ledger, error)

// Handler executes one validated tool call and returns its payload.
type Handler func(ctx context.Context, args Args, lg Ledger, network core.NetworkDescriptor) (map[string]any, error)

// Spec is one registry entry.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema for the arguments
	Handler     Handler
}

// Registry holds the fixed tool table.
type Registry struct {
	specs      map[string]Spec
	order      []string
	ledger     LedgerFactory
	payloadCap int
	log        *zap.SugaredLogger
}

var _ core.ToolInvoker = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithPayloadCap limits string values inside success payloads to n runes.
// Zero disables truncation.
func WithPayloadCap(n int) Option {
	return func(r *Registry) { r.payloadCap = n }
}

// NewRegistry builds the registry over the fixed ledger tool set.
func NewRegistry(factory LedgerFactory, log *zap.SugaredLogger, opts ...Option) *Registry {
	r := &Registry{
		specs:  make(map[string]Spec),
		ledger: factory,
		log:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, spec := range ledgerToolSpecs() {
		r.specs[spec.Name] = spec
		r.order = append(r.order, spec.Name)
	}
	return r
}

// Definitions returns the tool definitions in registration order, for
// advertising to the model.
func (r *Registry) Definitions() []core.ToolDefinition {
	defs := make([]core.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		spec := r.specs[name]
		defs = append(defs, core.ToolDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.Parameters,
		})
	}
	return defs
}

// Invoke validates and executes one named tool. All failures come back as
// error envelopes; nothing is thrown across this boundary.
func (r *Registry) Invoke(ctx context.Context, name string, argsRaw json.RawMessage, network core.NetworkDescriptor) (res core.ToolResult) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Errorw("tool handler panicked", "tool", name, "panic", p)
			res = Errorf(CodeExecutionFailed, fmt.Sprintf("tool %s failed unexpectedly", name))
		}
	}()

	spec, ok := r.specs[name]
	if !ok {
		return Errorf(CodeUnknownTool, fmt.Sprintf("unknown tool: %s", name))
	}

	args, err := decodeArgs(argsRaw)
	if err != nil {
		return Errorf(CodeInvalidArguments, err.Error())
	}
	if err := validateArgs(args, spec.Parameters); err != nil {
		return Errorf(CodeInvalidArguments, err.Error())
	}

	// Validation is complete; only now may the network be touched.
	lg, err := r.ledger(ctx, network)
	if err != nil {
		r.log.Errorw("ledger client unavailable", "tool", name, "network", network.NetworkID, "error", err)
		return Errorf(CodeExecutionFailed, err.Error())
	}

	payload, err := spec.Handler(ctx, args, lg, network)
	if err != nil {
		r.log.Warnw("tool failed", "tool", name, "network", network.NetworkID, "error", err)
		return Errorf(CodeExecutionFailed, err.Error())
	}

	r.log.Infow("tool executed", "tool", name, "network", network.NetworkID)
	return truncatePayload(Success(payload), r.payloadCap)
}

// decodeArgs parses the raw model-produced arguments. Numbers are kept as
// json.Number so large ledger amounts survive without float rounding.
func decodeArgs(raw json.RawMessage) (Args, error) {
	if len(raw) == 0 {
		return Args{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args Args
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %v", err)
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}
