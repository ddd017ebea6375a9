package ledger

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
)

// Pool hands out one Client per network, dialing lazily on first use and
// caching the connection for the life of the process.
type Pool struct {
	signer *Signer
	log    *zap.SugaredLogger

	mu      sync.Mutex
	clients map[string]*Client
}

// NewPool creates an empty pool for the given signer.
func NewPool(signer *Signer, log *zap.SugaredLogger) *Pool {
	return &Pool{
		signer:  signer,
		log:     log,
		clients: make(map[string]*Client),
	}
}

// Client returns the cached client for the network, dialing if necessary.
func (p *Pool) Client(ctx context.Context, network core.NetworkDescriptor) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[network.NetworkID]; ok {
		return c, nil
	}
	c, err := Dial(ctx, network, p.signer, p.log)
	if err != nil {
		return nil, err
	}
	p.clients[network.NetworkID] = c
	return c, nil
}

// Close releases every client in the pool.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.clients {
		c.Close()
		delete(p.clients, id)
	}
}
