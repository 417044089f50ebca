// Package keygen generates hybrid key pairs on a dedicated worker pool.
//
// ML-KEM and ML-DSA key generation is expensive enough that it must not
// run inline on a receive path. The pool keeps a buffer of pre-generated
// key pairs topped up by background workers; callers take from the
// buffer with their own deadline and treat expiry as a scheduling
// failure, not a crypto one.
package keygen

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/hybrid"
)

// PoolConfig tunes the key generation pool.
type PoolConfig struct {
	// Workers is the number of generator goroutines.
	Workers int

	// Buffer is how many key pairs are kept ready.
	Buffer int
}

func (c *PoolConfig) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.Buffer <= 0 {
		c.Buffer = 4
	}
}

// Pool pre-generates hybrid key pairs in the background.
type Pool struct {
	config PoolConfig
	keys   chan *hybrid.KeyPair

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool

	generated atomic.Int64
}

// NewPool creates a pool. Workers do not run until Start is called.
func NewPool(config PoolConfig) *Pool {
	config.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config: config,
		keys:   make(chan *hybrid.KeyPair, config.Buffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the generator workers.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return qerrors.ErrKeygenClosed
	}
	if p.started {
		return nil
	}
	p.started = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return nil
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		if p.ctx.Err() != nil {
			return
		}

		kp, err := hybrid.GenerateKeyPair()
		if err != nil {
			// Randomness failure; bail rather than spin.
			return
		}

		select {
		case p.keys <- kp:
			p.generated.Add(1)
		case <-p.ctx.Done():
			kp.Zeroize()
			return
		}
	}
}

// Get takes a key pair from the pool, blocking until one is available
// or the caller's context ends. A deadline expiry surfaces as
// KeygenTimedOut.
func (p *Pool) Get(ctx context.Context) (*hybrid.KeyPair, error) {
	select {
	case kp := <-p.keys:
		return kp, nil
	default:
	}

	select {
	case kp := <-p.keys:
		return kp, nil
	case <-p.ctx.Done():
		return nil, qerrors.ErrKeygenClosed
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, qerrors.ErrKeygenTimedOut
		}
		return nil, ctx.Err()
	}
}

// Generated returns the total number of key pairs produced.
func (p *Pool) Generated() int64 {
	return p.generated.Load()
}

// Ready returns how many key pairs are currently buffered.
func (p *Pool) Ready() int {
	return len(p.keys)
}

// Close stops the workers and zeroizes any buffered key pairs.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	for {
		select {
		case kp := <-p.keys:
			kp.Zeroize()
		default:
			return
		}
	}
}
