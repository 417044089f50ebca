package keygen_test

import (
	"context"
	"testing"
	"time"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/keygen"
)

func TestPoolGet(t *testing.T) {
	p := keygen.NewPool(keygen.PoolConfig{Workers: 2, Buffer: 2})
	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	kp, err := p.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if kp.Classical == nil || kp.PostQuantum == nil {
		t.Error("pool returned incomplete key pair")
	}

	// Distinct calls return distinct key material.
	kp2, err := p.Get(ctx)
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if kp == kp2 {
		t.Error("pool returned the same key pair twice")
	}
}

func TestGetTimesOut(t *testing.T) {
	// Never started, so nothing will ever be produced.
	p := keygen.NewPool(keygen.PoolConfig{Workers: 1, Buffer: 1})
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := p.Get(ctx); !qerrors.Is(err, qerrors.ErrKeygenTimedOut) {
		t.Errorf("expected ErrKeygenTimedOut, got %v", err)
	}
}

func TestGetAfterClose(t *testing.T) {
	p := keygen.NewPool(keygen.PoolConfig{Workers: 1, Buffer: 1})
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Buffered keys were zeroized on close; the pool context is done.
	if _, err := p.Get(ctx); !qerrors.Is(err, qerrors.ErrKeygenClosed) && !qerrors.Is(err, qerrors.ErrKeygenTimedOut) {
		t.Errorf("expected closed or timed out, got %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	p := keygen.NewPool(keygen.PoolConfig{})
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	p.Close()
	p.Close()
}

func TestStartAfterClose(t *testing.T) {
	p := keygen.NewPool(keygen.PoolConfig{})
	p.Close()
	if err := p.Start(); !qerrors.Is(err, qerrors.ErrKeygenClosed) {
		t.Errorf("expected ErrKeygenClosed, got %v", err)
	}
}
