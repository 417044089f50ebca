package directory_test

import (
	"context"
	"testing"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/directory"
	"github.com/pqmsg/pqmsg-go/pkg/hybrid"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

func TestStaticResolver(t *testing.T) {
	kp, err := hybrid.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	r := directory.NewStaticResolver()
	if err := r.Register(&directory.Entry{
		InboxID: "alice",
		Bundle:  kp.Bundle(),
		MaxMode: mode.Quantum,
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	e, err := r.Resolve(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if e.MaxMode != mode.Quantum {
		t.Errorf("MaxMode = %v, want Quantum", e.MaxMode)
	}

	if _, err := r.Resolve(context.Background(), "mallory"); !qerrors.Is(err, qerrors.ErrUnknownRecipient) {
		t.Errorf("expected ErrUnknownRecipient, got %v", err)
	}

	r.Remove("alice")
	if _, err := r.Resolve(context.Background(), "alice"); !qerrors.Is(err, qerrors.ErrUnknownRecipient) {
		t.Errorf("expected ErrUnknownRecipient after Remove, got %v", err)
	}
}

func TestRegisterRejectsOverclaimedMode(t *testing.T) {
	kp, err := hybrid.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	classicalOnly := &hybrid.PublicBundle{
		EncryptionKey: kp.Classical.Encryption.PublicKey,
		VerifyKey:     kp.Classical.Signing.PublicKey,
	}

	r := directory.NewStaticResolver()
	err = r.Register(&directory.Entry{
		InboxID: "bob",
		Bundle:  classicalOnly,
		MaxMode: mode.Hybrid,
	})
	if !qerrors.Is(err, qerrors.ErrMissingRequiredComponent) {
		t.Errorf("expected ErrMissingRequiredComponent, got %v", err)
	}
}

func TestResolveHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := directory.NewStaticResolver()
	if _, err := r.Resolve(ctx, "anyone"); err == nil {
		t.Error("expected context error")
	}
}
