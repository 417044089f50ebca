package crypto_test

import (
	"testing"

	"github.com/pqmsg/pqmsg-go/pkg/crypto"
)

func TestRunSelfTest(t *testing.T) {
	result := crypto.RunSelfTest()
	if result == nil {
		t.Fatal("RunSelfTest returned nil")
	}
	if !result.Passed {
		t.Fatalf("self-tests failed: %v", result.Errors)
	}
	if !result.KDFPassed || !result.AEADPassed || !result.KEMPassed || !result.SignPassed || !result.AgreePassed {
		t.Errorf("individual results inconsistent with overall pass: %+v", result)
	}
	if !crypto.SelfTestPassed() {
		t.Error("SelfTestPassed should report true after a passing run")
	}
}

func TestRunSelfTestCached(t *testing.T) {
	first := crypto.RunSelfTest()
	second := crypto.RunSelfTest()
	if first != second {
		t.Error("RunSelfTest should cache and return the same result")
	}
}
