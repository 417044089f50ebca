package constants

import "testing"

func TestCipherSuiteString(t *testing.T) {
	tests := []struct {
		suite CipherSuite
		want  string
	}{
		{CipherSuiteAES256GCM, "AES-256-GCM"},
		{CipherSuiteChaCha20Poly1305, "ChaCha20-Poly1305"},
		{CipherSuite(0x9999), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.suite.String(); got != tt.want {
			t.Errorf("CipherSuite(%#04x).String() = %q, want %q", uint16(tt.suite), got, tt.want)
		}
	}
}

func TestCipherSuiteIsSupported(t *testing.T) {
	tests := []struct {
		suite CipherSuite
		want  bool
	}{
		{CipherSuiteAES256GCM, true},
		{CipherSuiteChaCha20Poly1305, true},
		{CipherSuite(0x0000), false},
		{CipherSuite(0x0003), false},
		{CipherSuite(0xFFFF), false},
	}

	for _, tt := range tests {
		if got := tt.suite.IsSupported(); got != tt.want {
			t.Errorf("CipherSuite(%#04x).IsSupported() = %v, want %v", uint16(tt.suite), got, tt.want)
		}
	}
}

func TestConstants(t *testing.T) {
	t.Run("KeySizes", testKeySizes)
	t.Run("EnvelopeParameters", testEnvelopeParameters)
	t.Run("DomainSeparators", testDomainSeparators)
}

func testKeySizes(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"MLKEMPublicKeySize", MLKEMPublicKeySize, 1568},
		{"MLKEMPrivateKeySize", MLKEMPrivateKeySize, 3168},
		{"MLKEMCiphertextSize", MLKEMCiphertextSize, 1568},
		{"MLKEMSharedSecretSize", MLKEMSharedSecretSize, 32},
		{"MLDSAPublicKeySize", MLDSAPublicKeySize, 2592},
		{"MLDSAPrivateKeySize", MLDSAPrivateKeySize, 4896},
		{"MLDSASignatureSize", MLDSASignatureSize, 4627},
		{"X25519PublicKeySize", X25519PublicKeySize, 32},
		{"X25519SharedSecretSize", X25519SharedSecretSize, 32},
		{"Ed25519PublicKeySize", Ed25519PublicKeySize, 32},
		{"Ed25519SignatureSize", Ed25519SignatureSize, 64},
		{"AEADKeySize", AEADKeySize, 32},
		{"AEADNonceSize", AEADNonceSize, 12},
		{"AEADTagSize", AEADTagSize, 16},
		{"SessionKeySize", SessionKeySize, 32},
		{"TranscriptHashSize", TranscriptHashSize, 32},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func testEnvelopeParameters(t *testing.T) {
	if EnvelopeNonceSize != AEADNonceSize {
		t.Errorf("EnvelopeNonceSize = %d, want AEADNonceSize (%d)", EnvelopeNonceSize, AEADNonceSize)
	}
	if MaxPayloadSize != 1<<20 {
		t.Errorf("MaxPayloadSize = %d, want %d", MaxPayloadSize, 1<<20)
	}
	if DefaultEnvelopeTTLSeconds != 3600 {
		t.Errorf("DefaultEnvelopeTTLSeconds = %d, want 3600", DefaultEnvelopeTTLSeconds)
	}
	if ReplayRetentionSeconds != 300 {
		t.Errorf("ReplayRetentionSeconds = %d, want 300", ReplayRetentionSeconds)
	}
	if MaxNoncesPerInbox != 1<<16 {
		t.Errorf("MaxNoncesPerInbox = %d, want %d", MaxNoncesPerInbox, 1<<16)
	}
}

func testDomainSeparators(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"DomainSeparatorSessionKey", DomainSeparatorSessionKey, "PQMSG-v2-SessionKey"},
		{"DomainSeparatorSignature", DomainSeparatorSignature, "PQMSG-v2-Signature"},
		{"DomainSeparatorFingerprint", DomainSeparatorFingerprint, "PQMSG-v2-Fingerprint"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	// Separators must be pairwise distinct or key derivation contexts collapse.
	if DomainSeparatorSessionKey == DomainSeparatorSignature ||
		DomainSeparatorSessionKey == DomainSeparatorFingerprint ||
		DomainSeparatorSignature == DomainSeparatorFingerprint {
		t.Error("domain separators must be pairwise distinct")
	}
}
