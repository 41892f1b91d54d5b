package constants

import "testing"

func TestKEMSizes(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"KEMPublicKeySize", KEMPublicKeySize, 1568},
		{"KEMPrivateKeySize", KEMPrivateKeySize, 3168},
		{"KEMCiphertextSize", KEMCiphertextSize, 1568},
		{"KEMSharedSecretSize", KEMSharedSecretSize, 32},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestCipherSizesMatchSharedSecret(t *testing.T) {
	if CipherKeySize != KEMSharedSecretSize {
		t.Errorf("CipherKeySize = %d, must equal KEMSharedSecretSize %d so the shared secret can be used directly as the AES key", CipherKeySize, KEMSharedSecretSize)
	}
	if IVSize != CipherBlockSize {
		t.Errorf("IVSize = %d, want %d", IVSize, CipherBlockSize)
	}
}

func TestMessageLimits(t *testing.T) {
	if MaxPlaintextSize != 500 {
		t.Errorf("MaxPlaintextSize = %d, want 500", MaxPlaintextSize)
	}
	if MaxCiphertextSize != 512 {
		t.Errorf("MaxCiphertextSize = %d, want 512", MaxCiphertextSize)
	}
	if LengthPrefixSize != 4 {
		t.Errorf("LengthPrefixSize = %d, want 4", LengthPrefixSize)
	}
}

func TestSentinelValues(t *testing.T) {
	if ConnAttempt != -100 {
		t.Errorf("ConnAttempt = %d, want -100", ConnAttempt)
	}
	if SocketError != -1 {
		t.Errorf("SocketError = %d, want -1", SocketError)
	}
}

func TestBitmapPollTimeout(t *testing.T) {
	if BitmapPollTimeoutSeconds != 3 {
		t.Errorf("BitmapPollTimeoutSeconds = %d, want 3", BitmapPollTimeoutSeconds)
	}
}
