package tokenstore

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealer_RoundTrip(t *testing.T) {
	sealer, err := NewSealer("correct horse battery staple")
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	blob, err := sealer.Seal("eyJhbGciOiJIUzI1NiJ9.payload.sig")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if blob[0] != sealVersion {
		t.Errorf("version byte: got %d, want %d", blob[0], sealVersion)
	}
	if bytes.Contains(blob, []byte("payload")) {
		t.Error("sealed blob contains plaintext")
	}

	token, err := sealer.Open(blob)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if token != "eyJhbGciOiJIUzI1NiJ9.payload.sig" {
		t.Errorf("token: got %q", token)
	}
}

func TestSealer_UniqueBlobs(t *testing.T) {
	sealer, _ := NewSealer("pass")

	a, _ := sealer.Seal("same")
	b, _ := sealer.Seal("same")

	if bytes.Equal(a, b) {
		t.Error("sealing the same token twice should produce different blobs")
	}
}

func TestSealer_EmptyPassphrase(t *testing.T) {
	_, err := NewSealer("")
	if !errors.Is(err, ErrEmptyPassphrase) {
		t.Errorf("expected ErrEmptyPassphrase, got %v", err)
	}
}

func TestSealer_WrongPassphrase(t *testing.T) {
	a, _ := NewSealer("first")
	b, _ := NewSealer("second")

	blob, err := a.Seal("token")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	_, err = b.Open(blob)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestSealer_Tampered(t *testing.T) {
	sealer, _ := NewSealer("pass")
	blob, _ := sealer.Seal("token")

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{"short", func(b []byte) []byte { return b[:10] }, ErrInvalidBlobSize},
		{"version", func(b []byte) []byte { b[0] = 0x09; return b }, ErrUnsupportedVersion},
		{"salt", func(b []byte) []byte { b[1] ^= 0xff; return b }, ErrDecryptionFailed},
		{"ciphertext", func(b []byte) []byte { b[len(b)-1] ^= 0xff; return b }, ErrDecryptionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := tt.mutate(append([]byte(nil), blob...))
			_, err := sealer.Open(mutated)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSealer_NilEncodesPlain(t *testing.T) {
	var sealer *Sealer

	data, err := sealer.Encode("plain-token")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data) != "plain-token" {
		t.Errorf("got %q", data)
	}

	token, err := sealer.Decode(data)
	if err != nil || token != "plain-token" {
		t.Errorf("Decode: got %q, %v", token, err)
	}

	token, err = sealer.Decode(nil)
	if err != nil || token != "" {
		t.Errorf("Decode(nil): got %q, %v", token, err)
	}
}
