package internal

import (
	"bytes"
	"strings"
	"testing"
)

// The FileBackend feeds Encrypt/Decrypt the JSON store blob and a key
// derived from FEDCTL_SECRET, so the tests use the same shapes.
var (
	blobKey   = []byte("fedctl-secret-0123456789abcdefgh") // 32 bytes
	blobPlain = []byte(`{"idp_email":"me@example.com","profiles":{}}`)
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sealed, err := Encrypt(blobPlain, blobKey)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(sealed) == 0 {
		t.Fatal("Sealed blob is empty")
	}

	opened, err := Decrypt(sealed, blobKey)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(opened, blobPlain) {
		t.Errorf("Round trip mismatch.\nGot: %s\nWant: %s", opened, blobPlain)
	}
}

func TestEncryptRejectsShortKey(t *testing.T) {
	_, err := Encrypt(blobPlain, []byte("too-short"))
	if err == nil {
		t.Error("Expected error for key under 32 bytes, got nil")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	otherKey := []byte("a-completely-different-secret-00")

	sealed, _ := Encrypt(blobPlain, blobKey)
	if _, err := Decrypt(sealed, otherKey); err == nil {
		t.Error("Expected error when decrypting with wrong key, got nil")
	}
}

func TestNonceRandomness(t *testing.T) {
	// Same blob sealed twice must differ, or the nonce is being reused.
	c1, _ := Encrypt(blobPlain, blobKey)
	c2, _ := Encrypt(blobPlain, blobKey)
	if bytes.Equal(c1, c2) {
		t.Error("Encryption should produce different output for the same input")
	}
}

func TestCorruptCiphertext(t *testing.T) {
	// Too short to even contain the nonce.
	_, err := Decrypt([]byte("foo"), blobKey)
	if err == nil {
		t.Error("Expected error for short ciphertext, got nil")
	} else if !strings.Contains(err.Error(), "cipher too short") {
		t.Errorf("Expected 'cipher too short' error, got: %v", err)
	}

	// Flipping a bit must fail GCM authentication.
	sealed, _ := Encrypt(blobPlain, blobKey)
	sealed[len(sealed)-1] ^= 0x01
	if _, err := Decrypt(sealed, blobKey); err == nil {
		t.Error("Expected error for tampered ciphertext, got nil")
	}
}
