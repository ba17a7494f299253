package kdbx

import (
	"bytes"
	"testing"
)

func TestDeriveMasterKeyDeterministic(t *testing.T) {
	composite := bytes.Repeat([]byte{0xAA}, 32)
	masterSeed := bytes.Repeat([]byte{0xBB}, 32)
	transformSeed := bytes.Repeat([]byte{0xCC}, 32)

	k1, err := deriveMasterKey(composite, masterSeed, transformSeed, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k2, err := deriveMasterKey(composite, masterSeed, transformSeed, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Errorf("same inputs must derive the same master key")
	}
	if len(k1) != 32 {
		t.Fatalf("expected a 32-byte master key, got %d", len(k1))
	}
}

func TestDeriveMasterKeyRoundsMatter(t *testing.T) {
	composite := bytes.Repeat([]byte{0xAA}, 32)
	masterSeed := bytes.Repeat([]byte{0xBB}, 32)
	transformSeed := bytes.Repeat([]byte{0xCC}, 32)

	k1, err := deriveMasterKey(composite, masterSeed, transformSeed, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k2, err := deriveMasterKey(composite, masterSeed, transformSeed, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Equal(k1, k2) {
		t.Errorf("different round counts must derive different master keys")
	}
}

func TestDeriveMasterKeyRejectsBadSizes(t *testing.T) {
	_, err := deriveMasterKey(bytes.Repeat([]byte{1}, 16), bytes.Repeat([]byte{2}, 32), bytes.Repeat([]byte{3}, 32), 10)
	if !IsCryptoError(err) {
		t.Fatalf("expected a CryptoError for a short composite key, got %v", err)
	}
}
