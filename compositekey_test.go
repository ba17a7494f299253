package kdbx

import (
	"bytes"
	"testing"
)

func TestNewCompositeKeyFromPassword(t *testing.T) {
	k, err := NewCompositeKeyFromPassword("correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(k.Bytes()) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(k.Bytes()))
	}

	k2, err := NewCompositeKeyFromPassword("correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(k.Bytes(), k2.Bytes()) {
		t.Errorf("same password should derive the same composite key")
	}

	k3, err := NewCompositeKeyFromPassword("different password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Equal(k.Bytes(), k3.Bytes()) {
		t.Errorf("different passwords should derive different composite keys")
	}
}

func TestNewCompositeKeyFromKeyFile(t *testing.T) {
	raw := bytes.Repeat([]byte{0x42}, 32)
	kf, err := OpenKeyFile(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	k, err := NewCompositeKeyFromKeyFile(kf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(k.Bytes()) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(k.Bytes()))
	}
}

func TestNewCompositeKeyFromBoth(t *testing.T) {
	raw := bytes.Repeat([]byte{0x01}, 32)
	kf, err := OpenKeyFile(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	combined, err := NewCompositeKeyFromBoth("password", kf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	passwordOnly, err := NewCompositeKeyFromPassword("password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Equal(combined.Bytes(), passwordOnly.Bytes()) {
		t.Errorf("combined key must differ from the password-only key")
	}
}

func TestNewCompositeKeyEmptyFails(t *testing.T) {
	_, err := newCompositeKey(nil, nil, false, false)
	if err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestCompositeKeyDestroy(t *testing.T) {
	k, err := NewCompositeKeyFromPassword("secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k.Destroy()
	if k.Bytes() != nil {
		t.Errorf("expected nil bytes after Destroy")
	}
}
