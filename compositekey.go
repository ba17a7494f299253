package kdbx

import "crypto/sha256"

// CompositeKey is the 32-byte secret derived from a password and/or key
// file that unlocks a Database. It is never serialized; the bytes live
// in a SecureString and are zeroised once the key is no longer needed.
type CompositeKey struct {
	secret *SecureString
}

// Bytes returns the raw 32-byte composite key. The returned slice
// aliases the key's internal storage and must not be retained past
// Destroy.
func (k *CompositeKey) Bytes() []byte {
	if k == nil {
		return nil
	}
	return k.secret.Bytes()
}

// Destroy zeroises the composite key.
func (k *CompositeKey) Destroy() {
	if k == nil {
		return
	}
	k.secret.Destroy()
}

// NewCompositeKeyFromPassword derives a composite key from a password
// alone: SHA256(SHA256(password)).
func NewCompositeKeyFromPassword(password string) (*CompositeKey, error) {
	return newCompositeKey([]byte(password), nil, true, false)
}

// NewCompositeKeyFromKeyFile derives a composite key from a key file
// alone.
func NewCompositeKeyFromKeyFile(kf *KeyFile) (*CompositeKey, error) {
	return newCompositeKey(nil, kf, false, true)
}

// NewCompositeKeyFromBoth derives a composite key from both a password
// and a key file.
func NewCompositeKeyFromBoth(password string, kf *KeyFile) (*CompositeKey, error) {
	return newCompositeKey([]byte(password), kf, true, true)
}

// newCompositeKey builds the raw key per §4.1: the password part is
// SHA256(password), the key-file part is the key file's 32 raw key
// bytes, the parts are concatenated in (password, key file) order, and
// the whole concatenation is hashed again. Fails with
// ErrInvalidKey if neither part is present.
func newCompositeKey(password []byte, kf *KeyFile, usePassword, useKeyFile bool) (*CompositeKey, error) {
	if !usePassword && !useKeyFile {
		return nil, ErrInvalidKey
	}

	var parts []byte
	if usePassword {
		h := sha256.Sum256(password)
		parts = append(parts, h[:]...)
	}
	if useKeyFile {
		if kf == nil {
			return nil, ErrInvalidKey
		}
		kb, err := kf.keyBytes()
		if err != nil {
			return nil, err
		}
		parts = append(parts, kb...)
	}

	sum := sha256.Sum256(parts)
	zero(parts)

	return &CompositeKey{secret: NewSecureString(sum[:])}, nil
}
