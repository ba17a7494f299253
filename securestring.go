package kdbx

import "runtime"

// SecureString holds a secret byte buffer that is zeroised when no longer
// needed. It backs the CompositeKey and the plaintext of protected string
// values; callers that need the raw bytes must call Bytes before Destroy
// and must not retain the returned slice past that call.
type SecureString struct {
	buf       []byte
	destroyed bool
}

// NewSecureString copies b into a new SecureString. The caller remains
// responsible for zeroising b itself if it is sensitive.
func NewSecureString(b []byte) *SecureString {
	s := &SecureString{buf: make([]byte, len(b))}
	copy(s.buf, b)
	runtime.SetFinalizer(s, (*SecureString).Destroy)
	return s
}

// Bytes returns the underlying buffer. It returns nil once Destroy has
// run. The returned slice aliases internal storage; it must not be
// retained beyond the SecureString's lifetime.
func (s *SecureString) Bytes() []byte {
	if s == nil || s.destroyed {
		return nil
	}
	return s.buf
}

// Len reports the number of secret bytes still held, or 0 if destroyed.
func (s *SecureString) Len() int {
	if s == nil || s.destroyed {
		return 0
	}
	return len(s.buf)
}

// Destroy zeroises the buffer in place. Safe to call more than once and
// safe to call on a nil receiver.
func (s *SecureString) Destroy() {
	if s == nil || s.destroyed {
		return
	}
	zero(s.buf)
	s.buf = nil
	s.destroyed = true
	runtime.SetFinalizer(s, nil)
}

// zero overwrites b with zero bytes. Extracted so every secret-wiping
// call site reads the same way.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
