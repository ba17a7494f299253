package kdbx

import (
	"crypto/sha256"

	"golang.org/x/crypto/salsa20"
)

// salsa20Nonce is the fixed 8-byte nonce every kdbx v3 file uses for
// the protected-value stream (§4.7).
var salsa20Nonce = [8]byte{0xE8, 0x30, 0x09, 0x4B, 0x97, 0x20, 0x5D, 0x2A}

// protectedStream produces the Salsa20 keystream that (de)obfuscates
// protected XML field values. It must be consumed in strict document
// order -- group, then entry, then protected string field, recursing
// into history entries -- since any reorder desynchronizes every
// subsequent value. Per the design notes, values are decoded entirely
// during parse and a fresh stream is built for save; there is no lazy
// or partial consumption path.
//
// golang.org/x/crypto/salsa20 only exposes whole-buffer keystream
// generation, not a seekable cursor, so a cursor regenerates the
// keystream from scratch whenever more bytes are needed and slices
// out the unconsumed window. Each regeneration grows it only to the
// bytes consumed so far, so a document with n protected values
// regenerates the keystream up to n times.
type protectedStream struct {
	key       [32]byte
	keystream []byte
	consumed  uint64
}

// newProtectedStream derives the stream's key from the header's
// protected-stream key: SHA256(protected_stream_key).
func newProtectedStream(protectedStreamKey []byte) *protectedStream {
	return &protectedStream{key: sha256.Sum256(protectedStreamKey)}
}

// xor consumes len(data) keystream bytes in document order and
// returns data XORed with them. The same operation unprotects on read
// and protects on write, since XOR is its own inverse.
func (s *protectedStream) xor(data []byte) []byte {
	need := s.consumed + uint64(len(data))
	if uint64(len(s.keystream)) < need {
		s.growTo(need)
	}
	window := s.keystream[s.consumed:need]
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ window[i]
	}
	s.consumed = need
	return out
}

func (s *protectedStream) growTo(need uint64) {
	zeros := make([]byte, need)
	keystream := make([]byte, need)
	salsa20.XORKeyStream(keystream, zeros, salsa20Nonce[:], &s.key)
	s.keystream = keystream
}
