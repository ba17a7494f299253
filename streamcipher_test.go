package kdbx

import (
	"bytes"
	"testing"
)

func TestProtectedStreamXORIsOwnInverse(t *testing.T) {
	key := bytes.Repeat([]byte{0x09}, 32)
	plain := []byte("correct horse battery staple")

	enc := newProtectedStream(key)
	cipher := enc.xor(plain)
	if bytes.Equal(cipher, plain) {
		t.Errorf("expected the keystream to change the plaintext")
	}

	dec := newProtectedStream(key)
	recovered := dec.xor(cipher)
	if !bytes.Equal(recovered, plain) {
		t.Errorf("xor-ing twice with a fresh stream of the same key did not recover the plaintext")
	}
}

func TestProtectedStreamDocumentOrderMatters(t *testing.T) {
	key := bytes.Repeat([]byte{0x09}, 32)
	first := []byte("first field")
	second := []byte("second field")

	s := newProtectedStream(key)
	c1 := s.xor(first)
	c2 := s.xor(second)

	// Decoding out of order (second before first) must not recover the
	// original plaintexts, since each call consumes the next keystream
	// bytes in sequence.
	d := newProtectedStream(key)
	wrongOrderFirst := d.xor(c2)
	if bytes.Equal(wrongOrderFirst, second) {
		t.Errorf("decoding out of document order should desynchronize the keystream")
	}

	d2 := newProtectedStream(key)
	gotFirst := d2.xor(c1)
	gotSecond := d2.xor(c2)
	if !bytes.Equal(gotFirst, first) || !bytes.Equal(gotSecond, second) {
		t.Errorf("decoding in document order must recover both plaintexts")
	}
}

func TestProtectedStreamGrowsAcrossManyCalls(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 32)
	s := newProtectedStream(key)

	var chunks [][]byte
	for i := 0; i < 20; i++ {
		chunks = append(chunks, bytes.Repeat([]byte{byte(i)}, 13))
	}

	var ciphertexts [][]byte
	for _, c := range chunks {
		ciphertexts = append(ciphertexts, s.xor(c))
	}

	d := newProtectedStream(key)
	for i, ct := range ciphertexts {
		got := d.xor(ct)
		if !bytes.Equal(got, chunks[i]) {
			t.Fatalf("chunk %d did not decode back to its original value", i)
		}
	}
}
