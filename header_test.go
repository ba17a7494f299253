package kdbx

import (
	"bytes"
	"testing"
)

func newTestHeader(t *testing.T) *fileHeader {
	t.Helper()
	return &fileHeader{
		MinorVersion:       1,
		MajorVersion:       3,
		Cipher:             CipherAES256,
		Compression:        CompressionGZip,
		MasterSeed:         bytes.Repeat([]byte{0x01}, 32),
		TransformSeed:      bytes.Repeat([]byte{0x02}, 32),
		TransformRounds:    6000,
		EncryptionIV:       bytes.Repeat([]byte{0x03}, 16),
		ProtectedStreamKey: bytes.Repeat([]byte{0x04}, 32),
		StreamStartBytes:   bytes.Repeat([]byte{0x05}, 32),
		InnerStreamCipher:  StreamCipherSalsa20,
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := newTestHeader(t)

	var buf bytes.Buffer
	if err := h.writeTo(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, n, err := readFileHeader(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Errorf("expected a nonzero header length")
	}

	if got.MajorVersion != 3 {
		t.Errorf("MajorVersion = %d, want 3", got.MajorVersion)
	}
	if got.Compression != CompressionGZip {
		t.Errorf("Compression = %v, want GZip", got.Compression)
	}
	if !bytes.Equal(got.MasterSeed, h.MasterSeed) {
		t.Errorf("MasterSeed mismatch after round trip")
	}
	if got.TransformRounds != h.TransformRounds {
		t.Errorf("TransformRounds = %d, want %d", got.TransformRounds, h.TransformRounds)
	}
	if got.InnerStreamCipher != StreamCipherSalsa20 {
		t.Errorf("InnerStreamCipher = %v, want Salsa20", got.InnerStreamCipher)
	}
}

func TestReadFileHeaderBadSignature(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	_, _, err := readFileHeader(&buf)
	if !IsFormatError(err) {
		t.Fatalf("expected a FormatError, got %v", err)
	}
}

func TestReadFileHeaderUnknownField(t *testing.T) {
	h := newTestHeader(t)
	var buf bytes.Buffer
	if err := h.writeTo(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Corrupt the encoded bytes: inject an unknown field id (200) with
	// a zero-length payload right after the version fields.
	encoded := buf.Bytes()
	corrupted := append(append([]byte{}, encoded[:12]...), append([]byte{200, 0, 0}, encoded[12:]...)...)

	_, _, err := readFileHeader(bytes.NewReader(corrupted))
	if err == nil {
		t.Fatalf("expected an error for an unhandled field id")
	}
}
