package kdbx

import (
	"bytes"
	"testing"
)

func TestCompressPayloadNone(t *testing.T) {
	data := []byte("plain payload")
	got, err := compressPayload(data, CompressionNone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("CompressionNone must return data unchanged")
	}
}

func TestCompressDecompressGZipRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("compress me please "), 500)

	compressed, err := compressPayload(data, CompressionGZip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Equal(compressed, data) {
		t.Errorf("expected gzip to change highly repetitive data")
	}

	got, err := decompressPayload(compressed, CompressionGZip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("gzip round trip changed the payload")
	}
}

func TestDecompressPayloadBadData(t *testing.T) {
	_, err := decompressPayload([]byte("not gzip data"), CompressionGZip)
	if !IsCryptoError(err) {
		t.Fatalf("expected a CryptoError for invalid gzip data, got %v", err)
	}
}
