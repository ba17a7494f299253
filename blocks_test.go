package kdbx

import (
	"bytes"
	"testing"
)

func TestComposeDecomposeBlocksRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 1000)

	framed := composeBlocks(payload)
	got, err := decomposeBlocks(framed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("decomposed payload does not match original")
	}
}

func TestComposeDecomposeBlocksEmptyPayload(t *testing.T) {
	framed := composeBlocks(nil)
	got, err := decomposeBlocks(framed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(got))
	}
}

func TestComposeDecomposeBlocksMultipleBlocks(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, blockSize*3+17)
	framed := composeBlocks(payload)
	got, err := decomposeBlocks(framed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("multi-block payload did not round trip")
	}
}

func TestDecomposeBlocksRejectsBadHash(t *testing.T) {
	framed := composeBlocks([]byte("hello world"))
	// Flip a byte inside the first block's data, after the 4+32+4 byte
	// record header, so the stored hash no longer matches.
	framed[4+32+4] ^= 0xFF

	_, err := decomposeBlocks(framed)
	if !IsFormatError(err) {
		t.Fatalf("expected a FormatError for a bad block hash, got %v", err)
	}
}

func TestDecomposeBlocksRejectsOutOfOrderID(t *testing.T) {
	framed := composeBlocks(bytes.Repeat([]byte{1}, blockSize*2+1))
	// Corrupt the first block's id field from 0 to 1 so the ordering
	// check (block_id increments from 0) fails even though every hash
	// still matches its own data.
	framed[0] = 1

	_, err := decomposeBlocks(framed)
	if err == nil {
		t.Fatalf("expected an error for an out-of-order block id")
	}
}
