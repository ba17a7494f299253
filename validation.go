package kdbx

// Input validation helpers used at the boundaries of the key and
// header codecs, where a caller-supplied byte slice must have an
// exact, format-mandated size before it is safe to use.

// validateFixedSize checks that buf is exactly size bytes, returning a
// FormatError naming field if not.
func validateFixedSize(buf []byte, field string, size int) error {
	if len(buf) != size {
		return NewFormatError(field, 0, ErrMalformedHeader)
	}
	return nil
}

// validateUUIDBytes checks that raw decodes to exactly 16 bytes, the
// size every UUID field in the XML content codec requires.
func validateUUIDBytes(raw []byte) error {
	if len(raw) != 16 {
		return NewFormatError("uuid", 0, ErrInvalidUUID)
	}
	return nil
}

// validateCompositeKey checks that a composite key is present and
// exactly 32 bytes, the canonical "empty composite key" failure named
// in §4.1.
func validateCompositeKey(key *CompositeKey) error {
	if key == nil || key.Bytes() == nil || len(key.Bytes()) != 32 {
		return ErrInvalidKey
	}
	return nil
}
