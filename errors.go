package kdbx

import (
	"errors"
	"fmt"
)

// Error types represent different categories of errors produced while
// decoding or encoding a .kdbx file.

// FormatError represents a malformed header, TLV field, or XML document.
type FormatError struct {
	Field   string // The header/XML field or TLV id that failed to parse
	Offset  int64  // Byte offset in the stream, if known (0 if not)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("format error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("format error: %s", e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// CryptoError represents a key-derivation, encryption, decryption,
// random-generation, or payload (de)compression failure.
type CryptoError struct {
	Operation string // "derive", "encrypt", "decrypt", "random", "compress", "decompress"
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Operation, e.Message)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// KeyFileError represents a failure to read, parse, or write a key file.
type KeyFileError struct {
	Path    string // Key file path, if known
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *KeyFileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("key file error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("key file error: %s", e.Message)
}

func (e *KeyFileError) Unwrap() error {
	return e.Err
}

// IOError wraps a failure from the caller-supplied reader or writer.
type IOError struct {
	Operation string // "read", "write"
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s: %s", e.Operation, e.Message)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Sentinel errors for the taxonomy in the design document. Several of
// these are wrapped inside a FormatError/CryptoError/KeyFileError above;
// callers that only care about the kind can still match with errors.Is.
var (
	// Crypto/key
	ErrInvalidKey      = errors.New("kdbx: invalid key (empty composite key or wrong password/key file)")
	ErrCannotDeriveKey = errors.New("kdbx: cannot derive key")

	// Input/format
	ErrInvalidFileSignature = errors.New("kdbx: invalid file signature")
	ErrInvalidFileVersion   = errors.New("kdbx: unsupported file version (only kdbx v3.x is supported)")
	ErrUnhandledField       = errors.New("kdbx: unhandled header field id")
	ErrInvalidCipher        = errors.New("kdbx: unsupported cipher (only AES-256 is supported)")
	ErrInvalidCompression   = errors.New("kdbx: unsupported compression flag")
	ErrInvalidStreamCipher  = errors.New("kdbx: unsupported inner stream cipher (only Salsa20 is supported)")
	ErrInvalidBlockID       = errors.New("kdbx: block id out of order")
	ErrInvalidBlockHash     = errors.New("kdbx: block hash mismatch")
	ErrMalformedHeader      = errors.New("kdbx: malformed header field")
	ErrMalformedXML         = errors.New("kdbx: malformed xml")
	ErrUnexpectedTag        = errors.New("kdbx: unexpected xml tag")
	ErrInvalidTimestamp     = errors.New("kdbx: invalid timestamp")
	ErrInvalidUUID          = errors.New("kdbx: invalid uuid")
	ErrInvalidBase64        = errors.New("kdbx: invalid base64")

	// Compression
	ErrCompression   = errors.New("kdbx: compression failed")
	ErrDecompression = errors.New("kdbx: decompression failed")

	// Key file
	ErrCannotReadKeyFile = errors.New("kdbx: cannot read key file")
	ErrInvalidKeyFile    = errors.New("kdbx: invalid key file")

	// Binary pool
	ErrUnresolvedBinaryRef = errors.New("kdbx: entry references a binary id that is not in the pool")
)

// NewFormatError creates a new format error wrapping one of the
// sentinel input/format errors above.
func NewFormatError(field string, offset int64, sentinel error) error {
	return &FormatError{
		Field:   field,
		Offset:  offset,
		Message: sentinel.Error(),
		Err:     sentinel,
	}
}

// NewCryptoError creates a new crypto error wrapping a sentinel or
// underlying cause.
func NewCryptoError(operation string, err error) error {
	return &CryptoError{
		Operation: operation,
		Message:   err.Error(),
		Err:       err,
	}
}

// NewKeyFileError creates a new key file error.
func NewKeyFileError(path string, err error) error {
	return &KeyFileError{
		Path:    path,
		Message: err.Error(),
		Err:     err,
	}
}

// NewIOError wraps a reader/writer failure with the operation that
// triggered it.
func NewIOError(operation string, err error) error {
	return &IOError{
		Operation: operation,
		Message:   err.Error(),
		Err:       err,
	}
}

// IsFormatError reports whether err is (or wraps) a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsCryptoError reports whether err is (or wraps) a CryptoError.
func IsCryptoError(err error) bool {
	var ce *CryptoError
	return errors.As(err, &ce)
}

// IsKeyFileError reports whether err is (or wraps) a KeyFileError.
func IsKeyFileError(err error) bool {
	var ke *KeyFileError
	return errors.As(err, &ke)
}

// IsIOError reports whether err is (or wraps) an IOError.
func IsIOError(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}
