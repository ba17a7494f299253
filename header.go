package kdbx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const (
	// sig1/sig2 identify a KeePass 2 file (the generic KeePass signature
	// followed by the KeePass-2-specific secondary signature).
	sig1 = uint32(0x9AA2D903)
	sig2 = uint32(0xB54BFB67)

	headerFieldEnd             = 0
	headerFieldCipherID        = 2
	headerFieldCompression     = 3
	headerFieldMasterSeed      = 4
	headerFieldTransformSeed   = 5
	headerFieldTransformRounds = 6
	headerFieldEncryptionIV    = 7
	headerFieldProtectedKey    = 8
	headerFieldStreamStart     = 9
	headerFieldInnerCipher     = 10
)

// cipherAES256UUID is the only cipher UUID this library accepts.
var cipherAES256UUID = uuid.MustParse("31C1F2E6-BF71-4350-BE58-05216AFC5AFF")

// fileHeader is the decoded form of the binary TLV header described in
// §4.3: fixed magic/version fields followed by a repeating
// (id, len, value) sequence terminated by id=0.
type fileHeader struct {
	MinorVersion uint16
	MajorVersion uint16

	Cipher             Cipher
	Compression        Compression
	MasterSeed         []byte
	TransformSeed      []byte
	TransformRounds    uint64
	EncryptionIV       []byte
	ProtectedStreamKey []byte
	StreamStartBytes   []byte
	InnerStreamCipher  StreamCipher
}

// readFileHeader reads the fixed magic/version fields and then the TLV
// field sequence, returning the decoded header and the number of bytes
// consumed (everything from there on is ciphertext).
func readFileHeader(r io.Reader) (*fileHeader, int64, error) {
	var n int64
	var m1, m2 uint32
	if err := binary.Read(r, binary.LittleEndian, &m1); err != nil {
		return nil, n, NewIOError("read", err)
	}
	n += 4
	if err := binary.Read(r, binary.LittleEndian, &m2); err != nil {
		return nil, n, NewIOError("read", err)
	}
	n += 4
	if m1 != sig1 || m2 != sig2 {
		return nil, n, NewFormatError("signature", 0, ErrInvalidFileSignature)
	}

	h := &fileHeader{}
	if err := binary.Read(r, binary.LittleEndian, &h.MinorVersion); err != nil {
		return nil, n, NewIOError("read", err)
	}
	n += 2
	if err := binary.Read(r, binary.LittleEndian, &h.MajorVersion); err != nil {
		return nil, n, NewIOError("read", err)
	}
	n += 2
	if h.MajorVersion != 3 {
		return nil, n, NewFormatError("version", n, ErrInvalidFileVersion)
	}

	for {
		var id uint8
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, n, NewIOError("read", err)
		}
		n++
		var length uint16
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, n, NewIOError("read", err)
		}
		n += 2
		value := make([]byte, length)
		if _, err := io.ReadFull(r, value); err != nil {
			return nil, n, NewIOError("read", err)
		}
		n += int64(length)

		if id == headerFieldEnd {
			break
		}
		if err := h.setField(id, value, n); err != nil {
			return nil, n, err
		}
	}

	if err := h.validate(); err != nil {
		return nil, n, err
	}
	return h, n, nil
}

func (h *fileHeader) setField(id uint8, value []byte, offset int64) error {
	switch id {
	case headerFieldCipherID:
		if len(value) != 16 || !bytes.Equal(value, cipherAES256UUID[:]) {
			return NewFormatError("cipher", offset, ErrInvalidCipher)
		}
		h.Cipher = CipherAES256
	case headerFieldCompression:
		if len(value) != 4 {
			return NewFormatError("compression", offset, ErrInvalidCompression)
		}
		c := Compression(binary.LittleEndian.Uint32(value))
		if c != CompressionNone && c != CompressionGZip {
			return NewFormatError("compression", offset, ErrInvalidCompression)
		}
		h.Compression = c
	case headerFieldMasterSeed:
		h.MasterSeed = value
	case headerFieldTransformSeed:
		h.TransformSeed = value
	case headerFieldTransformRounds:
		if len(value) != 8 {
			return NewFormatError("transform_rounds", offset, ErrMalformedHeader)
		}
		h.TransformRounds = binary.LittleEndian.Uint64(value)
	case headerFieldEncryptionIV:
		h.EncryptionIV = value
	case headerFieldProtectedKey:
		h.ProtectedStreamKey = value
	case headerFieldStreamStart:
		h.StreamStartBytes = value
	case headerFieldInnerCipher:
		if len(value) != 4 {
			return NewFormatError("inner_stream_cipher", offset, ErrInvalidStreamCipher)
		}
		sc := StreamCipher(binary.LittleEndian.Uint32(value))
		if sc != StreamCipherSalsa20 {
			return NewFormatError("inner_stream_cipher", offset, ErrInvalidStreamCipher)
		}
		h.InnerStreamCipher = sc
	default:
		return NewFormatError(fmt.Sprintf("field %d", id), offset, ErrUnhandledField)
	}
	return nil
}

// validate checks that every mandatory field arrived with the right
// size. The terminator's own payload is intentionally not inspected;
// per the open question in the design notes, any content is accepted
// and ignored.
func (h *fileHeader) validate() error {
	if h.TransformRounds == 0 {
		return NewFormatError("transform_rounds", 0, ErrMalformedHeader)
	}
	fields := []struct {
		name string
		buf  []byte
		size int
	}{
		{"master_seed", h.MasterSeed, 32},
		{"transform_seed", h.TransformSeed, 32},
		{"encryption_iv", h.EncryptionIV, 16},
		{"protected_stream_key", h.ProtectedStreamKey, 32},
		{"stream_start_bytes", h.StreamStartBytes, 32},
	}
	for _, f := range fields {
		if err := validateFixedSize(f.buf, f.name, f.size); err != nil {
			return err
		}
	}
	return nil
}

// writeTo serializes the header in the same field order readFileHeader
// expects, finishing with the id=0 terminator.
func (h *fileHeader) writeTo(w io.Writer) error {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, sig1)
	binary.Write(buf, binary.LittleEndian, sig2)
	binary.Write(buf, binary.LittleEndian, h.MinorVersion)
	binary.Write(buf, binary.LittleEndian, h.MajorVersion)

	writeField(buf, headerFieldCipherID, cipherAES256UUID[:])

	compression := make([]byte, 4)
	binary.LittleEndian.PutUint32(compression, uint32(h.Compression))
	writeField(buf, headerFieldCompression, compression)

	writeField(buf, headerFieldMasterSeed, h.MasterSeed)
	writeField(buf, headerFieldTransformSeed, h.TransformSeed)

	rounds := make([]byte, 8)
	binary.LittleEndian.PutUint64(rounds, h.TransformRounds)
	writeField(buf, headerFieldTransformRounds, rounds)

	writeField(buf, headerFieldEncryptionIV, h.EncryptionIV)
	writeField(buf, headerFieldProtectedKey, h.ProtectedStreamKey)
	writeField(buf, headerFieldStreamStart, h.StreamStartBytes)

	innerCipher := make([]byte, 4)
	binary.LittleEndian.PutUint32(innerCipher, uint32(StreamCipherSalsa20))
	writeField(buf, headerFieldInnerCipher, innerCipher)

	writeField(buf, headerFieldEnd, []byte{0x0D, 0x0A, 0x0D, 0x0A})

	if _, err := w.Write(buf.Bytes()); err != nil {
		return NewIOError("write", err)
	}
	return nil
}

func writeField(buf *bytes.Buffer, id uint8, value []byte) {
	binary.Write(buf, binary.LittleEndian, id)
	binary.Write(buf, binary.LittleEndian, uint16(len(value)))
	buf.Write(value)
}
