package kdbx

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"io"
	"strings"
)

// KeyFile is the decoded form of any of the three accepted key-file
// shapes (§4.2). Only the 32 raw key bytes survive decoding; the
// original shape is not preserved, since Save always re-emits the XML
// form regardless of how the file was opened.
type KeyFile struct {
	key [32]byte
}

// keyFileXML mirrors the <KeyFile><Key><Data>...</Data></Key></KeyFile>
// document Save emits and Open's XML branch parses.
type keyFileXML struct {
	XMLName xml.Name `xml:"KeyFile"`
	Key     struct {
		Data string `xml:"Data"`
	} `xml:"Key"`
}

// OpenKeyFile reads and classifies r's content per §4.2: XML, raw
// 32-byte binary, 64-char hex, or (fallback) SHA-256 of the whole file.
func OpenKeyFile(r io.Reader) (*KeyFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewKeyFileError("", err)
	}

	if kf, ok := tryParseXMLKeyFile(data); ok {
		return kf, nil
	}
	if len(data) == 32 {
		var kf KeyFile
		copy(kf.key[:], data)
		return &kf, nil
	}
	if len(data) == 64 {
		if decoded, ok := tryParseHexKeyFile(data); ok {
			return decoded, nil
		}
	}

	sum := sha256.Sum256(data)
	return &KeyFile{key: sum}, nil
}

func tryParseXMLKeyFile(data []byte) (*KeyFile, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return nil, false
	}
	var doc keyFileXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(doc.Key.Data))
	if err != nil || len(raw) != 32 {
		return nil, false
	}
	var kf KeyFile
	copy(kf.key[:], raw)
	return &kf, true
}

func tryParseHexKeyFile(data []byte) (*KeyFile, bool) {
	raw := make([]byte, 32)
	if _, err := hex.Decode(raw, data); err != nil {
		return nil, false
	}
	var kf KeyFile
	copy(kf.key[:], raw)
	return &kf, true
}

// Save always writes shape (1): the XML key file.
func (kf *KeyFile) Save(w io.Writer) error {
	doc := keyFileXML{}
	doc.Key.Data = base64.StdEncoding.EncodeToString(kf.key[:])

	out, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return NewKeyFileError("", err)
	}
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return NewIOError("write", err)
	}
	if _, err := w.Write(out); err != nil {
		return NewIOError("write", err)
	}
	return nil
}

// keyBytes returns the 32 raw key bytes.
func (kf *KeyFile) keyBytes() ([]byte, error) {
	if kf == nil {
		return nil, ErrInvalidKeyFile
	}
	b := make([]byte, 32)
	copy(b, kf.key[:])
	return b, nil
}
