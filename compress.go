package kdbx

import (
	"bytes"
	"compress/gzip"
	"io"
)

// compressPayload gzips data when compression is requested; otherwise
// it returns data unchanged (§4.6).
func compressPayload(data []byte, c Compression) ([]byte, error) {
	if c != CompressionGZip {
		return data, nil
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, NewCryptoError("compress", ErrCompression)
	}
	if err := gz.Close(); err != nil {
		return nil, NewCryptoError("compress", ErrCompression)
	}
	return buf.Bytes(), nil
}

// decompressPayload inflates data when compression is in effect;
// otherwise it returns data unchanged.
func decompressPayload(data []byte, c Compression) ([]byte, error) {
	if c != CompressionGZip {
		return data, nil
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, NewCryptoError("decompress", ErrDecompression)
	}
	defer gz.Close()
	out, err := io.ReadAll(gz)
	if err != nil {
		return nil, NewCryptoError("decompress", ErrDecompression)
	}
	return out, nil
}
