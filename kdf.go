package kdbx

import (
	"crypto/aes"
	"crypto/sha256"
)

// deriveMasterKey implements §4.4: the composite key is stretched by
// repeated AES-256-ECB encryption under the header's transform seed,
// then folded together with the master seed.
//
// composite is treated as two 16-byte halves; each round encrypts both
// halves in place under transformSeed, with no padding and no IV (ECB
// mode, one block at a time). This is mandated by the v3 wire format,
// not a design choice made here -- it predates memory-hard KDFs.
func deriveMasterKey(composite, masterSeed, transformSeed []byte, rounds uint64) ([]byte, error) {
	if len(composite) != 32 {
		return nil, NewCryptoError("derive", ErrInvalidKey)
	}
	if len(transformSeed) != 32 {
		return nil, NewCryptoError("derive", ErrCannotDeriveKey)
	}

	block, err := aes.NewCipher(transformSeed)
	if err != nil {
		return nil, NewCryptoError("derive", err)
	}

	transformed := make([]byte, 32)
	copy(transformed, composite)
	left, right := transformed[:16], transformed[16:]

	for i := uint64(0); i < rounds; i++ {
		block.Encrypt(left, left)
		block.Encrypt(right, right)
	}

	transformedHash := sha256.Sum256(transformed)
	zero(transformed)

	h := sha256.New()
	h.Write(masterSeed)
	h.Write(transformedHash[:])
	return h.Sum(nil), nil
}
