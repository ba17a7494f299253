package kdbx

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"strings"

	"github.com/google/uuid"
)

// New synthesizes a fresh in-memory database unlocked by key: a
// generator string, the current time for every Changed field, a new
// root group named "Root" with a fresh UUID, and empty meta tables
// (§4.9). Compression and transform rounds default to opts's values,
// or the package defaults if opts is the zero value.
func New(key *CompositeKey, opts ...DBOptions) *Database {
	o := DBOptions{}
	if len(opts) > 0 {
		o = opts[0]
	}

	meta := NewMeta()
	root := &Group{
		UUID:  uuid.New(),
		Name:  "Root",
		Times: NewTimes(),
	}

	return &Database{
		Cipher:          CipherAES256,
		Compression:     o.Compression,
		TransformRounds: o.transformRounds(),
		StreamCipher:    StreamCipherSalsa20,
		Meta:            &meta,
		Root:            root,
		key:             key,
	}
}

// Open executes §4.3 -> §4.4 -> AES decrypt -> §4.5 -> §4.6 -> §4.7 +
// §4.8 in order, returning the decoded Database or an error. r is
// consumed end-to-end; the library does not seek or retry.
func Open(r io.Reader, key *CompositeKey) (*Database, error) {
	if err := validateCompositeKey(key); err != nil {
		return nil, err
	}

	header, _, err := readFileHeader(r)
	if err != nil {
		return nil, err
	}

	masterKey, err := deriveMasterKey(key.Bytes(), header.MasterSeed, header.TransformSeed, header.TransformRounds)
	if err != nil {
		return nil, err
	}
	defer zero(masterKey)

	ciphertext, err := io.ReadAll(r)
	if err != nil {
		return nil, NewIOError("read", err)
	}

	plaintext, err := cbcDecrypt(masterKey, header.EncryptionIV, ciphertext)
	if err != nil {
		return nil, err
	}

	if len(plaintext) < 32 || !bytes.Equal(plaintext[:32], header.StreamStartBytes) {
		return nil, NewCryptoError("decrypt", ErrInvalidKey)
	}

	framed, err := decomposeBlocks(plaintext[32:])
	if err != nil {
		return nil, err
	}

	inflated, err := decompressPayload(framed, header.Compression)
	if err != nil {
		return nil, err
	}

	ps := newProtectedStream(header.ProtectedStreamKey)
	meta, root, deletedObjectsXML, err := decodeXML(inflated, ps)
	if err != nil {
		return nil, err
	}

	if err := verifyBinaryRefs(root, meta.Binaries); err != nil {
		return nil, err
	}

	db := &Database{
		Cipher:            CipherAES256,
		Compression:       header.Compression,
		TransformRounds:   header.TransformRounds,
		StreamCipher:      StreamCipherSalsa20,
		Meta:              meta,
		Root:              root,
		key:               key,
		deletedObjectsXML: deletedObjectsXML,
	}
	return db, nil
}

// verifyBinaryRefs checks that every binary reference an entry (or its
// history) carries resolves in pool, per §8's binary-pool invariant.
func verifyBinaryRefs(g *Group, pool map[int][]byte) error {
	for _, e := range g.Entries {
		if err := verifyEntryBinaryRefs(e, pool); err != nil {
			return err
		}
	}
	for _, child := range g.Groups {
		if err := verifyBinaryRefs(child, pool); err != nil {
			return err
		}
	}
	return nil
}

func verifyEntryBinaryRefs(e *Entry, pool map[int][]byte) error {
	for _, b := range e.Binaries {
		if _, ok := pool[b.ID]; !ok {
			return ErrUnresolvedBinaryRef
		}
	}
	for _, old := range e.History {
		if err := verifyEntryBinaryRefs(old, pool); err != nil {
			return err
		}
	}
	return nil
}

// Save regenerates master seed, transform seed, IV, stream-start
// bytes, and protected-stream key from crypto/rand and serializes the
// database in reverse order of Open (§4.9, §9's "always regenerate"
// rule -- secrets read during a prior Open are never reused).
func (db *Database) Save(w io.Writer) error {
	if err := validateCompositeKey(db.key); err != nil {
		return err
	}

	masterSeed, err := randomBytes(32)
	if err != nil {
		return err
	}
	transformSeed, err := randomBytes(32)
	if err != nil {
		return err
	}
	iv, err := randomBytes(16)
	if err != nil {
		return err
	}
	streamStart, err := randomBytes(32)
	if err != nil {
		return err
	}
	protectedStreamKey, err := randomBytes(32)
	if err != nil {
		return err
	}

	header := &fileHeader{
		MinorVersion:       1,
		MajorVersion:       3,
		Cipher:             CipherAES256,
		Compression:        db.Compression,
		MasterSeed:         masterSeed,
		TransformSeed:      transformSeed,
		TransformRounds:    db.TransformRounds,
		EncryptionIV:       iv,
		ProtectedStreamKey: protectedStreamKey,
		StreamStartBytes:   streamStart,
		InnerStreamCipher:  StreamCipherSalsa20,
	}
	if header.TransformRounds == 0 {
		header.TransformRounds = DefaultTransformRounds
	}

	ps := newProtectedStream(protectedStreamKey)
	xmlPayload, err := encodeXML(db.Meta, db.Root, db.deletedObjectsXML, ps)
	if err != nil {
		return err
	}

	compressed, err := compressPayload(xmlPayload, db.Compression)
	if err != nil {
		return err
	}

	framed := composeBlocks(compressed)
	plaintext := append(append([]byte{}, streamStart...), framed...)

	masterKey, err := deriveMasterKey(db.key.Bytes(), masterSeed, transformSeed, header.TransformRounds)
	if err != nil {
		return err
	}
	defer zero(masterKey)

	ciphertext, err := cbcEncrypt(masterKey, iv, plaintext)
	if err != nil {
		return err
	}

	if err := header.writeTo(w); err != nil {
		return err
	}
	if _, err := w.Write(ciphertext); err != nil {
		return NewIOError("write", err)
	}

	db.TransformRounds = header.TransformRounds
	db.masterSeed = masterSeed
	db.transformSeed = transformSeed
	db.encryptionIV = iv
	db.streamStartBytes = streamStart
	db.protectedStreamKey = protectedStreamKey
	return nil
}

// Rekey replaces the composite key used for subsequent Saves. The
// file is only re-encrypted under newKey the next time Save runs;
// Rekey itself performs no I/O.
func (db *Database) Rekey(newKey *CompositeKey) error {
	if err := validateCompositeKey(newKey); err != nil {
		return err
	}
	db.key = newKey
	return nil
}

// ReEncrypt opens r under oldKey and saves the result to w under
// newKey in one step; a convenience wrapper around Open+Rekey+Save for
// callers rotating a database's key without keeping a Database value
// around themselves.
func ReEncrypt(r io.Reader, w io.Writer, oldKey, newKey *CompositeKey) error {
	db, err := Open(r, oldKey)
	if err != nil {
		return err
	}
	if err := db.Rekey(newKey); err != nil {
		return err
	}
	return db.Save(w)
}

// Verify reports whether key unlocks the database in r, without
// returning the decoded tree. It consumes r end-to-end like Open.
func Verify(r io.Reader, key *CompositeKey) error {
	_, err := Open(r, key)
	return err
}

// GetGroup performs a depth-first traversal of the tree and returns
// the group with the given UUID, or nil if absent.
func (db *Database) GetGroup(id uuid.UUID) *Group {
	return findGroup(db.Root, id)
}

func findGroup(g *Group, id uuid.UUID) *Group {
	if g.UUID == id {
		return g
	}
	for _, child := range g.Groups {
		if found := findGroup(child, id); found != nil {
			return found
		}
	}
	return nil
}

// GetEntry performs a depth-first traversal of the tree and returns
// the entry with the given UUID, or nil if absent.
func (db *Database) GetEntry(id uuid.UUID) *Entry {
	return findEntry(db.Root, id)
}

func findEntry(g *Group, id uuid.UUID) *Entry {
	for _, e := range g.Entries {
		if e.UUID == id {
			return e
		}
	}
	for _, child := range g.Groups {
		if found := findEntry(child, id); found != nil {
			return found
		}
	}
	return nil
}

// FindGroups returns every group whose Name contains substr,
// case-insensitively.
func (db *Database) FindGroups(substr string) []*Group {
	var out []*Group
	collectGroups(db.Root, strings.ToLower(substr), &out)
	return out
}

func collectGroups(g *Group, needle string, out *[]*Group) {
	if strings.Contains(strings.ToLower(g.Name), needle) {
		*out = append(*out, g)
	}
	for _, child := range g.Groups {
		collectGroups(child, needle, out)
	}
}

// FindEntries returns every entry whose Title contains substr,
// case-insensitively.
func (db *Database) FindEntries(substr string) []*Entry {
	var out []*Entry
	needle := strings.ToLower(substr)
	collectEntries(db.Root, needle, &out)
	return out
}

func collectEntries(g *Group, needle string, out *[]*Entry) {
	for _, e := range g.Entries {
		if strings.Contains(strings.ToLower(e.Title()), needle) {
			*out = append(*out, e)
		}
	}
	for _, child := range g.Groups {
		collectEntries(child, needle, out)
	}
}

// AddBinary stores data in the database's binary pool and returns the
// ID entries reference it by.
func (db *Database) AddBinary(data []byte) int {
	if db.Meta.Binaries == nil {
		db.Meta.Binaries = map[int][]byte{}
	}
	id := 0
	for existing := range db.Meta.Binaries {
		if existing >= id {
			id = existing + 1
		}
	}
	db.Meta.Binaries[id] = data
	return id
}

// GetBinary returns the blob stored under id, or nil, false if absent.
func (db *Database) GetBinary(id int) ([]byte, bool) {
	b, ok := db.Meta.Binaries[id]
	return b, ok
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, NewCryptoError("random", err)
	}
	return b, nil
}

func cbcEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewCryptoError("encrypt", err)
	}
	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func cbcDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewCryptoError("decrypt", err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, NewCryptoError("decrypt", ErrInvalidKey)
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, NewCryptoError("decrypt", ErrInvalidKey)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, NewCryptoError("decrypt", ErrInvalidKey)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, NewCryptoError("decrypt", ErrInvalidKey)
		}
	}
	return data[:len(data)-padLen], nil
}
