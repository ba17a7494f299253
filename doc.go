// Package kdbx reads and writes KeePass 2 / KeePassX password database
// files in the .kdbx version 3.x format.
//
// # Overview
//
// kdbx lets a caller construct a fresh in-memory database, open an
// existing encrypted .kdbx file given a composite key (password and/or
// key file), walk and mutate the logical tree of groups and entries, and
// serialize the result back to a .kdbx container.
//
// # Supported Format
//
// - KDBX version 3.x only (minor version is informational, major version
//   must be 3). KeePass 1 (.kdb) and KDBX version 4 (AES-KDF/Argon2,
//   inner header) are explicit non-goals; Open rejects any file whose
//   major version is not 3.
// - Cipher: AES-256-CBC with PKCS#7 padding (the only cipher v3 supports).
// - Key derivation: AES-256-ECB "transform rounds" over the composite key,
//   seeded and salted per file (not a modern memory-hard KDF -- this is
//   mandated by the v3 wire format, not a design choice made here).
// - Inner protected-value stream: Salsa20, keyed from a per-file seed.
// - Optional gzip compression of the XML payload.
//
// # Basic Usage
//
//	key, err := kdbx.NewCompositeKeyFromPassword("correct horse")
//	if err != nil {
//	    panic(err)
//	}
//
//	db := kdbx.New(key)
//	email := db.Root.AddGroup("Email")
//	email.AddEntry(kdbx.NewEntry()).SetTitle("ProtonMail").SetUserName("me")
//
//	var buf bytes.Buffer
//	if err := db.Save(&buf); err != nil {
//	    panic(err)
//	}
//
//	reopened, err := kdbx.Open(&buf, key)
//	if err != nil {
//	    panic(err) // kdbx.ErrInvalidKey on wrong password/key file
//	}
//
// # File Format
//
// A .kdbx v3 file on disk looks like:
//
//	Magic (8 bytes): 0x9AA2D903 0xB54BFB67
//	Version (4 bytes): minor uint16, major uint16 (must be 3)
//	TLV header fields (id:u8, len:u16, value) terminated by id=0
//	AES-256-CBC ciphertext of:
//	    StreamStartBytes (32 bytes, wrong-password sentinel)
//	    Blocks: (id:u32, sha256:32, size:u32, data[size])* then a
//	        zero-size/zero-hash terminator block
//	  ...where the concatenated block data is, optionally, gzip-compressed
//	  XML describing Meta, the group/entry tree, and Times/History.
//
// # Security Considerations
//
// Protected against: unauthorized reading of an exported .kdbx file
// without the composite key; tampering with the ciphertext becoming
// detectable via block-hash or wrong-password mismatch (not a MAC --
// v3 has none beyond the implicit per-block SHA-256 and the stream-start
// sentinel).
//
// Not protected against: weak passwords (the KDF is not memory-hard by
// format mandate), secrets left in process memory after a caller reads
// them out of a SecureString, compromised hosts.
package kdbx
