package kdbx

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Cipher identifies the payload cipher named in the header. Only AES256
// is accepted by this library; the field exists so header.go has
// somewhere to decode the TLV cipher UUID into.
type Cipher uint8

const (
	CipherAES256 Cipher = iota
)

// Compression identifies the header's compression flag.
type Compression uint32

const (
	CompressionNone Compression = 0
	CompressionGZip Compression = 1
)

// StreamCipher identifies the inner protected-value stream cipher.
type StreamCipher uint32

const (
	StreamCipherSalsa20 StreamCipher = 2
)

// Trit is a three-valued flag used by Group.EnableAutoType/EnableSearching,
// which distinguish "on", "off", and "inherit from parent" rather than a
// plain bool.
type Trit uint8

const (
	TritInherit Trit = iota
	TritTrue
	TritFalse
)

// DBOptions carries the knobs New accepts. Open takes no options; it
// uses the values in the file's own header. The zero value selects the
// documented defaults.
type DBOptions struct {
	// TransformRounds is used by New as the initial key-stretching cost;
	// Open always uses the value read from the file's own header.
	// Zero selects DefaultTransformRounds.
	TransformRounds uint64

	// Compression is used by New to select the payload compression
	// applied on the first Save. Open always uses the value read from
	// the file's own header.
	Compression Compression
}

// DefaultTransformRounds is used by New and by a zero-value DBOptions.
const DefaultTransformRounds = 60000

// Validate reports whether o is usable. A zero-value DBOptions is
// always valid; this only rejects impossible combinations a caller
// assembled by hand.
func (o *DBOptions) Validate() error {
	if o == nil {
		return errors.New("kdbx: options cannot be nil")
	}
	if o.Compression != CompressionNone && o.Compression != CompressionGZip {
		return ErrInvalidCompression
	}
	return nil
}

func (o DBOptions) transformRounds() uint64 {
	if o.TransformRounds == 0 {
		return DefaultTransformRounds
	}
	return o.TransformRounds
}

// Times is the standard timestamp record attached to every Group and
// Entry. All fields are UTC.
type Times struct {
	CreationTime         time.Time
	LastModificationTime time.Time
	LastAccessTime       time.Time
	ExpiryTime           time.Time
	Expires              bool
	UsageCount           int
	LocationChanged      time.Time
}

// NewTimes returns a Times with every timestamp set to now and
// Expires false. The wire format only carries seconds, so now is
// truncated to second precision to round-trip exactly through Save/Open.
func NewTimes() Times {
	now := time.Now().UTC().Truncate(time.Second)
	return Times{
		CreationTime:         now,
		LastModificationTime: now,
		LastAccessTime:       now,
		ExpiryTime:           now,
		Expires:              false,
		UsageCount:           0,
		LocationChanged:      now,
	}
}

// StringValue is the {Plain, Protected} sum type for entry string
// fields. Exactly one of Plain/Secret is meaningful, selected by
// Protected. Kept as an explicit tagged variant (not folded into a
// generic secure buffer) because the XML writer needs the distinction
// to decide whether to emit Protected="True", and re-keying the
// protected stream depends on it.
type StringValue struct {
	Protected bool
	Plain     string
	Secret    *SecureString
}

// NewPlainValue returns an unprotected StringValue.
func NewPlainValue(s string) StringValue {
	return StringValue{Plain: s}
}

// NewProtectedValue returns a protected StringValue holding s in a
// SecureString.
func NewProtectedValue(s string) StringValue {
	return StringValue{Protected: true, Secret: NewSecureString([]byte(s))}
}

// String returns the value's plaintext regardless of protection. For a
// protected value this reads through the SecureString.
func (v StringValue) String() string {
	if !v.Protected {
		return v.Plain
	}
	if v.Secret == nil {
		return ""
	}
	return string(v.Secret.Bytes())
}

// BinaryRef is an entry's reference to a database-level binary
// attachment.
type BinaryRef struct {
	Key string
	ID  int
}

// AutoTypeAssociation pairs a target window title with an auto-type
// keystroke sequence.
type AutoTypeAssociation struct {
	Window   string
	Sequence string
}

// AutoType is an entry's auto-type configuration.
type AutoType struct {
	Enabled                 bool
	DataTransferObfuscation int
	DefaultSequence         string
	Associations            []AutoTypeAssociation
}

// Group is a tree node. UUID is the stable identity; ParentUUID is
// informational and recomputed on load, per the tree-ownership design
// (parent pointers are a convenience, not the source of truth).
type Group struct {
	UUID                uuid.UUID
	Name                string
	Notes               string
	IconID              int
	CustomIconUUID      uuid.UUID
	Times               Times
	IsExpanded          bool
	DefaultAutoTypeSeq  string
	EnableAutoType      Trit
	EnableSearching     Trit
	LastTopVisibleEntry uuid.UUID
	ParentUUID          uuid.UUID

	Groups  []*Group
	Entries []*Entry
}

// Entry is a leaf record. UUID is the stable identity.
type Entry struct {
	UUID            uuid.UUID
	IconID          int
	CustomIconUUID  uuid.UUID
	ForegroundColor string
	BackgroundColor string
	OverrideURL     string
	Tags            []string
	Times           Times
	ParentUUID      uuid.UUID

	Strings     map[string]StringValue
	stringOrder []string
	Binaries    []BinaryRef
	AutoType    AutoType
	History     []*Entry
}

// Well-known string field keys addressed by Entry's convenience
// getters/setters.
const (
	FieldTitle    = "Title"
	FieldUserName = "UserName"
	FieldPassword = "Password"
	FieldURL      = "URL"
	FieldNotes    = "Notes"
)

// CustomIcon is one entry of Meta.CustomIcons.
type CustomIcon struct {
	UUID uuid.UUID
	Data []byte
}

// MemoryProtection records which well-known string fields are
// protected by default for newly created entries.
type MemoryProtection struct {
	Title    bool
	UserName bool
	Password bool
	URL      bool
	Notes    bool
}

// DefaultMemoryProtection matches KeePass's own defaults: only the
// password is protected.
func DefaultMemoryProtection() MemoryProtection {
	return MemoryProtection{Password: true}
}

// Meta is database-wide metadata.
type Meta struct {
	Generator                  string
	DatabaseName               string
	DatabaseNameChanged        time.Time
	DatabaseDescription        string
	DatabaseDescriptionChanged time.Time
	DefaultUserName            string
	DefaultUserNameChanged     time.Time
	MaintenanceHistoryDays     int
	Color                      string
	MasterKeyChanged           time.Time
	MasterKeyChangeRec         int
	MasterKeyChangeForce       int
	MemoryProtection           MemoryProtection
	CustomIcons                []CustomIcon
	RecycleBinEnabled          bool
	RecycleBinUUID             uuid.UUID
	RecycleBinChanged          time.Time
	EntryTemplatesGroupUUID    uuid.UUID
	EntryTemplatesGroupChanged time.Time
	LastSelectedGroupUUID      uuid.UUID
	LastTopVisibleGroupUUID    uuid.UUID
	HistoryMaxItems            int
	HistoryMaxSize             int
	CustomData                 map[string]string

	// Binaries is the database's binary pool, serialized under
	// Meta/Binaries. Database.AddBinary adds to it and entries refer to
	// its blobs by ID through BinaryRef.
	Binaries map[int][]byte
}

// DefaultHistoryMaxItems/DefaultHistoryMaxSize match KeePass's own
// defaults and are used by NewMeta.
const (
	DefaultHistoryMaxItems = 10
	DefaultHistoryMaxSize  = 6 * 1024 * 1024
)

// NewMeta returns the defaults Database.New synthesizes: generator
// name, current time for every Changed field, default memory
// protection, empty tables. Timestamps are truncated to second
// precision to match the wire format and round-trip exactly.
func NewMeta() Meta {
	now := time.Now().UTC().Truncate(time.Second)
	return Meta{
		Generator:                  "kdbx",
		DatabaseNameChanged:        now,
		DatabaseDescriptionChanged: now,
		DefaultUserNameChanged:     now,
		MaintenanceHistoryDays:     365,
		MasterKeyChanged:           now,
		MasterKeyChangeRec:         -1,
		MasterKeyChangeForce:       -1,
		MemoryProtection:           DefaultMemoryProtection(),
		RecycleBinEnabled:          true,
		RecycleBinChanged:          now,
		EntryTemplatesGroupChanged: now,
		HistoryMaxItems:            DefaultHistoryMaxItems,
		HistoryMaxSize:             DefaultHistoryMaxSize,
		CustomData:                 map[string]string{},
		Binaries:                   map[int][]byte{},
	}
}

// Database is the root aggregate: format parameters, per-save secrets,
// Meta, and the mandatory root group.
type Database struct {
	Cipher          Cipher
	Compression     Compression
	TransformRounds uint64
	StreamCipher    StreamCipher

	// Per-save secrets. Regenerated from crypto/rand on every Save;
	// never reused across saves, never serialized except inside the
	// header/payload they protect.
	masterSeed         []byte
	transformSeed      []byte
	encryptionIV       []byte
	streamStartBytes   []byte
	protectedStreamKey []byte

	Meta *Meta
	Root *Group

	key *CompositeKey

	deletedObjectsXML []byte
}
