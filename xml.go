package kdbx

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

const timeLayout = "2006-01-02T15:04:05Z"

// The reader is deliberately tolerant of unknown elements and missing
// optional elements: encoding/xml already skips any element with no
// matching struct field, and every optional field below has a
// documented zero value, so no extra bookkeeping is needed to satisfy
// that requirement.

type kpFile struct {
	XMLName xml.Name `xml:"KeePassFile"`
	Meta    xmlMeta  `xml:"Meta"`
	Root    xmlRoot  `xml:"Root"`
}

type xmlRoot struct {
	Group          xmlGroup `xml:"Group"`
	DeletedObjects rawXML   `xml:"DeletedObjects"`
}

// rawXML preserves an element's inner content verbatim across a
// round trip without this library understanding its schema.
type rawXML struct {
	Inner string `xml:",innerxml"`
}

type xmlMemoryProtection struct {
	Title    string `xml:"ProtectTitle"`
	UserName string `xml:"ProtectUserName"`
	Password string `xml:"ProtectPassword"`
	URL      string `xml:"ProtectURL"`
	Notes    string `xml:"ProtectNotes"`
}

type xmlCustomIcon struct {
	UUID string `xml:"UUID"`
	Data string `xml:"Data"`
}

type xmlCustomDataItem struct {
	Key   string `xml:"Key"`
	Value string `xml:"Value"`
}

type xmlMetaBinary struct {
	ID         int    `xml:"ID,attr"`
	Compressed string `xml:"Compressed,attr,omitempty"`
	Text       string `xml:",chardata"`
}

type xmlMeta struct {
	Generator                  string              `xml:"Generator"`
	DatabaseName               string              `xml:"DatabaseName"`
	DatabaseNameChanged        string              `xml:"DatabaseNameChanged"`
	DatabaseDescription        string              `xml:"DatabaseDescription"`
	DatabaseDescriptionChanged string              `xml:"DatabaseDescriptionChanged"`
	DefaultUserName            string              `xml:"DefaultUserName"`
	DefaultUserNameChanged     string              `xml:"DefaultUserNameChanged"`
	MaintenanceHistoryDays     int                 `xml:"MaintenanceHistoryDays"`
	Color                      string              `xml:"Color"`
	MasterKeyChanged           string              `xml:"MasterKeyChanged"`
	MasterKeyChangeRec         int                 `xml:"MasterKeyChangeRec"`
	MasterKeyChangeForce       int                 `xml:"MasterKeyChangeForce"`
	MemoryProtection           xmlMemoryProtection `xml:"MemoryProtection"`
	CustomIcons                []xmlCustomIcon     `xml:"CustomIcons>Icon"`
	RecycleBinEnabled          string              `xml:"RecycleBinEnabled"`
	RecycleBinUUID             string              `xml:"RecycleBinUUID"`
	RecycleBinChanged          string              `xml:"RecycleBinChanged"`
	EntryTemplatesGroup        string              `xml:"EntryTemplatesGroup"`
	EntryTemplatesGroupChanged string              `xml:"EntryTemplatesGroupChanged"`
	LastSelectedGroup          string              `xml:"LastSelectedGroup"`
	LastTopVisibleGroup        string              `xml:"LastTopVisibleGroup"`
	HistoryMaxItems            int                 `xml:"HistoryMaxItems"`
	HistoryMaxSize             int                 `xml:"HistoryMaxSize"`
	Binaries                   []xmlMetaBinary     `xml:"Binaries>Binary"`
	CustomData                 []xmlCustomDataItem `xml:"CustomData>Item"`
}

type xmlTimes struct {
	CreationTime         string `xml:"CreationTime"`
	LastModificationTime string `xml:"LastModificationTime"`
	LastAccessTime       string `xml:"LastAccessTime"`
	ExpiryTime           string `xml:"ExpiryTime"`
	Expires              string `xml:"Expires"`
	UsageCount           int    `xml:"UsageCount"`
	LocationChanged      string `xml:"LocationChanged"`
}

type xmlValue struct {
	Protected string `xml:"Protected,attr,omitempty"`
	Text      string `xml:",chardata"`
}

type xmlString struct {
	Key   string   `xml:"Key"`
	Value xmlValue `xml:"Value"`
}

type xmlBinaryRef struct {
	Ref string `xml:"Ref,attr"`
}

type xmlEntryBinary struct {
	Key   string       `xml:"Key"`
	Value xmlBinaryRef `xml:"Value"`
}

type xmlAutoTypeAssoc struct {
	Window            string `xml:"Window"`
	KeystrokeSequence string `xml:"KeystrokeSequence"`
}

type xmlAutoType struct {
	Enabled                 string             `xml:"Enabled"`
	DataTransferObfuscation int                `xml:"DataTransferObfuscation"`
	DefaultSequence         string             `xml:"DefaultSequence,omitempty"`
	Association             []xmlAutoTypeAssoc `xml:"Association"`
}

type xmlHistory struct {
	Entries []xmlEntry `xml:"Entry"`
}

type xmlEntry struct {
	UUID            string           `xml:"UUID"`
	IconID          int              `xml:"IconID"`
	CustomIconUUID  string           `xml:"CustomIconUUID,omitempty"`
	ForegroundColor string           `xml:"ForegroundColor"`
	BackgroundColor string           `xml:"BackgroundColor"`
	OverrideURL     string           `xml:"OverrideURL"`
	Tags            string           `xml:"Tags"`
	Times           xmlTimes         `xml:"Times"`
	Strings         []xmlString      `xml:"String"`
	Binaries        []xmlEntryBinary `xml:"Binary"`
	AutoType        xmlAutoType      `xml:"AutoType"`
	History         *xmlHistory      `xml:"History,omitempty"`
}

type xmlGroup struct {
	UUID                    string     `xml:"UUID"`
	Name                    string     `xml:"Name"`
	Notes                   string     `xml:"Notes"`
	IconID                  int        `xml:"IconID"`
	CustomIconUUID          string     `xml:"CustomIconUUID,omitempty"`
	Times                   xmlTimes   `xml:"Times"`
	IsExpanded              string     `xml:"IsExpanded"`
	DefaultAutoTypeSequence string     `xml:"DefaultAutoTypeSequence"`
	EnableAutoType          string     `xml:"EnableAutoType"`
	EnableSearching         string     `xml:"EnableSearching"`
	LastTopVisibleEntry     string     `xml:"LastTopVisibleEntry"`
	Groups                  []xmlGroup `xml:"Group"`
	Entries                 []xmlEntry `xml:"Entry"`
}

// --- scalar conversions -----------------------------------------------

func boolToXML(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func xmlToBool(s string) bool {
	return s == "True"
}

func tritToXML(t Trit) string {
	switch t {
	case TritTrue:
		return "True"
	case TritFalse:
		return "False"
	default:
		return "null"
	}
}

func xmlToTrit(s string) Trit {
	switch s {
	case "True", "true":
		return TritTrue
	case "False", "false":
		return TritFalse
	default:
		return TritInherit
	}
}

func timeToXML(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func xmlToTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, NewFormatError("time", 0, ErrInvalidTimestamp)
	}
	return t, nil
}

func uuidToXML(u uuid.UUID) string {
	return base64.StdEncoding.EncodeToString(u[:])
}

func xmlToUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.UUID{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return uuid.UUID{}, NewFormatError("uuid", 0, ErrInvalidUUID)
	}
	if err := validateUUIDBytes(raw); err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], raw)
	return u, nil
}

func timesToXML(t Times) xmlTimes {
	return xmlTimes{
		CreationTime:         timeToXML(t.CreationTime),
		LastModificationTime: timeToXML(t.LastModificationTime),
		LastAccessTime:       timeToXML(t.LastAccessTime),
		ExpiryTime:           timeToXML(t.ExpiryTime),
		Expires:              boolToXML(t.Expires),
		UsageCount:           t.UsageCount,
		LocationChanged:      timeToXML(t.LocationChanged),
	}
}

func xmlToTimes(x xmlTimes) (Times, error) {
	var t Times
	var err error
	if t.CreationTime, err = xmlToTime(x.CreationTime); err != nil {
		return t, err
	}
	if t.LastModificationTime, err = xmlToTime(x.LastModificationTime); err != nil {
		return t, err
	}
	if t.LastAccessTime, err = xmlToTime(x.LastAccessTime); err != nil {
		return t, err
	}
	if t.ExpiryTime, err = xmlToTime(x.ExpiryTime); err != nil {
		return t, err
	}
	if t.LocationChanged, err = xmlToTime(x.LocationChanged); err != nil {
		return t, err
	}
	t.Expires = xmlToBool(x.Expires)
	t.UsageCount = x.UsageCount
	return t, nil
}

// --- Meta ---------------------------------------------------------------

func metaToXML(m *Meta) (xmlMeta, error) {
	x := xmlMeta{
		Generator:                  m.Generator,
		DatabaseName:               m.DatabaseName,
		DatabaseNameChanged:        timeToXML(m.DatabaseNameChanged),
		DatabaseDescription:        m.DatabaseDescription,
		DatabaseDescriptionChanged: timeToXML(m.DatabaseDescriptionChanged),
		DefaultUserName:            m.DefaultUserName,
		DefaultUserNameChanged:     timeToXML(m.DefaultUserNameChanged),
		MaintenanceHistoryDays:     m.MaintenanceHistoryDays,
		Color:                      m.Color,
		MasterKeyChanged:           timeToXML(m.MasterKeyChanged),
		MasterKeyChangeRec:         m.MasterKeyChangeRec,
		MasterKeyChangeForce:       m.MasterKeyChangeForce,
		MemoryProtection: xmlMemoryProtection{
			Title:    boolToXML(m.MemoryProtection.Title),
			UserName: boolToXML(m.MemoryProtection.UserName),
			Password: boolToXML(m.MemoryProtection.Password),
			URL:      boolToXML(m.MemoryProtection.URL),
			Notes:    boolToXML(m.MemoryProtection.Notes),
		},
		RecycleBinEnabled:          boolToXML(m.RecycleBinEnabled),
		RecycleBinUUID:             uuidToXML(m.RecycleBinUUID),
		RecycleBinChanged:          timeToXML(m.RecycleBinChanged),
		EntryTemplatesGroup:        uuidToXML(m.EntryTemplatesGroupUUID),
		EntryTemplatesGroupChanged: timeToXML(m.EntryTemplatesGroupChanged),
		LastSelectedGroup:          uuidToXML(m.LastSelectedGroupUUID),
		LastTopVisibleGroup:        uuidToXML(m.LastTopVisibleGroupUUID),
		HistoryMaxItems:            m.HistoryMaxItems,
		HistoryMaxSize:             m.HistoryMaxSize,
	}

	for _, icon := range m.CustomIcons {
		x.CustomIcons = append(x.CustomIcons, xmlCustomIcon{
			UUID: uuidToXML(icon.UUID),
			Data: base64.StdEncoding.EncodeToString(icon.Data),
		})
	}

	for _, id := range sortedIntKeys(m.Binaries) {
		x.Binaries = append(x.Binaries, xmlMetaBinary{
			ID:   id,
			Text: base64.StdEncoding.EncodeToString(m.Binaries[id]),
		})
	}

	for _, k := range sortedStringKeys(m.CustomData) {
		x.CustomData = append(x.CustomData, xmlCustomDataItem{Key: k, Value: m.CustomData[k]})
	}

	return x, nil
}

func xmlToMeta(x xmlMeta) (*Meta, error) {
	m := &Meta{
		Generator:              x.Generator,
		DatabaseName:           x.DatabaseName,
		DatabaseDescription:    x.DatabaseDescription,
		DefaultUserName:        x.DefaultUserName,
		MaintenanceHistoryDays: x.MaintenanceHistoryDays,
		Color:                  x.Color,
		MasterKeyChangeRec:     x.MasterKeyChangeRec,
		MasterKeyChangeForce:   x.MasterKeyChangeForce,
		MemoryProtection: MemoryProtection{
			Title:    xmlToBool(x.MemoryProtection.Title),
			UserName: xmlToBool(x.MemoryProtection.UserName),
			Password: xmlToBool(x.MemoryProtection.Password),
			URL:      xmlToBool(x.MemoryProtection.URL),
			Notes:    xmlToBool(x.MemoryProtection.Notes),
		},
		RecycleBinEnabled: xmlToBool(x.RecycleBinEnabled),
		HistoryMaxItems:   x.HistoryMaxItems,
		HistoryMaxSize:    x.HistoryMaxSize,
		CustomData:        map[string]string{},
		Binaries:          map[int][]byte{},
	}

	var err error
	if m.DatabaseNameChanged, err = xmlToTimeDefault(x.DatabaseNameChanged); err != nil {
		return nil, err
	}
	if m.DatabaseDescriptionChanged, err = xmlToTimeDefault(x.DatabaseDescriptionChanged); err != nil {
		return nil, err
	}
	if m.DefaultUserNameChanged, err = xmlToTimeDefault(x.DefaultUserNameChanged); err != nil {
		return nil, err
	}
	if m.MasterKeyChanged, err = xmlToTimeDefault(x.MasterKeyChanged); err != nil {
		return nil, err
	}
	if m.RecycleBinChanged, err = xmlToTimeDefault(x.RecycleBinChanged); err != nil {
		return nil, err
	}
	if m.EntryTemplatesGroupChanged, err = xmlToTimeDefault(x.EntryTemplatesGroupChanged); err != nil {
		return nil, err
	}
	if m.RecycleBinUUID, err = xmlToUUID(x.RecycleBinUUID); err != nil {
		return nil, err
	}
	if m.EntryTemplatesGroupUUID, err = xmlToUUID(x.EntryTemplatesGroup); err != nil {
		return nil, err
	}
	if m.LastSelectedGroupUUID, err = xmlToUUID(x.LastSelectedGroup); err != nil {
		return nil, err
	}
	if m.LastTopVisibleGroupUUID, err = xmlToUUID(x.LastTopVisibleGroup); err != nil {
		return nil, err
	}

	for _, icon := range x.CustomIcons {
		u, err := xmlToUUID(icon.UUID)
		if err != nil {
			return nil, err
		}
		data, err := base64.StdEncoding.DecodeString(icon.Data)
		if err != nil {
			return nil, NewFormatError("custom_icon", 0, ErrInvalidBase64)
		}
		m.CustomIcons = append(m.CustomIcons, CustomIcon{UUID: u, Data: data})
	}

	for _, b := range x.Binaries {
		raw, err := base64.StdEncoding.DecodeString(b.Text)
		if err != nil {
			return nil, NewFormatError("meta_binary", 0, ErrInvalidBase64)
		}
		if b.Compressed == "True" {
			raw, err = decompressPayload(raw, CompressionGZip)
			if err != nil {
				return nil, err
			}
		}
		m.Binaries[b.ID] = raw
	}

	for _, item := range x.CustomData {
		m.CustomData[item.Key] = item.Value
	}

	return m, nil
}

// xmlToTimeDefault parses a timestamp, substituting the current time
// when the element was absent (empty string), per the reader's
// "missing optional element -> documented default" tolerance.
func xmlToTimeDefault(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return xmlToTime(s)
}

// --- Group / Entry --------------------------------------------------------
//
// Conversion walks groups/entries/history in document order so the
// protected-stream cursor ps advances exactly once per protected
// value, in the same order on both the read and write paths (§4.7).

func groupToXML(g *Group, ps *protectedStream) xmlGroup {
	x := xmlGroup{
		UUID:                    uuidToXML(g.UUID),
		Name:                    g.Name,
		Notes:                   g.Notes,
		IconID:                  g.IconID,
		Times:                   timesToXML(g.Times),
		IsExpanded:              boolToXML(g.IsExpanded),
		DefaultAutoTypeSequence: g.DefaultAutoTypeSeq,
		EnableAutoType:          tritToXML(g.EnableAutoType),
		EnableSearching:         tritToXML(g.EnableSearching),
		LastTopVisibleEntry:     uuidToXML(g.LastTopVisibleEntry),
	}
	if g.CustomIconUUID != (uuid.UUID{}) {
		x.CustomIconUUID = uuidToXML(g.CustomIconUUID)
	}
	for _, child := range g.Groups {
		x.Groups = append(x.Groups, groupToXML(child, ps))
	}
	for _, e := range g.Entries {
		x.Entries = append(x.Entries, entryToXML(e, ps, true))
	}
	return x
}

// entryStringOrder returns the document order strings are written in:
// e.stringOrder first, then any key present in the exported e.Strings
// map but missing from it (a caller can write e.Strings directly,
// bypassing the setString bookkeeping that maintains stringOrder), in
// sorted order so encoding stays deterministic.
func entryStringOrder(e *Entry) []string {
	order := make([]string, len(e.stringOrder), len(e.Strings))
	copy(order, e.stringOrder)

	seen := make(map[string]bool, len(order))
	for _, k := range order {
		seen[k] = true
	}

	var extra []string
	for k := range e.Strings {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	return append(order, extra...)
}

func entryToXML(e *Entry, ps *protectedStream, includeHistory bool) xmlEntry {
	x := xmlEntry{
		UUID:            uuidToXML(e.UUID),
		IconID:          e.IconID,
		ForegroundColor: e.ForegroundColor,
		BackgroundColor: e.BackgroundColor,
		OverrideURL:     e.OverrideURL,
		Tags:            joinTags(e.Tags),
		Times:           timesToXML(e.Times),
		AutoType: xmlAutoType{
			Enabled:                 boolToXML(e.AutoType.Enabled),
			DataTransferObfuscation: e.AutoType.DataTransferObfuscation,
			DefaultSequence:         e.AutoType.DefaultSequence,
		},
	}
	if e.CustomIconUUID != (uuid.UUID{}) {
		x.CustomIconUUID = uuidToXML(e.CustomIconUUID)
	}
	for _, a := range e.AutoType.Associations {
		x.AutoType.Association = append(x.AutoType.Association, xmlAutoTypeAssoc{
			Window:            a.Window,
			KeystrokeSequence: a.Sequence,
		})
	}

	for _, key := range entryStringOrder(e) {
		v := e.Strings[key]
		xs := xmlString{Key: key}
		if v.Protected {
			plain := []byte(v.String())
			cipher := ps.xor(plain)
			xs.Value.Protected = "True"
			xs.Value.Text = base64.StdEncoding.EncodeToString(cipher)
		} else {
			xs.Value.Text = v.Plain
		}
		x.Strings = append(x.Strings, xs)
	}

	for _, b := range e.Binaries {
		x.Binaries = append(x.Binaries, xmlEntryBinary{
			Key:   b.Key,
			Value: xmlBinaryRef{Ref: fmt.Sprintf("%d", b.ID)},
		})
	}

	if includeHistory && len(e.History) > 0 {
		h := &xmlHistory{}
		for _, old := range e.History {
			h.Entries = append(h.Entries, entryToXML(old, ps, false))
		}
		x.History = h
	}

	return x
}

func groupFromXML(x xmlGroup, ps *protectedStream) (*Group, error) {
	g := &Group{
		Name:               x.Name,
		Notes:              x.Notes,
		IconID:             x.IconID,
		IsExpanded:         xmlToBool(x.IsExpanded),
		DefaultAutoTypeSeq: x.DefaultAutoTypeSequence,
		EnableAutoType:     xmlToTrit(x.EnableAutoType),
		EnableSearching:    xmlToTrit(x.EnableSearching),
	}
	var err error
	if g.UUID, err = xmlToUUID(x.UUID); err != nil {
		return nil, err
	}
	if x.CustomIconUUID != "" {
		if g.CustomIconUUID, err = xmlToUUID(x.CustomIconUUID); err != nil {
			return nil, err
		}
	}
	if x.LastTopVisibleEntry != "" {
		if g.LastTopVisibleEntry, err = xmlToUUID(x.LastTopVisibleEntry); err != nil {
			return nil, err
		}
	}
	if g.Times, err = xmlToTimes(x.Times); err != nil {
		return nil, err
	}

	for _, xc := range x.Groups {
		child, err := groupFromXML(xc, ps)
		if err != nil {
			return nil, err
		}
		child.ParentUUID = g.UUID
		g.Groups = append(g.Groups, child)
	}
	for _, xe := range x.Entries {
		e, err := entryFromXML(xe, ps, false)
		if err != nil {
			return nil, err
		}
		e.ParentUUID = g.UUID
		g.Entries = append(g.Entries, e)
	}
	return g, nil
}

func entryFromXML(x xmlEntry, ps *protectedStream, isHistory bool) (*Entry, error) {
	e := &Entry{
		IconID:          x.IconID,
		ForegroundColor: x.ForegroundColor,
		BackgroundColor: x.BackgroundColor,
		OverrideURL:     x.OverrideURL,
		Tags:            splitTags(x.Tags),
		Strings:         map[string]StringValue{},
		AutoType: AutoType{
			Enabled:                 xmlToBool(x.AutoType.Enabled),
			DataTransferObfuscation: x.AutoType.DataTransferObfuscation,
			DefaultSequence:         x.AutoType.DefaultSequence,
		},
	}
	var err error
	if e.UUID, err = xmlToUUID(x.UUID); err != nil {
		return nil, err
	}
	if x.CustomIconUUID != "" {
		if e.CustomIconUUID, err = xmlToUUID(x.CustomIconUUID); err != nil {
			return nil, err
		}
	}
	if e.Times, err = xmlToTimes(x.Times); err != nil {
		return nil, err
	}
	for _, a := range x.AutoType.Association {
		e.AutoType.Associations = append(e.AutoType.Associations, AutoTypeAssociation{
			Window:   a.Window,
			Sequence: a.KeystrokeSequence,
		})
	}

	for _, xs := range x.Strings {
		var v StringValue
		if xs.Value.Protected == "True" {
			cipher, err := base64.StdEncoding.DecodeString(xs.Value.Text)
			if err != nil {
				return nil, NewFormatError("string_value", 0, ErrInvalidBase64)
			}
			plain := ps.xor(cipher)
			v = StringValue{Protected: true, Secret: NewSecureString(plain)}
			zero(plain)
		} else {
			v = NewPlainValue(xs.Value.Text)
		}
		e.Strings[xs.Key] = v
		e.stringOrder = append(e.stringOrder, xs.Key)
	}

	for _, xb := range x.Binaries {
		var id int
		if _, err := fmt.Sscanf(xb.Value.Ref, "%d", &id); err != nil {
			return nil, NewFormatError("binary_ref", 0, ErrUnresolvedBinaryRef)
		}
		e.Binaries = append(e.Binaries, BinaryRef{Key: xb.Key, ID: id})
	}

	if !isHistory && x.History != nil {
		for _, xh := range x.History.Entries {
			old, err := entryFromXML(xh, ps, true)
			if err != nil {
				return nil, err
			}
			old.ParentUUID = e.UUID
			e.History = append(e.History, old)
		}
	}

	return e, nil
}

func joinTags(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += ";"
		}
		out += t
	}
	return out
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ';' {
			tags = append(tags, s[start:i])
			start = i + 1
		}
	}
	tags = append(tags, s[start:])
	return tags
}

// decodeXML parses the plaintext XML payload into Meta/root-Group,
// decoding every protected string value via ps in document order.
func decodeXML(payload []byte, ps *protectedStream) (*Meta, *Group, []byte, error) {
	var doc kpFile
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, nil, nil, NewFormatError("xml", 0, ErrMalformedXML)
	}

	meta, err := xmlToMeta(doc.Meta)
	if err != nil {
		return nil, nil, nil, err
	}
	root, err := groupFromXML(doc.Root.Group, ps)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, root, []byte(doc.Root.DeletedObjects.Inner), nil
}

// encodeXML serializes Meta/root-Group back to the plaintext XML
// payload, re-encrypting every protected string value via a freshly
// built ps in the same document order decodeXML walked.
func encodeXML(meta *Meta, root *Group, deletedObjectsRaw []byte, ps *protectedStream) ([]byte, error) {
	xm, err := metaToXML(meta)
	if err != nil {
		return nil, err
	}
	doc := kpFile{
		Meta: xm,
		Root: xmlRoot{
			Group:          groupToXML(root, ps),
			DeletedObjects: rawXML{Inner: string(deletedObjectsRaw)},
		},
	}

	body, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return nil, NewFormatError("xml", 0, ErrMalformedXML)
	}

	var out bytes.Buffer
	out.WriteString(xml.Header)
	out.Write(body)
	return out.Bytes(), nil
}

func sortedIntKeys(m map[int][]byte) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
