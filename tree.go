package kdbx

import (
	"github.com/google/uuid"
)

// NewEntry returns an empty entry with a fresh UUID and current
// timestamps, ready to be added to a Group via AddEntry.
func NewEntry() *Entry {
	return &Entry{
		UUID:    uuid.New(),
		Times:   NewTimes(),
		Strings: map[string]StringValue{},
	}
}

// AddGroup creates a child group named name, appends it to g, and
// returns it.
func (g *Group) AddGroup(name string) *Group {
	child := &Group{
		UUID:       uuid.New(),
		Name:       name,
		Times:      NewTimes(),
		ParentUUID: g.UUID,
	}
	g.Groups = append(g.Groups, child)
	return child
}

// AddEntry appends e as a child of g, setting e's parent UUID, and
// returns e.
func (g *Group) AddEntry(e *Entry) *Entry {
	e.ParentUUID = g.UUID
	g.Entries = append(g.Entries, e)
	return e
}

// RemoveGroup removes the direct child group with the given UUID. It
// reports whether a child was removed; it does not search recursively,
// matching the UUID-is-identity design where removal acts on a known
// parent.
func (g *Group) RemoveGroup(id uuid.UUID) bool {
	for i, child := range g.Groups {
		if child.UUID == id {
			g.Groups = append(g.Groups[:i], g.Groups[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveEntry removes the direct child entry with the given UUID.
func (g *Group) RemoveEntry(id uuid.UUID) bool {
	for i, e := range g.Entries {
		if e.UUID == id {
			g.Entries = append(g.Entries[:i], g.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// --- Entry string-field convenience surface --------------------------

// setString records a string field, preserving the document-order
// slice the XML codec walks to keep protected-stream consumption
// deterministic (§4.7).
func (e *Entry) setString(key string, v StringValue) {
	if e.Strings == nil {
		e.Strings = map[string]StringValue{}
	}
	if _, exists := e.Strings[key]; !exists {
		e.stringOrder = append(e.stringOrder, key)
	}
	e.Strings[key] = v
}

// getString returns the field's plaintext and whether it is present.
func (e *Entry) getString(key string) (string, bool) {
	v, ok := e.Strings[key]
	if !ok {
		return "", false
	}
	return v.String(), true
}

// Title returns the entry's Title field, or "" if unset.
func (e *Entry) Title() string {
	v, _ := e.getString(FieldTitle)
	return v
}

// SetTitle sets the Title field as a plain (unprotected) value.
func (e *Entry) SetTitle(title string) *Entry {
	e.setString(FieldTitle, NewPlainValue(title))
	return e
}

// UserName returns the entry's UserName field, or "" if unset.
func (e *Entry) UserName() string {
	v, _ := e.getString(FieldUserName)
	return v
}

// SetUserName sets the UserName field as a plain value.
func (e *Entry) SetUserName(userName string) *Entry {
	e.setString(FieldUserName, NewPlainValue(userName))
	return e
}

// Password returns the entry's Password field, or "" if unset.
func (e *Entry) Password() string {
	v, _ := e.getString(FieldPassword)
	return v
}

// SetPassword sets the Password field as a protected value.
func (e *Entry) SetPassword(password string) *Entry {
	e.setString(FieldPassword, NewProtectedValue(password))
	return e
}

// URL returns the entry's URL field, or "" if unset.
func (e *Entry) URL() string {
	v, _ := e.getString(FieldURL)
	return v
}

// SetURL sets the URL field as a plain value.
func (e *Entry) SetURL(url string) *Entry {
	e.setString(FieldURL, NewPlainValue(url))
	return e
}

// Notes returns the entry's Notes field, or "" if unset.
func (e *Entry) Notes() string {
	v, _ := e.getString(FieldNotes)
	return v
}

// SetNotes sets the Notes field as a plain value.
func (e *Entry) SetNotes(notes string) *Entry {
	e.setString(FieldNotes, NewPlainValue(notes))
	return e
}

// PushHistory appends the entry's current state (excluding its own
// history) to its history list. History semantics are caller-driven:
// this library never calls PushHistory on the caller's behalf, per
// §8's "iff the caller explicitly promoted it" invariant.
func (e *Entry) PushHistory() {
	snapshot := *e
	snapshot.History = nil
	snapshot.Strings = copyStrings(e.Strings)
	snapshot.stringOrder = append([]string(nil), e.stringOrder...)
	snapshot.Binaries = append([]BinaryRef(nil), e.Binaries...)
	e.History = append(e.History, &snapshot)
}

func copyStrings(m map[string]StringValue) map[string]StringValue {
	out := make(map[string]StringValue, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
