package kdbx

import "testing"

func TestGroupAddRemoveGroup(t *testing.T) {
	root := &Group{Name: "Root"}
	child := root.AddGroup("Child")
	if child.ParentUUID != root.UUID {
		t.Errorf("child's ParentUUID should point at the root")
	}
	if len(root.Groups) != 1 {
		t.Fatalf("expected one child group, got %d", len(root.Groups))
	}

	if !root.RemoveGroup(child.UUID) {
		t.Fatalf("RemoveGroup should report true for an existing child")
	}
	if len(root.Groups) != 0 {
		t.Errorf("expected no child groups after removal")
	}
	if root.RemoveGroup(child.UUID) {
		t.Errorf("RemoveGroup should report false for an already-removed child")
	}
}

func TestGroupAddRemoveEntry(t *testing.T) {
	g := &Group{Name: "Group"}
	e := g.AddEntry(NewEntry())
	if e.ParentUUID != g.UUID {
		t.Errorf("entry's ParentUUID should point at its group")
	}

	if !g.RemoveEntry(e.UUID) {
		t.Fatalf("RemoveEntry should report true for an existing entry")
	}
	if len(g.Entries) != 0 {
		t.Errorf("expected no entries after removal")
	}
}

func TestEntryConvenienceFields(t *testing.T) {
	e := NewEntry()
	e.SetTitle("Title").SetUserName("user").SetPassword("pass").SetURL("https://example.com").SetNotes("notes")

	if e.Title() != "Title" {
		t.Errorf("Title() = %q", e.Title())
	}
	if e.UserName() != "user" {
		t.Errorf("UserName() = %q", e.UserName())
	}
	if e.Password() != "pass" {
		t.Errorf("Password() = %q", e.Password())
	}
	if e.URL() != "https://example.com" {
		t.Errorf("URL() = %q", e.URL())
	}
	if e.Notes() != "notes" {
		t.Errorf("Notes() = %q", e.Notes())
	}

	v, ok := e.Strings[FieldPassword]
	if !ok || !v.Protected {
		t.Errorf("Password must be stored as a protected StringValue")
	}
	v, ok = e.Strings[FieldTitle]
	if !ok || v.Protected {
		t.Errorf("Title must be stored as a plain StringValue")
	}
}

func TestEntryPushHistory(t *testing.T) {
	e := NewEntry()
	e.SetTitle("v1")
	e.PushHistory()
	e.SetTitle("v2")

	if len(e.History) != 1 {
		t.Fatalf("expected one history entry, got %d", len(e.History))
	}
	if e.History[0].Title() != "v1" {
		t.Errorf("history snapshot Title() = %q, want v1", e.History[0].Title())
	}
	if e.Title() != "v2" {
		t.Errorf("current Title() = %q, want v2", e.Title())
	}
	if len(e.History[0].History) != 0 {
		t.Errorf("history snapshots must not carry their own nested history")
	}
}

func TestStringValuePlainAndProtected(t *testing.T) {
	plain := NewPlainValue("hello")
	if plain.Protected {
		t.Errorf("NewPlainValue must not be protected")
	}
	if plain.String() != "hello" {
		t.Errorf("String() = %q, want hello", plain.String())
	}

	protected := NewProtectedValue("secret")
	if !protected.Protected {
		t.Errorf("NewProtectedValue must be protected")
	}
	if protected.String() != "secret" {
		t.Errorf("String() = %q, want secret", protected.String())
	}
}
