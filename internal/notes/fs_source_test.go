package notes

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeNote(t *testing.T, root, relPath, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestFSSource_ListNotes(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "projects/plan.md", "# Project Plan\n\nShip it.")
	writeNote(t, root, "20260831.md", "Daily log.")
	writeNote(t, root, "@Trash/old.md", "# Old\n\nDiscarded.")
	writeNote(t, root, "ignored.pdf", "binary-ish")
	writeNote(t, root, ".vim/state.md", "editor state")

	src := NewFSSource(root)
	snaps, err := src.ListNotes(context.Background(), Scope{})
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}

	if len(snaps) != 2 {
		t.Fatalf("ListNotes() returned %d snapshots, want 2", len(snaps))
	}

	byKey := make(map[string]Snapshot)
	for _, s := range snaps {
		byKey[s.Key()] = s
	}

	plan, ok := byKey["notes:projects/plan.md"]
	if !ok {
		t.Fatal("project note missing")
	}
	if plan.Title != "Project Plan" {
		t.Errorf("Title = %q, want %q", plan.Title, "Project Plan")
	}
	if plan.Folder != "projects" {
		t.Errorf("Folder = %q, want %q", plan.Folder, "projects")
	}

	daily, ok := byKey["calendar:20260831.md"]
	if !ok {
		t.Fatal("calendar note missing")
	}
	if daily.Source != SourceCalendar {
		t.Errorf("Source = %q, want calendar", daily.Source)
	}
	// No heading: title falls back to the filename.
	if daily.Title == "" {
		t.Error("calendar note title should not be empty")
	}
}

func TestFSSource_ListNotes_IncludeTrash(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "keep.md", "# Keep")
	writeNote(t, root, "@Trash/old.md", "# Old")

	src := NewFSSource(root)

	snaps, err := src.ListNotes(context.Background(), Scope{IncludeTrash: true})
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("ListNotes(IncludeTrash) returned %d, want 2", len(snaps))
	}

	var sawTrash bool
	for _, s := range snaps {
		if s.Source == SourceTrash {
			sawTrash = true
		}
	}
	if !sawTrash {
		t.Error("trash note not classified as trash")
	}
}

func TestFSSource_TitleFallbacks(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "no-heading-note.md", "plain body")
	writeNote(t, root, "h2-only.md", "## Second Level\n\nbody")

	src := NewFSSource(root)
	snaps, err := src.ListNotes(context.Background(), Scope{})
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}

	titles := make(map[string]string)
	for _, s := range snaps {
		titles[s.Filename] = s.Title
	}

	if titles["no-heading-note.md"] != "No Heading Note" {
		t.Errorf("filename title = %q, want %q", titles["no-heading-note.md"], "No Heading Note")
	}
	if titles["h2-only.md"] != "Second Level" {
		t.Errorf("h2 title = %q, want %q", titles["h2-only.md"], "Second Level")
	}
}
