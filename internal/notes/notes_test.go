package notes

import (
	"testing"
	"time"
)

func TestSnapshot_Key(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want string
	}{
		{
			name: "filename-identified note",
			snap: Snapshot{Source: SourceNotes, Filename: "projects/plan.md", ID: "ignored"},
			want: "notes:projects/plan.md",
		},
		{
			name: "calendar note",
			snap: Snapshot{Source: SourceCalendar, Filename: "20260831.md"},
			want: "calendar:20260831.md",
		},
		{
			name: "id-identified note",
			snap: Snapshot{Source: SourceNotes, ID: "abc-123"},
			want: "notes:abc-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.Key(); got != tt.want {
				t.Errorf("Key() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshot_Key_StableAcrossEdits(t *testing.T) {
	before := Snapshot{Source: SourceNotes, Filename: "a.md", Title: "Old", Text: "old body", Modified: time.Now()}
	after := Snapshot{Source: SourceNotes, Filename: "a.md", Title: "New", Text: "new body", Modified: time.Now().Add(time.Hour)}

	if before.Key() != after.Key() {
		t.Errorf("keys differ across content edit: %q vs %q", before.Key(), after.Key())
	}
}

func TestSnapshot_Key_SourcesNeverCollide(t *testing.T) {
	a := Snapshot{Source: SourceNotes, Filename: "20260831.md"}
	b := Snapshot{Source: SourceCalendar, Filename: "20260831.md"}

	if a.Key() == b.Key() {
		t.Errorf("keys collide across sources: %q", a.Key())
	}
}
