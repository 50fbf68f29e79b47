package layoutstore

import (
	"testing"

	"github.com/1broseidon/proptile/internal/geometry"
	"github.com/1broseidon/proptile/internal/grid"
)

func sampleSnapshot() grid.Snapshot {
	l := grid.New(grid.ColumnMajor, geometry.Rect{Width: 1920, Height: 1080}, grid.DefaultMinProportion)
	l.SetupFixed(2)
	l.AddSlot(0, 10)
	l.AddSlot(1, 11)
	return l.Snapshot()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := Open(t.TempDir())

	if err := s.Save("dev", "DP-1", sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	saved, err := s.Load("dev")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Name != "dev" || saved.Monitor != "DP-1" {
		t.Fatalf("loaded envelope = %+v", saved)
	}
	if len(saved.Layout.Divisions) != 2 {
		t.Fatalf("got %d divisions, want 2", len(saved.Layout.Divisions))
	}
	if saved.Layout.Divisions[0].Slots[0].Window != 10 {
		t.Fatalf("window = %d, want 10", saved.Layout.Divisions[0].Slots[0].Window)
	}
}

func TestListSorted(t *testing.T) {
	s := Open(t.TempDir())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Save(name, "", sampleSnapshot()); err != nil {
			t.Fatalf("Save %q: %v", name, err)
		}
	}

	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestListEmptyDir(t *testing.T) {
	s := Open(t.TempDir() + "/never-created")
	names, err := s.List()
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("got %d names from a missing dir", len(names))
	}
}

func TestDelete(t *testing.T) {
	s := Open(t.TempDir())
	if err := s.Save("gone", "", sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load("gone"); err == nil {
		t.Fatal("Load succeeded after Delete")
	}
}

func TestRejectsBadNames(t *testing.T) {
	s := Open(t.TempDir())
	for _, name := range []string{"", "  ", "../escape", "a/b", ".."} {
		if err := s.Save(name, "", sampleSnapshot()); err == nil {
			t.Errorf("Save accepted name %q", name)
		}
	}
}
