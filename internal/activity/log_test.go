package activity

import (
	"os"
	"testing"
	"time"
)

func TestLogAndRead(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	entries, err := Read(10)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty history, got %v, %v", entries, err)
	}

	if err := LogLoad(ActionLoad, "default", "1l2y.pdb", 304, 12, 15*time.Millisecond); err != nil {
		t.Fatalf("LogLoad failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	Log(ActionFetch, "default", "1crn", "")

	entries, _ = Read(0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Source != "1crn" {
		t.Errorf("newest first: got %q", entries[0].Source)
	}
	if entries[1].Protein != 304 || entries[1].Water != 12 {
		t.Errorf("counts not kept: %+v", entries[1])
	}

	if got, _ := Read(1); len(got) != 1 {
		t.Errorf("expected 1 entry, got %d", len(got))
	}
}

func TestSearch(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	Log(ActionLoad, "s1", "Water-Box.pdb", "")
	Log(ActionCustom, "s1", "", "resn TIP")

	got, _ := Search("water", 0)
	if len(got) != 1 || got[0].Source != "Water-Box.pdb" {
		t.Errorf("unexpected search result %+v", got)
	}
	if got, _ := Search("", 0); len(got) != 2 {
		t.Errorf("empty query should match everything, got %d", len(got))
	}
}

func TestReadSkipsBadLines(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	Log(ActionLoad, "", "a.pdb", "")
	f, _ := os.OpenFile(Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	f.WriteString("{broken\n")
	f.Close()

	entries, err := Read(0)
	if err != nil || len(entries) != 1 {
		t.Errorf("expected 1 entry, got %v, %v", entries, err)
	}
}

func TestClear(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := Clear(); err != nil {
		t.Errorf("clearing a missing history should succeed: %v", err)
	}
	Log(ActionLoad, "", "a.pdb", "")
	Clear()
	if entries, _ := Read(0); len(entries) != 0 {
		t.Error("history not cleared")
	}
}
