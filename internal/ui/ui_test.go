package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTableTo(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	TableTo(&buf, []string{"ID", "Atoms"}, [][]string{{"1crn", "327"}, {"4hhb", "4779"}})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "  ID    Atoms" {
		t.Errorf("header: %q", lines[0])
	}
	if lines[2] != "  1crn  327" {
		t.Errorf("row: %q", lines[2])
	}
}

func TestTableTo_Empty(t *testing.T) {
	var buf bytes.Buffer
	TableTo(&buf, []string{"ID"}, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestVisible(t *testing.T) {
	if n := visible("\x1b[32m✓\x1b[0m"); n != 1 {
		t.Errorf("visible = %d, want 1", n)
	}
	if n := visible("héllo"); n != 5 {
		t.Errorf("visible = %d, want 5", n)
	}
}

func TestKeyValue(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	KeyValue(&buf, [][2]string{{"File", "x.pdb"}, {"Representation", "sphere"}})
	want := "  File:           x.pdb\n  Representation: sphere\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
