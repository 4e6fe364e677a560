package store

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/msalah0e/pdbview/internal/view"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	if _, ok := m.Get("a"); ok {
		t.Error("expected empty store")
	}
	m.Set("a", "1")
	m.Set("a", "2")
	if v, _ := m.Get("a"); v != "2" {
		t.Errorf("expected 2, got %q", v)
	}
	m.Remove("a")
	m.Remove("missing")
	if m.Len() != 0 {
		t.Errorf("expected 0 keys, got %d", m.Len())
	}
}

func TestFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	f, err := OpenFile("")
	if err != nil {
		t.Fatal(err)
	}
	if f.ID() != DefaultSession {
		t.Errorf("expected default session, got %q", f.ID())
	}
	want := filepath.Join(tmpDir, "pdbview", "sessions", "default.toml")
	if f.Path() != want {
		t.Errorf("expected %q, got %q", want, f.Path())
	}

	text := "ATOM      1  N   VAL A   1\nEND\n"
	if err := f.Set(KeyStructure, text); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	f.Set(KeyFileName, "x.pdb")

	// A second handle sees the same data.
	g, _ := OpenFile(DefaultSession)
	if v, ok := g.Get(KeyStructure); !ok || v != text {
		t.Errorf("structure did not survive: %q", v)
	}
	if keys := g.Keys(); len(keys) != 2 || keys[0] != KeyFileName {
		t.Errorf("unexpected keys %v", keys)
	}

	g.Remove(KeyFileName)
	if _, ok := f.Get(KeyFileName); ok {
		t.Error("fileName should be removed")
	}

	sessions, err := Sessions()
	if err != nil || len(sessions) != 1 || sessions[0].ID != DefaultSession {
		t.Errorf("Sessions() = %+v, %v", sessions, err)
	}

	if err := f.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
		t.Error("session file should be gone")
	}
	if err := f.End(); err != nil {
		t.Errorf("ending twice should be fine: %v", err)
	}
	if _, ok := f.Get(KeyStructure); ok {
		t.Error("ended session should be empty")
	}
}

func TestFile_BadID(t *testing.T) {
	for _, id := range []string{"../x", "a/b", ".."} {
		if _, err := OpenFile(id); err == nil {
			t.Errorf("OpenFile(%q): expected error", id)
		}
	}
}

func TestFile_CorruptIsEmpty(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	f, _ := OpenFile("broken")
	os.MkdirAll(filepath.Dir(f.Path()), 0o755)
	os.WriteFile(f.Path(), []byte("not = [toml"), 0o644)

	if _, ok := f.Get(KeyStructure); ok {
		t.Error("corrupt file should read as empty")
	}
	if err := f.Set(KeyFileName, "y.pdb"); err != nil {
		t.Fatalf("Set over corrupt file failed: %v", err)
	}
	if v, _ := f.Get(KeyFileName); v != "y.pdb" {
		t.Errorf("expected y.pdb, got %q", v)
	}
}

func reachableStates() []view.State {
	var out []view.State
	radii := []float64{view.MinRadius, 0.35, 0.5, 1.25, view.MaxRadius}
	for _, rep := range view.Representations {
		for _, f := range view.Filters {
			for _, z := range view.Sizes {
				for i, pr := range radii {
					wr := radii[len(radii)-1-i]
					for _, hl := range []bool{true, false} {
						for _, expr := range []string{"", "resn TIP and serial 1-10", "  x  "} {
							out = append(out, view.State{
								Representation: rep,
								Filter:         f,
								Size:           z,
								ProteinRadius:  pr,
								WaterRadius:    wr,
								Highlight:      hl,
								CustomExpr:     expr,
							})
						}
					}
				}
			}
		}
	}
	return out
}

func TestBridge_RoundTrip(t *testing.T) {
	for _, st := range reachableStates() {
		b := NewBridge(NewMemory())
		if err := b.SaveState(st); err != nil {
			t.Fatalf("SaveState failed: %v", err)
		}
		got := b.RestoreState()
		if math.Abs(got.ProteinRadius-st.ProteinRadius) > 1e-9 || math.Abs(got.WaterRadius-st.WaterRadius) > 1e-9 {
			t.Errorf("radii: got %v/%v, want %v/%v", got.ProteinRadius, got.WaterRadius, st.ProteinRadius, st.WaterRadius)
		}
		got.ProteinRadius, got.WaterRadius = st.ProteinRadius, st.WaterRadius
		if got != st {
			t.Errorf("round trip: got %+v, want %+v", got, st)
		}
	}
}

func TestBridge_RoundTripFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	f, _ := OpenFile("rt")
	st := view.Default().
		WithRepresentation(view.Sphere).
		WithSize(view.SizeCustom).
		WithProteinRadius(1.35).
		WithCustomExpr("resn VAL")

	if err := NewBridge(f).SaveState(st); err != nil {
		t.Fatal(err)
	}
	reopened, _ := OpenFile("rt")
	if got := NewBridge(reopened).RestoreState(); got != st {
		t.Errorf("got %+v, want %+v", got, st)
	}
}

func TestBridge_RestoreInvalid(t *testing.T) {
	m := NewMemory()
	m.Set(KeyRepresentation, "ribbon")
	m.Set(KeyFilter, "ligand")
	m.Set(KeySize, "custom")
	m.Set(KeyProteinRadius, "abc")
	m.Set(KeyWaterRadius, "9")
	m.Set(KeyHighlight, "maybe")

	got := NewBridge(m).RestoreState()
	if math.IsNaN(got.ProteinRadius) || math.IsNaN(got.WaterRadius) {
		t.Fatalf("NaN radius restored: %+v", got)
	}
	def := view.Default()
	if got.Representation != def.Representation || got.Filter != def.Filter {
		t.Errorf("invalid values should keep defaults: %+v", got)
	}
	if got.Size != view.SizeCustom {
		t.Errorf("custom alias should restore, got %q", got.Size)
	}
	if got.ProteinRadius != def.ProteinRadius {
		t.Errorf("unparsable radius should keep default, got %v", got.ProteinRadius)
	}
	if got.WaterRadius != view.MaxRadius {
		t.Errorf("radius should clamp, got %v", got.WaterRadius)
	}
	if got.Highlight != def.Highlight {
		t.Error("invalid highlight should keep default")
	}
}

func TestBridge_RestoreNaN(t *testing.T) {
	for _, v := range []string{"NaN", "nan", "-NaN"} {
		m := NewMemory()
		m.Set(KeyProteinRadius, v)
		m.Set(KeyWaterRadius, v)

		got := NewBridge(m).RestoreState()
		if got.ProteinRadius != view.DefaultRadius || got.WaterRadius != view.DefaultRadius {
			t.Errorf("%q: NaN radius should keep default, got %v/%v", v, got.ProteinRadius, got.WaterRadius)
		}
	}

	m := NewMemory()
	m.Set(KeyProteinRadius, "NaN")
	base := view.Default().WithProteinRadius(1.4)
	if got := NewBridge(m).RestoreOnto(base); got.ProteinRadius != 1.4 {
		t.Errorf("NaN should keep the base radius, got %v", got.ProteinRadius)
	}
}

func TestBridge_Empty(t *testing.T) {
	b := NewBridge(NewMemory())
	if got := b.RestoreState(); got != view.Default() {
		t.Errorf("empty store should restore defaults, got %+v", got)
	}
	if _, _, ok := b.Structure(); ok {
		t.Error("empty store has no structure")
	}
}

func TestBridge_Structure(t *testing.T) {
	m := NewMemory()
	b := NewBridge(m)

	b.SaveStructure("ATOM", "a.pdb")
	text, name, ok := b.Structure()
	if !ok || text != "ATOM" || name != "a.pdb" {
		t.Errorf("got %q %q %v", text, name, ok)
	}

	b.SaveStructure("HETATM", "")
	if _, ok := m.Get(KeyFileName); ok {
		t.Error("fetched structure should clear the file name")
	}

	b.Clear()
	if m.Len() != 0 {
		t.Errorf("Clear left %v", m.Snapshot())
	}
}

func TestBridge_SaveFieldUnknown(t *testing.T) {
	b := NewBridge(NewMemory())
	if err := b.SaveField(KeyStructure, view.Default()); err == nil {
		t.Error("expected error for non-state key")
	}
}

func TestBridge_RestoreOnto(t *testing.T) {
	m := NewMemory()
	m.Set(KeyFilter, string(view.FilterWater))
	base := view.Default().WithRepresentation(view.Stick).WithHighlight(false)

	got := NewBridge(m).RestoreOnto(base)
	want := base.WithFilter(view.FilterWater)
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
