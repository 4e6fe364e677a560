package structure

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAnnotationMismatch is returned when the original text does not hold one
// atom record per model atom.
var ErrAnnotationMismatch = errors.New("atom records do not match model")

// tailColumn is the 0-based offset where the free-form tail of an atom line
// starts. Residue and atom identity survive there after Remap.
const tailColumn = 66

// Ingested is the result of reading a raw structure once.
type Ingested struct {
	Raw      string
	Remapped string
	Model    *Model
}

// Ingest remaps raw and parses the remapped atoms in a single pass over the
// lines, annotating each atom from the raw line it came from.
func Ingest(raw string) (*Ingested, error) {
	lines := strings.Split(raw, "\n")
	out := make([]string, len(lines))
	var atoms []Atom

	for i, line := range lines {
		remapped := remapLine(line)
		out[i] = remapped

		trimmed := strings.TrimRight(remapped, "\r")
		if !isAtomLine(trimmed) || len(trimmed) < minCoordLen {
			continue
		}
		a, err := parseAtom(trimmed, len(atoms))
		if err != nil {
			return nil, err
		}
		annotate(&a, strings.TrimRight(line, "\r"))
		atoms = append(atoms, a)
	}
	if len(atoms) == 0 {
		return nil, ErrNoAtoms
	}
	return &Ingested{
		Raw:      raw,
		Remapped: strings.Join(out, "\n"),
		Model:    newModel(atoms),
	}, nil
}

// Annotate restores the original residue name and atom symbol of every atom
// in m from original. Atom i is matched with the i-th atom record of
// original by its Index.
func Annotate(m *Model, original string) error {
	recs := atomRecords(original)
	if len(recs) != len(m.Atoms) {
		return fmt.Errorf("%w: %d records for %d atoms", ErrAnnotationMismatch, len(recs), len(m.Atoms))
	}
	for i := range m.Atoms {
		annotate(&m.Atoms[i], recs[m.Atoms[i].Index].line)
	}
	return nil
}

// CopyAnnotations copies the recovered residue names and atom symbols of src
// onto the atoms of dst with the same Index.
func CopyAnnotations(dst, src *Model) error {
	if len(dst.Atoms) != len(src.Atoms) {
		return fmt.Errorf("%w: %d source atoms for %d atoms", ErrAnnotationMismatch, len(src.Atoms), len(dst.Atoms))
	}
	for i := range dst.Atoms {
		from := src.Atoms[dst.Atoms[i].Index]
		dst.Atoms[i].OrigResName = from.OrigResName
		dst.Atoms[i].OrigAtomSymbol = from.OrigAtomSymbol
	}
	return nil
}

func annotate(a *Atom, line string) {
	var tail []string
	if len(line) > tailColumn {
		tail = strings.Fields(line[tailColumn:])
	}
	if len(tail) > 0 {
		a.OrigResName = tail[0]
		a.OrigAtomSymbol = tail[len(tail)-1]
		return
	}

	// No tail: fall back to the fixed columns so neither field is empty.
	a.OrigResName = cols(line, 18, 20)
	if a.OrigResName == "" {
		a.OrigResName = a.ResName
	}
	a.OrigAtomSymbol = a.Element
	if a.OrigAtomSymbol == "" {
		a.OrigAtomSymbol = a.Name
	}
}
