// Package structure reads the atom records of PDB-formatted text.
//
// Only ATOM and HETATM records are interpreted. Everything else in the file
// is carried through untouched, since the renderer does its own parsing and
// this package only needs the atom list for styling and labels.
package structure

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Residue tags written into the residue-name columns by Remap. Styling keys
// off these two values only.
const (
	ProteinTag = "VAL"
	WaterTag   = "TIP"
)

// ErrNoAtoms is returned when a text contains no usable atom records.
var ErrNoAtoms = errors.New("no ATOM or HETATM records found")

// Class is the styling class of an atom, derived from its residue tag.
type Class int

const (
	ClassWater Class = iota
	ClassProtein
)

func (c Class) String() string {
	if c == ClassProtein {
		return "protein"
	}
	return "water"
}

// ClassOf returns the class for a post-remap residue name.
func ClassOf(resName string) Class {
	if resName == ProteinTag {
		return ClassProtein
	}
	return ClassWater
}

// Atom is a single ATOM/HETATM record.
type Atom struct {
	Index   int // position among the atom records of the source text
	Serial  int
	Het     bool
	Name    string
	ResName string
	Chain   string
	ResSeq  int
	X, Y, Z float64
	Element string

	// Recovered from the tail of the original (pre-remap) line.
	OrigResName    string
	OrigAtomSymbol string
}

// Class returns the styling class of the atom.
func (a Atom) Class() Class {
	return ClassOf(a.ResName)
}

// Model is an ordered list of atoms.
type Model struct {
	Atoms    []Atom
	bySerial map[int]int
}

func newModel(atoms []Atom) *Model {
	m := &Model{Atoms: atoms, bySerial: make(map[int]int, len(atoms))}
	for i, a := range atoms {
		if _, dup := m.bySerial[a.Serial]; !dup {
			m.bySerial[a.Serial] = i
		}
	}
	return m
}

// AtomBySerial looks up an atom by its serial number.
func (m *Model) AtomBySerial(serial int) (Atom, bool) {
	if m == nil {
		return Atom{}, false
	}
	i, ok := m.bySerial[serial]
	if !ok {
		return Atom{}, false
	}
	return m.Atoms[i], true
}

// Count returns the number of atoms per class.
func (m *Model) Count() (protein, water int) {
	for _, a := range m.Atoms {
		if a.Class() == ClassProtein {
			protein++
		} else {
			water++
		}
	}
	return protein, water
}

// Parse reads the atom records of a PDB text in file order.
func Parse(text string) (*Model, error) {
	var atoms []Atom
	for _, rec := range atomRecords(text) {
		a, err := parseAtom(rec.line, rec.index)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, a)
	}
	if len(atoms) == 0 {
		return nil, ErrNoAtoms
	}
	return newModel(atoms), nil
}

type record struct {
	index int
	line  string
}

// atomRecords returns the atom lines of text with their atom index. Lines
// too short to carry coordinates are skipped and do not consume an index.
func atomRecords(text string) []record {
	var recs []record
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if !isAtomLine(line) || len(line) < minCoordLen {
			continue
		}
		recs = append(recs, record{index: len(recs), line: line})
	}
	return recs
}

// minCoordLen is the shortest line that still holds the z coordinate.
const minCoordLen = 54

func isAtomLine(line string) bool {
	return strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM")
}

func parseAtom(line string, index int) (Atom, error) {
	a := Atom{
		Index:   index,
		Het:     strings.HasPrefix(line, "HETATM"),
		Name:    cols(line, 13, 16),
		ResName: cols(line, 18, 20),
		Chain:   cols(line, 22, 22),
		Element: cols(line, 77, 78),
	}

	var err error
	if a.Serial, err = strconv.Atoi(cols(line, 7, 11)); err != nil {
		a.Serial = index + 1
	}
	if seq := cols(line, 23, 26); seq != "" {
		a.ResSeq, _ = strconv.Atoi(seq)
	}
	if a.X, err = atof(line, 31, 38); err != nil {
		return Atom{}, fmt.Errorf("atom %d: x coordinate: %w", index+1, err)
	}
	if a.Y, err = atof(line, 39, 46); err != nil {
		return Atom{}, fmt.Errorf("atom %d: y coordinate: %w", index+1, err)
	}
	if a.Z, err = atof(line, 47, 54); err != nil {
		return Atom{}, fmt.Errorf("atom %d: z coordinate: %w", index+1, err)
	}
	if a.Element == "" {
		a.Element = elementFromName(a.Name)
	}
	return a, nil
}

func elementFromName(name string) string {
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			return string(r)
		}
	}
	return name
}

func atof(line string, start, end int) (float64, error) {
	return strconv.ParseFloat(cols(line, start, end), 64)
}

// cols returns the trimmed text of the 1-based inclusive column range.
func cols(line string, start, end int) string {
	rs, re := start-1, end
	if rs >= len(line) || rs < 0 {
		return ""
	}
	if re > len(line) {
		re = len(line)
	}
	if re < rs {
		return ""
	}
	return strings.TrimSpace(line[rs:re])
}
