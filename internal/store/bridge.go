package store

import (
	"fmt"
	"strconv"

	"github.com/msalah0e/pdbview/internal/view"
)

// Bridge mirrors a view.State and the last loaded structure into a Store.
type Bridge struct {
	Store Store
}

// NewBridge returns a Bridge over s.
func NewBridge(s Store) *Bridge {
	return &Bridge{Store: s}
}

func formatRadius(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// fieldValue returns the stored form of the state field under key.
func fieldValue(key string, s view.State) (string, error) {
	switch key {
	case KeyRepresentation:
		return string(s.Representation), nil
	case KeyFilter:
		return string(s.Filter), nil
	case KeySize:
		return string(s.Size), nil
	case KeyProteinRadius:
		return formatRadius(s.ProteinRadius), nil
	case KeyWaterRadius:
		return formatRadius(s.WaterRadius), nil
	case KeyHighlight:
		return strconv.FormatBool(s.Highlight), nil
	case KeyCustomExpr:
		return s.CustomExpr, nil
	}
	return "", fmt.Errorf("not a state key: %q", key)
}

var stateKeys = []string{
	KeyRepresentation, KeyFilter, KeySize,
	KeyProteinRadius, KeyWaterRadius,
	KeyHighlight, KeyCustomExpr,
}

// SaveField writes the single field of s stored under key.
func (b *Bridge) SaveField(key string, s view.State) error {
	v, err := fieldValue(key, s)
	if err != nil {
		return err
	}
	return b.Store.Set(key, v)
}

// SaveState writes every field of s, one key at a time.
func (b *Bridge) SaveState(s view.State) error {
	for _, key := range stateKeys {
		if err := b.SaveField(key, s); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// RestoreState rebuilds a view.State from the store. Missing or invalid
// keys keep their default value; radii are clamped into range.
func (b *Bridge) RestoreState() view.State {
	return b.RestoreOnto(view.Default())
}

// RestoreOnto is RestoreState with base supplying the values of missing or
// invalid keys.
func (b *Bridge) RestoreOnto(base view.State) view.State {
	s := base

	if v, ok := b.Store.Get(KeyRepresentation); ok {
		if r, err := view.ParseRepresentation(v); err == nil {
			s = s.WithRepresentation(r)
		}
	}
	if v, ok := b.Store.Get(KeyFilter); ok {
		if f, err := view.ParseFilter(v); err == nil {
			s = s.WithFilter(f)
		}
	}
	if v, ok := b.Store.Get(KeySize); ok {
		if z, err := view.ParseSize(v); err == nil {
			s = s.WithSize(z)
		}
	}
	if v, ok := b.Store.Get(KeyProteinRadius); ok {
		if r, ok := parseRadius(v); ok {
			s = s.WithProteinRadius(r)
		}
	}
	if v, ok := b.Store.Get(KeyWaterRadius); ok {
		if r, ok := parseRadius(v); ok {
			s = s.WithWaterRadius(r)
		}
	}
	if v, ok := b.Store.Get(KeyHighlight); ok {
		if on, err := strconv.ParseBool(v); err == nil {
			s = s.WithHighlight(on)
		}
	}
	if v, ok := b.Store.Get(KeyCustomExpr); ok {
		s = s.WithCustomExpr(v)
	}
	return s
}

// SaveStructure stores the loaded structure text and its file name. An
// empty fileName removes the stored name, as for structures fetched by id.
func (b *Bridge) SaveStructure(text, fileName string) error {
	if err := b.Store.Set(KeyStructure, text); err != nil {
		return err
	}
	if fileName == "" {
		return b.Store.Remove(KeyFileName)
	}
	return b.Store.Set(KeyFileName, fileName)
}

// Structure returns the stored structure text and file name. ok is false
// when no non-empty structure is stored.
func (b *Bridge) Structure() (text, fileName string, ok bool) {
	text, _ = b.Store.Get(KeyStructure)
	fileName, _ = b.Store.Get(KeyFileName)
	return text, fileName, text != ""
}

// Clear removes every session key.
func (b *Bridge) Clear() error {
	for _, key := range Keys {
		if err := b.Store.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

// parseRadius parses a stored radius. NaN counts as unparsable.
func parseRadius(v string) (float64, bool) {
	r, err := strconv.ParseFloat(v, 64)
	if err != nil || !view.ValidRadius(r) {
		return 0, false
	}
	return r, true
}
