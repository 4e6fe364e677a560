// Package activity keeps a JSONL history of structure loads and session
// events.
package activity

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Actions recorded in the history.
const (
	ActionLoad   = "load"
	ActionFetch  = "fetch"
	ActionCustom = "custom"
	ActionEnd    = "session-end"
)

// Entry represents a single history entry.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Session   string    `json:"session,omitempty"`
	Source    string    `json:"source,omitempty"` // file name or PDB id
	Details   string    `json:"details,omitempty"`
	Protein   int       `json:"protein,omitempty"`
	Water     int       `json:"water,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
}

// Path returns the history file path.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pdbview", "history.jsonl")
}

// Log appends an entry to the history.
func Log(action, session, source, details string) error {
	return Append(Entry{
		Timestamp: time.Now(),
		Action:    action,
		Session:   session,
		Source:    source,
		Details:   details,
	})
}

// LogLoad appends a load entry with atom counts and load time.
func LogLoad(action, session, source string, protein, water int, took time.Duration) error {
	return Append(Entry{
		Timestamp: time.Now(),
		Action:    action,
		Session:   session,
		Source:    source,
		Protein:   protein,
		Water:     water,
		Duration:  took.Seconds(),
	})
}

// Append writes e as one JSON line.
func Append(e Entry) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "%s\n", data)
	return err
}

// Read returns the last count entries, newest first. count <= 0 returns all.
// Lines that fail to decode are skipped.
func Read(count int) ([]Entry, error) {
	f, err := os.Open(Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var e Entry
		if json.Unmarshal(sc.Bytes(), &e) == nil {
			entries = append(entries, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if count > 0 && len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}

// Search finds entries whose action, source, session or details contain
// query, case-insensitively.
func Search(query string, count int) ([]Entry, error) {
	all, err := Read(0)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var results []Entry
	for _, e := range all {
		hay := strings.ToLower(e.Action + "\x00" + e.Source + "\x00" + e.Session + "\x00" + e.Details)
		if strings.Contains(hay, q) {
			results = append(results, e)
			if count > 0 && len(results) >= count {
				break
			}
		}
	}
	return results, nil
}

// Clear removes the history file.
func Clear() error {
	err := os.Remove(Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
