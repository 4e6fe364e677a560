package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultSession is the session used when none is named.
const DefaultSession = "default"

// ErrBadSessionID is returned for session ids that are not a plain file name.
var ErrBadSessionID = errors.New("invalid session id")

type sessionFile struct {
	CreatedAt time.Time         `toml:"created_at"`
	UpdatedAt time.Time         `toml:"updated_at"`
	Values    map[string]string `toml:"values"`
}

// File is a Store backed by one toml file per session. Every call reads or
// rewrites the whole file, so separate processes see each other's writes.
type File struct {
	id   string
	path string
}

// SessionDir returns the directory holding session files.
func SessionDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pdbview", "sessions")
}

// OpenFile returns the file store for session id. The file is created on
// the first Set.
func OpenFile(id string) (*File, error) {
	if id == "" {
		id = DefaultSession
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("%w: %q", ErrBadSessionID, id)
	}
	return &File{id: id, path: filepath.Join(SessionDir(), id+".toml")}, nil
}

// ID returns the session id.
func (f *File) ID() string { return f.id }

// Path returns the session file path.
func (f *File) Path() string { return f.path }

// load reads the session file, returning an empty session if it doesn't
// exist or can't be decoded.
func (f *File) load() *sessionFile {
	s := &sessionFile{Values: make(map[string]string)}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return s
	}
	_ = toml.Unmarshal(data, s)
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	return s
}

func (f *File) save(s *sessionFile) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	out, err := os.Create(f.path)
	if err != nil {
		return err
	}
	defer out.Close()
	return toml.NewEncoder(out).Encode(s)
}

func (f *File) Get(key string) (string, bool) {
	v, ok := f.load().Values[key]
	return v, ok
}

func (f *File) Set(key, value string) error {
	s := f.load()
	s.Values[key] = value
	return f.save(s)
}

func (f *File) Remove(key string) error {
	s := f.load()
	if _, ok := s.Values[key]; !ok {
		return nil
	}
	delete(s.Values, key)
	return f.save(s)
}

// Keys returns the stored keys in sorted order.
func (f *File) Keys() []string {
	return sortedKeys(f.load().Values)
}

// End deletes the session file. Ending a session that was never written is
// not an error.
func (f *File) End() error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// SessionInfo describes a stored session.
type SessionInfo struct {
	ID        string
	FileName  string
	UpdatedAt time.Time
	Keys      int
}

// Sessions lists stored sessions, most recently updated first.
func Sessions() ([]SessionInfo, error) {
	entries, err := os.ReadDir(SessionDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []SessionInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".toml" {
			continue
		}
		f, err := OpenFile(strings.TrimSuffix(name, ".toml"))
		if err != nil {
			continue
		}
		s := f.load()
		out = append(out, SessionInfo{
			ID:        f.id,
			FileName:  s.Values[KeyFileName],
			UpdatedAt: s.UpdatedAt,
			Keys:      len(s.Values),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}
