// Package cache keeps downloaded structures on disk, keyed by PDB id.
package cache

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Dir returns the structure cache directory path.
func Dir() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, "pdbview", "structures")
}

// Cache is a directory of <id>.pdb files. A zero TTL never expires.
type Cache struct {
	Dir string
	TTL time.Duration
}

// New returns a Cache in Dir().
func New(ttl time.Duration) *Cache {
	return &Cache{Dir: Dir(), TTL: ttl}
}

func (c *Cache) path(id string) string {
	return filepath.Join(c.Dir, sanitize(strings.ToLower(id))+".pdb")
}

// Get returns the cached text for id if present and fresh.
func (c *Cache) Get(id string) (string, bool) {
	p := c.path(id)
	info, err := os.Stat(p)
	if err != nil {
		return "", false
	}
	if c.TTL > 0 && time.Since(info.ModTime()) > c.TTL {
		return "", false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Put stores text for id.
func (c *Cache) Put(id, text string) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path(id), []byte(text), 0o644)
}

// IsCached reports whether a fresh entry exists for id.
func (c *Cache) IsCached(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Entry describes one cached structure.
type Entry struct {
	ID      string
	Size    int64
	ModTime time.Time
}

// List returns the cached entries sorted by id.
func (c *Cache) List() ([]Entry, error) {
	files, err := os.ReadDir(c.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".pdb" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			ID:      strings.TrimSuffix(f.Name(), ".pdb"),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Clear removes every cached structure.
func (c *Cache) Clear() error {
	return os.RemoveAll(c.Dir)
}

// Bundle creates a tar.gz archive of the entire cache directory.
func (c *Cache) Bundle(output string) error {
	if _, err := os.Stat(c.Dir); err != nil {
		return fmt.Errorf("cache is empty, load a structure with `pdbview load --id` first")
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	defer gw.Close()

	tw := tar.NewWriter(gw)
	defer tw.Close()

	return filepath.Walk(c.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(c.Dir, path)
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = rel
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
}

func sanitize(s string) string {
	r := strings.NewReplacer("/", "_", ":", "_", "@", "_", "\\", "_", "..", "_")
	return r.Replace(s)
}
