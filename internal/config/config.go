package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/msalah0e/pdbview/internal/view"
)

// Config holds pdbview configuration.
type Config struct {
	UI       UIConfig       `toml:"ui"`
	Fetch    FetchConfig    `toml:"fetch"`
	View     ViewConfig     `toml:"view"`
	Serve    ServeConfig    `toml:"serve"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Log      LogConfig      `toml:"log"`
	Hooks    HooksConfig    `toml:"hooks"`
}

// UIConfig controls display options.
type UIConfig struct {
	Color bool `toml:"color"`
}

// FetchConfig controls downloads by PDB id.
type FetchConfig struct {
	Endpoint      string `toml:"endpoint"` // printf template, %s is the lower-cased id
	TimeoutSecs   int    `toml:"timeout_secs"`
	Cache         bool   `toml:"cache"`
	CacheTTLHours int    `toml:"cache_ttl_hours"`
}

// ViewConfig is the view state of a session with nothing stored yet.
type ViewConfig struct {
	Representation string  `toml:"representation"`
	Filter         string  `toml:"filter"`
	Size           string  `toml:"size"`
	ProteinRadius  float64 `toml:"protein_radius"`
	WaterRadius    float64 `toml:"water_radius"`
	Highlight      bool    `toml:"highlight"`
}

// ServeConfig controls the HTTP bridge.
type ServeConfig struct {
	Addr            string `toml:"addr"`
	WatchDebounceMS int    `toml:"watch_debounce_ms"`
}

// SnapshotConfig controls PNG snapshots.
type SnapshotConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level       string `toml:"level"` // "debug", "info", "warn", "error"
	Development bool   `toml:"development"`
}

// HooksConfig holds shell commands run after viewer events.
type HooksConfig struct {
	PostLoad string `toml:"post_load"`
	PostEnd  string `toml:"post_end"`
}

// DefaultEndpoint is the RCSB download URL template.
const DefaultEndpoint = "https://files.rcsb.org/download/%s.pdb"

// Default returns the default configuration.
func Default() *Config {
	d := view.Default()
	return &Config{
		UI: UIConfig{Color: true},
		Fetch: FetchConfig{
			Endpoint:      DefaultEndpoint,
			TimeoutSecs:   30,
			Cache:         true,
			CacheTTLHours: 24 * 7,
		},
		View: ViewConfig{
			Representation: string(d.Representation),
			Filter:         string(d.Filter),
			Size:           string(d.Size),
			ProteinRadius:  d.ProteinRadius,
			WaterRadius:    d.WaterRadius,
			Highlight:      d.Highlight,
		},
		Serve:    ServeConfig{Addr: "127.0.0.1:8417", WatchDebounceMS: 250},
		Snapshot: SnapshotConfig{Width: 800, Height: 600, Background: "#ffffff"},
		Log:      LogConfig{Level: "info"},
	}
}

// ConfigDir returns the pdbview config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pdbview")
}

// CacheDir returns the pdbview cache directory path.
func CacheDir() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, "pdbview")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// ProjectFile is the name of a per-directory config override.
const ProjectFile = ".pdbview.toml"

// Load reads the config file, returning defaults if it doesn't exist. A
// .pdbview.toml found in the working directory or any parent is applied on
// top of it.
func Load() *Config {
	cfg := Default()
	if data, err := os.ReadFile(Path()); err == nil {
		_ = toml.Unmarshal(data, cfg)
	}
	if p := findProjectConfig(); p != "" {
		if data, err := os.ReadFile(p); err == nil {
			_ = toml.Unmarshal(data, cfg)
		}
	}
	return cfg
}

// findProjectConfig walks up from the working directory looking for
// ProjectFile.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, ProjectFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}

// State returns the configured view defaults. Invalid values fall back to
// the built-in defaults.
func (v ViewConfig) State() view.State {
	s := view.Default().WithHighlight(v.Highlight)
	if r, err := view.ParseRepresentation(v.Representation); err == nil {
		s = s.WithRepresentation(r)
	}
	if f, err := view.ParseFilter(v.Filter); err == nil {
		s = s.WithFilter(f)
	}
	if z, err := view.ParseSize(v.Size); err == nil {
		s = s.WithSize(z)
	}
	if view.ValidRadius(v.ProteinRadius) && v.ProteinRadius > 0 {
		s = s.WithProteinRadius(v.ProteinRadius)
	}
	if view.ValidRadius(v.WaterRadius) && v.WaterRadius > 0 {
		s = s.WithWaterRadius(v.WaterRadius)
	}
	return s
}

// Timeout returns the fetch timeout.
func (f FetchConfig) Timeout() time.Duration {
	if f.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(f.TimeoutSecs) * time.Second
}

// CacheTTL returns how long downloaded structures stay fresh.
func (f FetchConfig) CacheTTL() time.Duration {
	return time.Duration(f.CacheTTLHours) * time.Hour
}

// WatchDebounce returns the file watcher debounce interval.
func (s ServeConfig) WatchDebounce() time.Duration {
	if s.WatchDebounceMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(s.WatchDebounceMS) * time.Millisecond
}
