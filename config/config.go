// Package config handles loxheap.toml runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/chazu/loxheap/vm"

	_ "github.com/tliron/commonlog/simple"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "loxheap.toml"

// ErrNotFound is returned by FindAndLoad when no configuration file exists
// in the start directory or any of its parents.
var ErrNotFound = errors.New("no " + FileName + " found")

// Config represents a loxheap.toml file.
type Config struct {
	GC       GC       `toml:"gc"`
	Log      Logging  `toml:"log"`
	Snapshot Snapshot `toml:"snapshot"`

	// Dir is the directory containing the loxheap.toml file (set at load time).
	Dir string `toml:"-"`
}

// GC tunes the collector.
type GC struct {
	Stress           bool `toml:"stress"`
	Log              bool `toml:"log"`
	GrowFactor       int  `toml:"grow-factor"`
	InitialThreshold int  `toml:"initial-threshold"`
}

// Logging configures commonlog.
type Logging struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Snapshot configures heap snapshot output.
type Snapshot struct {
	Output string `toml:"output"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses the loxheap.toml file in dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if c.GC.GrowFactor < 0 {
		return nil, fmt.Errorf("%s: gc.grow-factor must not be negative", path)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a loxheap.toml file, then
// loads it. Returns ErrNotFound if there is none.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNotFound
		}
		dir = parent
	}
}

func (c *Config) applyDefaults() {
	if c.GC.GrowFactor == 0 {
		c.GC.GrowFactor = vm.DefaultGrowFactor
	}
	if c.GC.InitialThreshold <= 0 {
		c.GC.InitialThreshold = vm.DefaultInitialNextGC
	}
	if c.Snapshot.Output == "" {
		c.Snapshot.Output = "heap.snap"
	}
}

// HeapConfig converts the [gc] section into a vm.Config.
func (c *Config) HeapConfig() vm.Config {
	return vm.Config{
		StressGC:      c.GC.Stress,
		LogGC:         c.GC.Log,
		GrowFactor:    c.GC.GrowFactor,
		InitialNextGC: c.GC.InitialThreshold,
	}
}

// SnapshotPath returns the snapshot output path, relative to Dir when the
// configured path is relative.
func (c *Config) SnapshotPath() string {
	if filepath.IsAbs(c.Snapshot.Output) || c.Dir == "" {
		return c.Snapshot.Output
	}
	return filepath.Join(c.Dir, c.Snapshot.Output)
}

// Configure applies the [log] section to commonlog. An empty file logs to
// stderr.
func (l Logging) Configure() {
	var path *string
	if l.File != "" {
		path = &l.File
	}
	commonlog.Configure(l.Verbosity, path)
}
