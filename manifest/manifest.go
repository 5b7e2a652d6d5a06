// Package manifest handles tusl.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/tusl/vm"
)

// FileName is the name of the project configuration file.
const FileName = "tusl.toml"

// Manifest represents a tusl.toml project configuration.
type Manifest struct {
	Project      Project               `toml:"project"`
	VM           VMSection             `toml:"vm"`
	Words        WordsSection          `toml:"words"`
	Load         LoadSection           `toml:"load"`
	Dependencies map[string]Dependency `toml:"dependencies"`
	Image        ImageConfig           `toml:"image"`
	Log          LogSection            `toml:"log"`

	// Dir is the directory containing the tusl.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// VMSection sizes the virtual machine. Zero means the VM default.
type VMSection struct {
	StackSize      int `toml:"stack-size"`
	DictionarySize int `toml:"dictionary-size"`
	DataSize       int `toml:"data-size"`
	TokenSize      int `toml:"token-size"`
	CallDepth      int `toml:"call-depth"`
}

// WordsSection selects the optional word sets. Unset keys keep the VM
// default.
type WordsSection struct {
	Floats  *bool `toml:"floats"`
	Unsafe  *bool `toml:"unsafe"`
	Prelude *bool `toml:"prelude"`
}

// LoadSection configures source locations.
type LoadSection struct {
	Paths []string `toml:"paths"`
	Files []string `toml:"files"`
}

// Dependency is a library of source files, taken from a local directory
// or a git repository.
type Dependency struct {
	Git  string `toml:"git"`
	Tag  string `toml:"tag"`
	Path string `toml:"path"`
}

// ImageConfig configures snapshot output.
type ImageConfig struct {
	Output string `toml:"output"`
}

// LogSection configures logging.
type LogSection struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Load parses a tusl.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(m.Load.Paths) == 0 {
		m.Load.Paths = []string{"lib"}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a tusl.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// LoadPathDirs returns absolute paths for the configured load paths.
func (m *Manifest) LoadPathDirs() []string {
	return m.resolve(m.Load.Paths)
}

// StartupFiles returns absolute paths of the files to load at startup.
func (m *Manifest) StartupFiles() []string {
	return m.resolve(m.Load.Files)
}

func (m *Manifest) resolve(names []string) []string {
	var paths []string
	for _, p := range names {
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.Dir, p)
		}
		paths = append(paths, p)
	}
	return paths
}

// ImagePath returns the absolute path of the configured snapshot, or ""
// if none is configured.
func (m *Manifest) ImagePath() string {
	if m.Image.Output == "" {
		return ""
	}
	return m.resolve([]string{m.Image.Output})[0]
}

// VMConfig returns the VM configuration the manifest describes, with
// the load paths filled in.
func (m *Manifest) VMConfig() vm.Config {
	cfg := vm.DefaultConfig()
	if m.VM.StackSize > 0 {
		cfg.StackSize = m.VM.StackSize
	}
	if m.VM.DictionarySize > 0 {
		cfg.DictionarySize = m.VM.DictionarySize
	}
	if m.VM.DataSize > 0 {
		cfg.DataSize = m.VM.DataSize
	}
	if m.VM.TokenSize > 0 {
		cfg.TokenSize = m.VM.TokenSize
	}
	if m.VM.CallDepth > 0 {
		cfg.CallDepth = m.VM.CallDepth
	}
	if m.Words.Floats != nil {
		cfg.Floats = *m.Words.Floats
	}
	if m.Words.Unsafe != nil {
		cfg.Unsafe = *m.Words.Unsafe
	}
	if m.Words.Prelude != nil {
		cfg.Prelude = *m.Words.Prelude
	}
	cfg.LoadPaths = m.LoadPathDirs()
	return cfg
}

// DepsDir returns the path to the .tusl/deps directory.
func (m *Manifest) DepsDir() string {
	return filepath.Join(m.Dir, ".tusl", "deps")
}

// LockFilePath returns the path to .tusl/lock.toml.
func (m *Manifest) LockFilePath() string {
	return filepath.Join(m.Dir, ".tusl", "lock.toml")
}
