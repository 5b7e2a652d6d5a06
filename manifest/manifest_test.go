package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "life"
version = "0.1.0"

[vm]
stack-size = 64
dictionary-size = 1000
data-size = 65536
token-size = 256
call-depth = 100

[words]
floats = false
unsafe = false

[load]
paths = ["lib", "/opt/tusl"]
files = ["init.tsl"]

[dependencies]
colors = { path = "../colors" }

[image]
output = "life.image"

[log]
verbosity = 2
file = "tusl.log"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "life" || m.Project.Version != "0.1.0" {
		t.Errorf("project = %+v", m.Project)
	}
	if dep, ok := m.Dependencies["colors"]; !ok || dep.Path != "../colors" {
		t.Errorf("colors dep = %v, want path ../colors", m.Dependencies["colors"])
	}
	if m.Log.Verbosity != 2 || m.Log.File != "tusl.log" {
		t.Errorf("log = %+v", m.Log)
	}

	cfg := m.VMConfig()
	if cfg.StackSize != 64 || cfg.DictionarySize != 1000 || cfg.DataSize != 65536 ||
		cfg.TokenSize != 256 || cfg.CallDepth != 100 {
		t.Errorf("sizes = %+v", cfg)
	}
	if cfg.Floats || cfg.Unsafe {
		t.Errorf("floats=%v unsafe=%v, want both false", cfg.Floats, cfg.Unsafe)
	}
	if !cfg.Prelude {
		t.Error("prelude should default to true")
	}
	wantPaths := []string{filepath.Join(m.Dir, "lib"), "/opt/tusl"}
	if len(cfg.LoadPaths) != 2 || cfg.LoadPaths[0] != wantPaths[0] || cfg.LoadPaths[1] != wantPaths[1] {
		t.Errorf("load paths = %v, want %v", cfg.LoadPaths, wantPaths)
	}
	if files := m.StartupFiles(); len(files) != 1 || files[0] != filepath.Join(m.Dir, "init.tsl") {
		t.Errorf("startup files = %v", files)
	}
	if m.ImagePath() != filepath.Join(m.Dir, "life.image") {
		t.Errorf("image path = %q", m.ImagePath())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Default load path should be "lib"
	if len(m.Load.Paths) != 1 || m.Load.Paths[0] != "lib" {
		t.Errorf("default load paths = %v, want [lib]", m.Load.Paths)
	}
	cfg := m.VMConfig()
	if !cfg.Floats || !cfg.Unsafe || !cfg.Prelude {
		t.Errorf("word sets = %+v, want all enabled", cfg)
	}
	if cfg.StackSize <= 0 || cfg.DataSize <= 0 {
		t.Errorf("sizes not defaulted: %+v", cfg)
	}
	if m.ImagePath() != "" {
		t.Errorf("image path = %q, want empty", m.ImagePath())
	}
}

func TestLoadManifestParseError(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[vm\nstack-size = ")
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, `[project]
name = "found-project"
`)

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no tusl.toml exists")
	}
}

func TestLockFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "lock.toml")

	lf := &LockFile{
		Deps: []LockedDep{
			{Name: "turtle", Git: "https://example.com/turtle-tsl", Commit: "abc123", Tag: "v0.5.0"},
			{Name: "helper", Path: "../helper"},
		},
	}

	if err := WriteLock(lockPath, lf); err != nil {
		t.Fatalf("WriteLock failed: %v", err)
	}

	loaded, err := ReadLock(lockPath)
	if err != nil {
		t.Fatalf("ReadLock failed: %v", err)
	}

	if len(loaded.Deps) != 2 {
		t.Fatalf("expected 2 deps, got %d", len(loaded.Deps))
	}
	if loaded.Deps[0].Name != "turtle" || loaded.Deps[0].Commit != "abc123" {
		t.Errorf("dep[0] = %+v", loaded.Deps[0])
	}

	found := loaded.FindLockedDep("helper")
	if found == nil || found.Path != "../helper" {
		t.Errorf("FindLockedDep(helper) = %v, want path ../helper", found)
	}
	if notFound := loaded.FindLockedDep("nonexistent"); notFound != nil {
		t.Errorf("FindLockedDep(nonexistent) = %v, want nil", notFound)
	}
}

func TestReadLockNotFound(t *testing.T) {
	lf, err := ReadLock("/nonexistent/path/lock.toml")
	if err != nil {
		t.Errorf("ReadLock should return nil,nil for missing file, got err: %v", err)
	}
	if lf != nil {
		t.Errorf("ReadLock should return nil for missing file, got %v", lf)
	}
	if lf.FindLockedDep("anything") != nil {
		t.Error("nil lock file found a dependency")
	}
}
