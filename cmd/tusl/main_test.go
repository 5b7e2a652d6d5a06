package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test harness
// ---------------------------------------------------------------------------

type harness struct {
	cli    *cli
	stdout bytes.Buffer
	stderr bytes.Buffer
	exits  []int
}

// newHarness runs from an empty directory so no tusl.toml above the
// source tree is picked up.
func newHarness(t *testing.T, stdin string) *harness {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
	h := &harness{}
	h.cli = &cli{
		stdin:  strings.NewReader(stdin),
		stdout: &h.stdout,
		stderr: &h.stderr,
		exit:   func(code int) { h.exits = append(h.exits, code) },
	}
	return h
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// Sources
// ---------------------------------------------------------------------------

func TestRunSourceArguments(t *testing.T) {
	h := newHarness(t, "")
	if code := h.cli.run([]string{"2 3 + .", "10 4 - ."}); code != 0 {
		t.Fatalf("exit status %d, stderr %q", code, h.stderr.String())
	}
	if got := h.stdout.String(); got != "5 6 " {
		t.Errorf("stdout = %q, want %q", got, "5 6 ")
	}
}

func TestRunFailingSourceSetsStatus(t *testing.T) {
	h := newHarness(t, "")
	code := h.cli.run([]string{"frob", "1 ."})
	if code != 1 {
		t.Errorf("exit status %d, want 1", code)
	}
	if !strings.Contains(h.stderr.String(), "frob ?") {
		t.Errorf("stderr = %q, want an undefined word report", h.stderr.String())
	}
	// Later sources still run.
	if h.stdout.String() != "1 " {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestRunFiles(t *testing.T) {
	h := newHarness(t, "")
	writeFile(t, "sq.tsl", ":sq z-  z z * ;\n")
	if code := h.cli.run([]string{"-f", "sq.tsl", "7 sq ."}); code != 0 {
		t.Fatalf("exit status %d, stderr %q", code, h.stderr.String())
	}
	if got := h.stdout.String(); got != "49 " {
		t.Errorf("stdout = %q, want %q", got, "49 ")
	}
}

func TestRunMissingFile(t *testing.T) {
	h := newHarness(t, "")
	if code := h.cli.run([]string{"-f", "nope.tsl"}); code != 1 {
		t.Errorf("exit status %d, want 1", code)
	}
}

func TestRunStdinBatch(t *testing.T) {
	h := newHarness(t, "1 2 + .\n4 .\n")
	if code := h.cli.run(nil); code != 0 {
		t.Fatalf("exit status %d, stderr %q", code, h.stderr.String())
	}
	if got := h.stdout.String(); got != "3 4 " {
		t.Errorf("stdout = %q, want %q", got, "3 4 ")
	}
}

func TestRunInteractive(t *testing.T) {
	h := newHarness(t, "1 2\n")
	if code := h.cli.run([]string{"-i"}); code != 0 {
		t.Fatalf("exit status %d, stderr %q", code, h.stderr.String())
	}
	if !strings.Contains(h.stdout.String(), "( <2> ") {
		t.Errorf("stdout = %q, want a prompt showing two cells", h.stdout.String())
	}
}

func TestRunNoPrelude(t *testing.T) {
	h := newHarness(t, "")
	if code := h.cli.run([]string{"-no-prelude", "true"}); code != 1 {
		t.Errorf("exit status %d, want 1 without the prelude", code)
	}
}

func TestExitWord(t *testing.T) {
	h := newHarness(t, "")
	h.cli.run([]string{"7 . 3 exit"})
	if len(h.exits) != 1 || h.exits[0] != 3 {
		t.Errorf("exits = %v, want [3]", h.exits)
	}
	if h.stdout.String() != "7 " {
		t.Errorf("output not flushed before exit: %q", h.stdout.String())
	}
}

// ---------------------------------------------------------------------------
// Manifest and images
// ---------------------------------------------------------------------------

func TestRunWithManifest(t *testing.T) {
	h := newHarness(t, "")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tusl.toml"), `
[project]
name = "demo"

[load]
files = ["init.tsl"]
`)
	writeFile(t, filepath.Join(dir, "init.tsl"), ":answer 42 ;\n")

	if code := h.cli.run([]string{"-config", dir, "answer ."}); code != 0 {
		t.Fatalf("exit status %d, stderr %q", code, h.stderr.String())
	}
	if got := h.stdout.String(); got != "42 " {
		t.Errorf("stdout = %q, want %q", got, "42 ")
	}
}

func TestRunManifestFoundFromWorkingDirectory(t *testing.T) {
	h := newHarness(t, "")
	writeFile(t, "tusl.toml", "[words]\nprelude = false\n")
	if code := h.cli.run([]string{"true"}); code != 1 {
		t.Errorf("exit status %d, want 1 with the prelude disabled by the manifest", code)
	}
}

func TestRunBadManifest(t *testing.T) {
	h := newHarness(t, "")
	writeFile(t, "tusl.toml", "[project\n")
	if code := h.cli.run([]string{"1 ."}); code != 1 {
		t.Errorf("exit status %d, want 1", code)
	}
	if !strings.Contains(h.stderr.String(), "manifest") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
}

func TestSaveAndRestoreImage(t *testing.T) {
	img := filepath.Join(t.TempDir(), "app.img")

	h := newHarness(t, "")
	if code := h.cli.run([]string{"-save-image", img, ":five 5 ;"}); code != 0 {
		t.Fatalf("save: exit status %d, stderr %q", code, h.stderr.String())
	}
	if _, err := os.Stat(img); err != nil {
		t.Fatalf("image not written: %v", err)
	}

	h2 := newHarness(t, "")
	if code := h2.cli.run([]string{"-image", img, "five ."}); code != 0 {
		t.Fatalf("restore: exit status %d, stderr %q", code, h2.stderr.String())
	}
	if got := h2.stdout.String(); got != "5 " {
		t.Errorf("stdout = %q, want %q", got, "5 ")
	}
}

func TestRestoreMissingImage(t *testing.T) {
	h := newHarness(t, "")
	if code := h.cli.run([]string{"-image", "missing.img", "1 ."}); code != 1 {
		t.Errorf("exit status %d, want 1", code)
	}
}

// ---------------------------------------------------------------------------
// Flags and subcommands
// ---------------------------------------------------------------------------

func TestVerbosityFlag(t *testing.T) {
	h := newHarness(t, "")
	var opts options
	fs := h.cli.flags(&opts)
	if err := fs.Parse([]string{"-v", "-v", "-f", "a.tsl", "-f", "b.tsl", "src"}); err != nil {
		t.Fatal(err)
	}
	if opts.verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", opts.verbosity)
	}
	if len(opts.files) != 2 || opts.files[1] != "b.tsl" {
		t.Errorf("files = %v", opts.files)
	}
	if fs.NArg() != 1 {
		t.Errorf("args = %v", fs.Args())
	}
}

func TestUnknownFlag(t *testing.T) {
	h := newHarness(t, "")
	if code := h.cli.run([]string{"-bogus"}); code != 2 {
		t.Errorf("exit status %d, want 2", code)
	}
}

func TestDepsWithoutManifest(t *testing.T) {
	h := newHarness(t, "")
	if code := h.cli.deps(nil); code != 1 {
		t.Errorf("exit status %d, want 1", code)
	}
}

func TestDepsWithLocalPath(t *testing.T) {
	h := newHarness(t, "")
	lib := t.TempDir()
	writeFile(t, "tusl.toml", "[dependencies.util]\npath = \""+filepath.ToSlash(lib)+"\"\n")

	if code := h.cli.deps(nil); code != 0 {
		t.Fatalf("exit status %d, stderr %q", code, h.stderr.String())
	}
	if !strings.HasPrefix(h.stdout.String(), "util\t") {
		t.Errorf("stdout = %q", h.stdout.String())
	}
	if _, err := os.Stat(filepath.Join(".tusl", "lock.toml")); err != nil {
		t.Errorf("lock file not written: %v", err)
	}
}
