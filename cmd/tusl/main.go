// tusl runs tusl programs: source strings from the command line, files,
// standard input, or an interactive session.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/term"

	"github.com/chazu/tusl/manifest"
	"github.com/chazu/tusl/server"
	"github.com/chazu/tusl/vm"
	"github.com/chazu/tusl/vm/snapshot"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("tusl")

// options are the parsed command-line flags.
type options struct {
	files       fileList
	interactive bool
	config      string
	noPrelude   bool
	trace       bool
	verbosity   verbosity
	logFile     string
	image       string
	saveImage   string
	lsp         bool
}

// fileList collects a repeatable -f flag.
type fileList []string

func (f *fileList) String() string     { return strings.Join(*f, ",") }
func (f *fileList) Set(v string) error { *f = append(*f, v); return nil }

// verbosity counts -v flags.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }
func (v *verbosity) Set(s string) error {
	if s == "true" {
		*v++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*v = verbosity(n)
	return nil
}

// cli is one invocation with its streams; main uses the process's own.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	exit   func(code int)
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, exit: os.Exit}
	if len(os.Args) > 1 && os.Args[1] == "deps" {
		os.Exit(c.deps(os.Args[2:]))
	}
	os.Exit(c.run(os.Args[1:]))
}

func (c *cli) flags(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("tusl", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Var(&opts.files, "f", "Load a source file (repeatable)")
	fs.BoolVar(&opts.interactive, "i", false, "Run the interactive loop after loading sources")
	fs.StringVar(&opts.config, "config", "", "tusl.toml or its directory (default: search upward from the current directory)")
	fs.BoolVar(&opts.noPrelude, "no-prelude", false, "Do not load the prelude")
	fs.BoolVar(&opts.trace, "trace", false, "Trace execution from the start")
	fs.Var(&opts.verbosity, "v", "Increase log verbosity (repeatable)")
	fs.StringVar(&opts.logFile, "log", "", "Write logs to this file instead of stderr")
	fs.StringVar(&opts.image, "image", "", "Restore a snapshot before running")
	fs.StringVar(&opts.saveImage, "save-image", "", "Write a snapshot after running")
	fs.BoolVar(&opts.lsp, "lsp", false, "Run the language server on stdio")

	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: tusl [options] [source...]\n")
		fmt.Fprintf(c.stderr, "       tusl deps [-config path]\n\n")
		fmt.Fprintf(c.stderr, "Each source argument is a program text. With no sources, standard\n")
		fmt.Fprintf(c.stderr, "input is run interactively if it is a terminal, else loaded.\n\n")
		fmt.Fprintf(c.stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(c.stderr, "\nExamples:\n")
		fmt.Fprintf(c.stderr, "  tusl '2 3 + .'               # Prints 5\n")
		fmt.Fprintf(c.stderr, "  tusl -f lib/util.tsl -i      # Load a file, then go interactive\n")
		fmt.Fprintf(c.stderr, "  tusl -save-image app.img -f app.tsl\n")
		fmt.Fprintf(c.stderr, "  tusl -image app.img 'main'\n")
	}
	return fs
}

// run executes one invocation and returns the process exit status.
func (c *cli) run(args []string) int {
	var opts options
	fs := c.flags(&opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	m, err := findManifest(opts.config)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error loading manifest: %v\n", err)
		return 1
	}
	configureLogging(opts, m)

	v, err := c.newVM(opts, m)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	defer v.Close()

	if opts.image != "" {
		if err := snapshot.Load(v, opts.image); err != nil {
			fmt.Fprintf(c.stderr, "Error loading image: %v\n", err)
			return 1
		}
	}
	if opts.trace {
		v.Tracer = vm.DefaultTracer
	}

	if opts.lsp {
		// stdout carries the protocol.
		if err := v.SetOutput(c.stderr); err != nil {
			log.Warningf("flushing output: %s", err)
		}
		c.loadStartup(v, opts, m)
		if err := server.NewLSP(v).Run(); err != nil {
			fmt.Fprintf(c.stderr, "Language server error: %v\n", err)
			return 1
		}
		return 0
	}

	status := 0
	fail := func(err error) {
		if err != nil {
			log.Debugf("load failed: %s", err)
			status = 1
		}
	}

	if !c.loadStartup(v, opts, m) {
		status = 1
	}
	sources := fs.Args()
	for _, src := range sources {
		fail(v.LoadString(src))
	}

	noSources := len(opts.files) == 0 && len(sources) == 0
	switch {
	case opts.interactive || (noSources && isTerminal(c.stdin)):
		if err := v.Interactive(c.stdin); err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			status = 1
		}
	case noSources:
		fail(v.LoadReader(c.stdin, "<stdin>"))
	}

	imagePath := opts.saveImage
	if imagePath == "" && m != nil {
		imagePath = m.ImagePath()
	}
	if imagePath != "" {
		if err := snapshot.Save(v, imagePath); err != nil {
			fmt.Fprintf(c.stderr, "Error saving image: %v\n", err)
			status = 1
		}
	}
	return status
}

// newVM builds a VM from the manifest, the dependency load paths and the
// flags, in that order of precedence, and wires it to the cli's streams.
func (c *cli) newVM(opts options, m *manifest.Manifest) (*vm.VM, error) {
	cfg := vm.DefaultConfig()
	if m != nil {
		cfg = m.VMConfig()
		depPaths, err := manifest.NewResolver(m).LoadPaths()
		if err != nil {
			return nil, fmt.Errorf("resolving dependencies: %w", err)
		}
		cfg.LoadPaths = append(cfg.LoadPaths, depPaths...)
	}
	if opts.noPrelude {
		cfg.Prelude = false
	}

	v, err := vm.New(cfg)
	if err != nil {
		return nil, err
	}
	v.SetOutput(c.stdout)
	v.Diagnostics = c.stderr
	v.Exit = c.exit

	if _, err := v.InstallNative("exit", vm.Void1(func(code vm.Cell) {
		v.Flush()
		c.exit(int(code))
	})); err != nil {
		return nil, err
	}
	return v, nil
}

// loadStartup loads the manifest's startup files and the -f files. Errors
// have already been reported by the VM; the result says whether all
// loaded cleanly.
func (c *cli) loadStartup(v *vm.VM, opts options, m *manifest.Manifest) bool {
	var paths []string
	if m != nil {
		paths = m.StartupFiles()
	}
	ok := true
	for _, path := range append(paths, opts.files...) {
		if err := v.LoadFile(path); err != nil {
			log.Debugf("load %s failed: %s", path, err)
			ok = false
		}
	}
	return ok
}

// deps resolves the manifest's dependencies, writes the lock file and
// lists what was resolved.
func (c *cli) deps(args []string) int {
	fs := flag.NewFlagSet("tusl deps", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	config := fs.String("config", "", "Path to tusl.toml")
	v := fs.Int("v", 0, "Log verbosity")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	commonlog.Configure(*v-1, nil)

	m, err := findManifest(*config)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error loading manifest: %v\n", err)
		return 1
	}
	if m == nil {
		fmt.Fprintf(c.stderr, "Error: no %s found\n", manifest.FileName)
		return 1
	}

	resolved, err := manifest.NewResolver(m).Resolve()
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	for _, d := range resolved {
		fmt.Fprintf(c.stdout, "%s\t%s\n", d.Name, d.LocalPath)
	}
	return 0
}

// findManifest loads the manifest at path, or searches upward from the
// working directory when path is empty. A missing manifest is not an
// error in the search case.
func findManifest(path string) (*manifest.Manifest, error) {
	if path != "" {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			path = filepath.Dir(path)
		}
		return manifest.Load(path)
	}
	return manifest.FindAndLoad(".")
}

// configureLogging sets up commonlog. Warnings are shown by default; each
// -v raises the level. The manifest's [log] section applies when no flag
// says otherwise.
func configureLogging(opts options, m *manifest.Manifest) {
	level := int(opts.verbosity) - 1
	path := opts.logFile
	if m != nil {
		if opts.verbosity == 0 && m.Log.Verbosity != 0 {
			level = m.Log.Verbosity - 1
		}
		if path == "" {
			path = m.Log.File
		}
	}
	if path == "" {
		commonlog.Configure(level, nil)
	} else {
		commonlog.Configure(level, &path)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
