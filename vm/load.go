package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SourceExt is the file extension of tusl source files.
const SourceExt = ".tsl"

// ---------------------------------------------------------------------------
// Public loaders
// ---------------------------------------------------------------------------

// LoadString runs src in run mode.
func (vm *VM) LoadString(src string) error {
	return vm.LoadSource(src, "")
}

// LoadSource runs src, reporting places against filename.
func (vm *VM) LoadSource(src, filename string) error {
	return vm.load(NewStringInput(src, filename))
}

// LoadReader runs everything read from r.
func (vm *VM) LoadReader(r io.Reader, filename string) error {
	return vm.load(NewReaderInput(r, filename))
}

// LoadFile runs the file at path, searching the load paths for relative
// names.
func (vm *VM) LoadFile(path string) error {
	return vm.guard(func() {
		defer vm.output.Flush()
		vm.loadFile(path)
	})
}

// LoadAll runs every source file under dir, in lexical order.
func (vm *VM) LoadAll(dir string) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("loadAll: invalid path %q: %w", dir, err)
	}

	var files []string
	err = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(p, SourceExt) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loadAll: walking %q: %w", dir, err)
	}
	sort.Strings(files)

	for _, file := range files {
		if err := vm.LoadFile(file); err != nil {
			return fmt.Errorf("loadAll: %w", err)
		}
	}
	return nil
}

// Interactive runs a read-eval-print loop over r. Each line is prompted
// for; an error abandons the rest of its line and the loop goes on. It
// returns at end of input, or with an error if reading fails.
func (vm *VM) Interactive(r io.Reader) error {
	in := NewReaderInput(r, "")
	return vm.guard(func() {
		vm.withInput(in, vm.interactiveLoop)
	})
}

func (vm *VM) load(in *InputStream) error {
	return vm.guard(func() {
		defer vm.output.Flush()
		vm.withInput(in, vm.loadingLoop)
	})
}

// ---------------------------------------------------------------------------
// Loops
// ---------------------------------------------------------------------------

// loadingLoop runs the current input to its end, starting in run mode.
func (vm *VM) loadingLoop() {
	vm.mode = ModeRun
	for {
		token, ok := vm.nextToken()
		if !ok {
			return
		}
		if token != "\n" {
			vm.dispatch(token)
		}
	}
}

func (vm *VM) interactiveLoop() {
	vm.mode = ModeRun
	vm.prompt()
	for {
		done := false
		err := vm.protect(func() {
			token, ok := vm.nextToken()
			switch {
			case !ok:
				done = true
			case token == "\n":
				vm.prompt()
			default:
				vm.dispatch(token)
			}
		})
		if done {
			break
		}
		if err != nil {
			if errors.Is(err, ErrIO) {
				vm.escape(err)
			}
			vm.input.discard()
			vm.prompt()
		}
	}
	vm.putByte('\n')
	vm.output.Flush()
}

// withInput runs body with in as the input stream. The previous stream
// and mode come back afterwards whether or not body fails, and in is
// closed.
func (vm *VM) withInput(in *InputStream, body func()) {
	savedInput, savedMode := vm.input, vm.mode
	vm.input = in
	defer func() {
		in.Close()
		vm.input, vm.mode = savedInput, savedMode
	}()
	if err := vm.protect(body); err != nil {
		vm.escape(err)
	}
}

// loadFile runs the named file.
func (vm *VM) loadFile(name string) {
	path := vm.resolvePath(name)
	in, err := OpenFileInput(path)
	if err != nil {
		vm.raise(ErrIO, "%s: %v", name, unwrapPathError(err))
	}
	log.Debugf("loading %s", path)
	vm.withInput(in, vm.loadingLoop)
}

// resolvePath finds name relative to the working directory, else in the
// first load path that has it. Names that exist nowhere come back
// unchanged so that the open error mentions them.
func (vm *VM) resolvePath(name string) string {
	if filepath.IsAbs(name) || fileExists(name) {
		return name
	}
	for _, dir := range vm.loadPaths {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate
		}
	}
	return name
}

// AddLoadPath appends dir to the directories searched by load.
func (vm *VM) AddLoadPath(dir string) {
	vm.loadPaths = append(vm.loadPaths, dir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func unwrapPathError(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
