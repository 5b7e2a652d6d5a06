package vm

import (
	"io"
	"os"
	"strconv"
)

// ---------------------------------------------------------------------------
// VM: the tusl virtual machine
// ---------------------------------------------------------------------------

// Config sizes a VM and selects its optional word sets.
type Config struct {
	StackSize      int // cells
	DictionarySize int // words
	DataSize       int // bytes
	TokenSize      int // bytes
	CallDepth      int // nested (non-tail) sequence invocations

	Floats  bool // f+ f- f* f/ f.
	Unsafe  bool // >data @u !u c@u c!u +!u load
	Prelude bool // the embedded basics library

	// LoadPaths are searched, in order, for relative file names given to
	// load. The current directory is always tried first.
	LoadPaths []string
}

// DefaultConfig returns the configuration used by NewVM.
func DefaultConfig() Config {
	return Config{
		StackSize:      256,
		DictionarySize: 4096,
		DataSize:       256 * 1024,
		TokenSize:      1024,
		CallDepth:      4096,
		Floats:         true,
		Unsafe:         true,
		Prelude:        true,
	}
}

// normalize fills in zero sizes from the defaults.
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.StackSize <= 0 {
		c.StackSize = d.StackSize
	}
	if c.DictionarySize <= 0 {
		c.DictionarySize = d.DictionarySize
	}
	if c.DataSize <= 0 {
		c.DataSize = d.DataSize
	}
	if c.TokenSize <= 0 {
		c.TokenSize = d.TokenSize
	}
	if c.CallDepth <= 0 {
		c.CallDepth = d.CallDepth
	}
	return c
}

// VM is a tusl virtual machine. A VM is not safe for concurrent use.
type VM struct {
	stack  *Stack
	data   *DataSpace
	dict   *Dictionary
	input  *InputStream
	output *OutputStream
	mode   Mode

	pc       Cell // instruction pointer of the running sequence
	depth    int
	maxDepth int

	handlers   *HandlerFrame
	tokenPlace Place
	tokenBuf   []byte
	tokenSize  int
	loadPaths  []string

	// OnError is called with every raised error before unwinding.
	OnError ErrorHandler
	// Tracer, if set, sees every instruction before it runs.
	Tracer Tracer
	// Diagnostics receives error reports and trace output.
	Diagnostics io.Writer
	// Exit terminates the process when an error is raised outside of any
	// handler frame.
	Exit func(code int)
}

// NewVM returns a VM with the default configuration.
func NewVM() *VM {
	vm, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return vm
}

// New returns a VM configured by cfg, with the standard words installed
// and, if requested, the float and unsafe words and the prelude.
func New(cfg Config) (*VM, error) {
	cfg = cfg.normalize()
	vm := &VM{
		stack:       newStack(cfg.StackSize),
		data:        newDataSpace(cfg.DataSize),
		dict:        newDictionary(cfg.DictionarySize),
		input:       NewStringInput("", ""),
		output:      NewOutput(os.Stdout),
		mode:        ModeRun,
		maxDepth:    cfg.CallDepth,
		tokenBuf:    make([]byte, 0, cfg.TokenSize),
		tokenSize:   cfg.TokenSize,
		loadPaths:   cfg.LoadPaths,
		OnError:     DefaultErrorHandler,
		Diagnostics: os.Stderr,
		Exit:        os.Exit,
	}

	err := vm.guard(func() {
		vm.registerSpecialWords()
		vm.registerCompilerPrimitives()
		vm.registerIntegerPrimitives()
		vm.registerMemoryPrimitives()
		vm.registerIOPrimitives()
		vm.registerControlPrimitives()
		vm.registerShortcutPrimitives()
		vm.registerStackPrimitives()
		if cfg.Floats {
			vm.registerFloatPrimitives()
		}
		if cfg.Unsafe {
			vm.registerUnsafePrimitives()
		}
	})
	if err != nil {
		return nil, err
	}
	if cfg.Prelude {
		if err := vm.LoadPrelude(); err != nil {
			return nil, err
		}
	}
	log.Debugf("vm ready: %d words, %d bytes of data space", vm.dict.Len(), vm.data.Size())
	return vm, nil
}

// registerSpecialWords installs the opcodes at the reserved indices.
func (vm *VM) registerSpecialWords() {
	for _, name := range []string{
		";", "<<literal>>", "<<branch>>",
		"z", "y", "x", "w",
		"z-", "yz-", "xyz-", "wxyz-",
		";will", "<<will>>",
	} {
		vm.install(Word{Name: name, Kind: KindSpecial})
	}
}

// SetOutput directs program output to w, flushing what was buffered for
// the previous writer. The switch happens even when that flush fails; the
// flush error is returned.
func (vm *VM) SetOutput(w io.Writer) error {
	err := vm.output.Flush()
	vm.output = NewOutput(w)
	return err
}

// Flush writes out buffered program output.
func (vm *VM) Flush() error {
	return vm.output.Flush()
}

// Close flushes output and releases the current input stream.
func (vm *VM) Close() error {
	err := vm.output.Flush()
	if cerr := vm.input.Close(); err == nil {
		err = cerr
	}
	return err
}

// Run executes the newest word called name.
func (vm *VM) Run(name string) error {
	return vm.guard(func() {
		defer vm.output.Flush()
		word := vm.dict.lookup(name)
		if word == NotFound {
			vm.raise(ErrUndefinedWord, "%s ?", name)
		}
		vm.execute(Cell(word))
	})
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

func (vm *VM) putBytes(p []byte) {
	if err := vm.output.write(p); err != nil {
		vm.raise(ErrIO, "Write error: %v", err)
	}
}

func (vm *VM) putByte(c byte) {
	vm.putBytes([]byte{c})
}

func (vm *VM) putString(s string) {
	vm.putBytes([]byte(s))
}

func (vm *VM) putDecimal(c Cell) {
	vm.putString(strconv.Itoa(int(c)))
}

// prompt shows the mode and, if the stack is not empty, its depth.
func (vm *VM) prompt() {
	vm.putByte(byte(vm.mode))
	vm.putByte(' ')
	if depth := vm.stack.Depth(); depth > 0 {
		vm.putString("<" + strconv.Itoa(depth) + "> ")
	}
	if err := vm.output.Flush(); err != nil {
		vm.raise(ErrIO, "Write error: %v", err)
	}
}
