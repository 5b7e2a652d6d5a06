package vm

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("tusl.vm")

// warnRedefinition reports a word installed under a name already in use.
var warnRedefinition = func(name string) {
	log.Warningf("redefinition of %s", name)
}

// ---------------------------------------------------------------------------
// Words
// ---------------------------------------------------------------------------

// Kind tags a word's behavior.
type Kind uint8

const (
	// KindSpecial words are opcodes that only make sense inside a compiled
	// sequence (exit, literal, branch, locals, ;will).
	KindSpecial Kind = iota
	// KindConstant pushes Datum.
	KindConstant
	// KindPrimitive runs a built-in Go function with access to the VM.
	KindPrimitive
	// KindNative pops a fixed number of cells and calls a host function.
	KindNative
	// KindSequence runs the compiled code at data-space offset Datum.
	KindSequence
	// KindClosure pushes Datum+4 and runs the script whose location is
	// stored in the cell at Datum. Installed by ;will.
	KindClosure
)

var kindNames = [...]string{"special", "constant", "primitive", "native", "sequence", "closure"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Primitive is the Go implementation of a built-in word.
type Primitive func(vm *VM, w *Word)

// Word is a dictionary entry.
type Word struct {
	Name  string
	Kind  Kind
	Datum Cell
	Place Place // where a colon-definition was written; zero for host words

	prim   Primitive
	native Native
}

// Native returns the adapter of a KindNative word.
func (w *Word) Native() Native {
	return w.native
}

// Reserved dictionary indices. Compiled code refers to these directly, so
// they are installed first and in this order by NewVM.
const (
	Exit Cell = iota
	Literal
	Branch
	Local0
	Local1
	Local2
	Local3
	Grab1
	Grab2
	Grab3
	Grab4
	Will
	DoWill

	lastSpecial = DoWill
)

// maxLocals is the number of local slots of a sequence invocation.
const maxLocals = 4

// NotFound is returned by Lookup for unknown names.
const NotFound = -1

// ---------------------------------------------------------------------------
// Dictionary
// ---------------------------------------------------------------------------

// Dictionary is an append-only, bounded list of words. Lookup scans from
// the newest entry, so redefinitions shadow older words without removing
// them.
type Dictionary struct {
	words []Word
}

func newDictionary(size int) *Dictionary {
	return &Dictionary{words: make([]Word, 0, size)}
}

// Len returns the number of installed words.
func (d *Dictionary) Len() int {
	return len(d.words)
}

func (d *Dictionary) lookup(name string) int {
	for i := len(d.words) - 1; i >= 0; i-- {
		if d.words[i].Name == name {
			return i
		}
	}
	return NotFound
}

// install appends w. The backing array is allocated at full capacity up
// front so *Word pointers stay valid.
func (vm *VM) install(w Word) int {
	d := vm.dict
	if len(d.words) >= cap(d.words) {
		vm.raise(ErrCapacity, "Too many words")
	}
	if w.Name != "" && d.lookup(w.Name) != NotFound {
		warnRedefinition(w.Name)
	}
	d.words = append(d.words, w)
	return len(d.words) - 1
}

// last returns the most recently installed word.
func (vm *VM) last() *Word {
	d := vm.dict
	if len(d.words) == 0 {
		vm.raise(ErrUndefinedWord, "No word defined")
	}
	return &d.words[len(d.words)-1]
}

// Lookup returns the index of the newest word called name, or NotFound.
func (vm *VM) Lookup(name string) int {
	return vm.dict.lookup(name)
}

// WordAt returns a copy of the word at index i.
func (vm *VM) WordAt(i int) (Word, bool) {
	if i < 0 || i >= len(vm.dict.words) {
		return Word{}, false
	}
	return vm.dict.words[i], true
}

// Words returns a copy of the dictionary in installation order.
func (vm *VM) Words() []Word {
	out := make([]Word, len(vm.dict.words))
	copy(out, vm.dict.words)
	return out
}

// nameOf returns the word's name for diagnostics.
func (vm *VM) nameOf(i Cell) string {
	if i >= 0 && int(i) < len(vm.dict.words) {
		return vm.dict.words[i].Name
	}
	return fmt.Sprintf("#%d", i)
}

// ---------------------------------------------------------------------------
// Host registration
// ---------------------------------------------------------------------------

// InstallConstant adds a word that pushes value.
func (vm *VM) InstallConstant(name string, value Cell) (int, error) {
	var index int
	err := vm.guard(func() {
		index = vm.install(Word{Name: name, Kind: KindConstant, Datum: value})
	})
	return index, err
}

// InstallVariable allocates a cell in the data space holding initial and
// adds a word that pushes its address.
func (vm *VM) InstallVariable(name string, initial Cell) (Cell, error) {
	var addr Cell
	err := vm.guard(func() {
		vm.alignHere()
		addr = vm.Here()
		vm.compile(initial)
		vm.install(Word{Name: name, Kind: KindConstant, Datum: addr})
	})
	return addr, err
}

// InstallPrimitive adds a word implemented by p.
func (vm *VM) InstallPrimitive(name string, p Primitive) (int, error) {
	var index int
	err := vm.guard(func() {
		index = vm.install(Word{Name: name, Kind: KindPrimitive, prim: p})
	})
	return index, err
}

// InstallNative adds a word that calls a fixed-arity host function.
func (vm *VM) InstallNative(name string, n Native) (int, error) {
	var index int
	err := vm.guard(func() {
		if n.call == nil || n.Arity < 0 || n.Arity > maxArity {
			vm.raise(ErrRange, "Invalid native adapter for %s", name)
		}
		index = vm.install(Word{Name: name, Kind: KindNative, native: n})
	})
	return index, err
}

// primitive installs a built-in during bootstrap.
func (vm *VM) primitive(name string, p Primitive) {
	vm.install(Word{Name: name, Kind: KindPrimitive, prim: p})
}
