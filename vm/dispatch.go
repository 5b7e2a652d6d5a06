package vm

import (
	"strconv"
	"strings"
)

// Mode is the dispatcher state. Its value is the character that selects it.
type Mode byte

const (
	// ModeRun executes words as they are read. Inside a definition, "("
	// opens a group that runs immediately and ")" resumes compiling.
	ModeRun Mode = '('
	// ModeDefine compiles words into the open colon-definition.
	ModeDefine Mode = ')'
	// ModeColon takes the next token as the name of a new definition.
	ModeColon Mode = ':'
	// ModeQuote pushes the dictionary index of each word instead of
	// running it.
	ModeQuote Mode = '\''
)

// Mode returns the dispatcher's current mode.
func (vm *VM) Mode() Mode {
	return vm.mode
}

// dispatch acts on one token as the current mode directs.
func (vm *VM) dispatch(token string) {
	switch token[0] {
	case '\\':
		vm.skipLine()
		return

	case '\'', ':', '(', ')':
		vm.mode = Mode(token[0])
		return

	case '$':
		vm.literal(Cell(token[1]))
		return

	case '"', '`':
		vm.literal(vm.compileString(token[1:]))
		return
	}

	switch vm.mode {
	case ModeQuote:
		word := vm.dict.lookup(token)
		if word == NotFound {
			vm.raise(ErrUndefinedWord, "%s ?", token)
		}
		vm.Push(Cell(word))

	case ModeColon:
		vm.alignHere()
		vm.install(Word{
			Name:  token,
			Kind:  KindSequence,
			Datum: vm.Here(),
			Place: vm.tokenPlace,
		})
		vm.mode = ModeDefine

	default:
		if vm.mode == ModeDefine && token == ";" {
			vm.compile(Exit)
			vm.mode = ModeRun
			return
		}
		if word := vm.dict.lookup(token); word != NotFound {
			if vm.mode == ModeRun {
				vm.execute(Cell(word))
			} else {
				vm.compile(Cell(word))
			}
			return
		}
		value, ok := parseNumber(token)
		if !ok {
			vm.raise(ErrUndefinedWord, "%s ?", token)
		}
		vm.literal(value)
	}
}

// literal pushes c in run mode and compiles a push of c otherwise.
func (vm *VM) literal(c Cell) {
	if vm.mode == ModeRun {
		vm.Push(c)
	} else {
		vm.compilePush(c)
	}
}

// parseNumber reads text as a signed 32-bit integer, else an unsigned
// 32-bit integer, else the bits of a float32. Integer prefixes 0x, 0o, 0b
// and a leading 0 for octal are accepted.
func parseNumber(text string) (Cell, bool) {
	// Go's base-prefix syntax would otherwise accept 1_000.
	if text == "" || strings.IndexByte(text, '_') >= 0 {
		return 0, false
	}
	if v, err := strconv.ParseInt(text, 0, 32); err == nil {
		return Cell(v), true
	}
	if v, err := strconv.ParseUint(text, 0, 32); err == nil {
		return Cell(uint32(v)), true
	}
	if f, err := strconv.ParseFloat(text, 32); err == nil {
		return FromFloat32(float32(f)), true
	}
	return 0, false
}
