package vm

import "fmt"

// ---------------------------------------------------------------------------
// State export and restore
// ---------------------------------------------------------------------------

// State is a copy of everything a program can change in a VM apart from
// the value stack: the dictionary and the data space.
type State struct {
	Words []Word
	Here  Cell
	There Cell
	Data  []byte
}

// State returns a copy of the VM's dictionary and data space.
func (vm *VM) State() State {
	data := make([]byte, len(vm.data.mem))
	copy(data, vm.data.mem)
	return State{
		Words: vm.Words(),
		Here:  Cell(vm.data.here),
		There: Cell(vm.data.there),
		Data:  data,
	}
}

// hostKind reports whether words of kind k carry a Go function, which a
// State cannot hold.
func hostKind(k Kind) bool {
	return k == KindSpecial || k == KindPrimitive || k == KindNative
}

// Restore replaces the dictionary and data space with s. Words backed by
// Go functions are not carried by a State, so every such word in s must
// already be installed in the VM at the same index, with the same name
// and kind. The value stack is cleared.
func (vm *VM) Restore(s State) error {
	if len(s.Data) != len(vm.data.mem) {
		return fmt.Errorf("restore: data space is %d bytes, state has %d", len(vm.data.mem), len(s.Data))
	}
	if len(s.Words) > cap(vm.dict.words) {
		return fmt.Errorf("restore: state has %d words, dictionary holds %d", len(s.Words), cap(vm.dict.words))
	}
	if s.Here < 0 || s.Here > s.There || int(s.There) > len(s.Data) {
		return fmt.Errorf("restore: bad data space bounds here=%d there=%d", s.Here, s.There)
	}

	words := make([]Word, len(s.Words), cap(vm.dict.words))
	for i, w := range s.Words {
		if !hostKind(w.Kind) {
			words[i] = Word{Name: w.Name, Kind: w.Kind, Datum: w.Datum, Place: w.Place}
			continue
		}
		if i >= len(vm.dict.words) {
			return fmt.Errorf("restore: host word %q (#%d) is not installed", w.Name, i)
		}
		have := vm.dict.words[i]
		if have.Name != w.Name || have.Kind != w.Kind {
			return fmt.Errorf("restore: word #%d is %s %q here, %s %q in state",
				i, have.Kind, have.Name, w.Kind, w.Name)
		}
		words[i] = have
	}

	vm.dict.words = words
	copy(vm.data.mem, s.Data)
	vm.data.here = int(s.Here)
	vm.data.there = int(s.There)
	vm.stack.clear()
	vm.mode = ModeRun
	log.Infof("restored %d words, here=%d there=%d", len(words), s.Here, s.There)
	return nil
}
