package vm

import "fmt"

// ---------------------------------------------------------------------------
// Executor: the threaded-code interpreter
// ---------------------------------------------------------------------------

// Tracer is called before every instruction with the dictionary index
// about to run. Returning true stops the current sequence.
type Tracer func(vm *VM, word int) bool

// DefaultTracer prints the word's name and the stack to the VM's
// diagnostic writer.
func DefaultTracer(vm *VM, word int) bool {
	fmt.Fprintf(vm.Diagnostics, "trace: %-12s", vm.nameOf(Cell(word)))
	for _, c := range vm.stack.Cells() {
		fmt.Fprintf(vm.Diagnostics, " %d", c)
	}
	fmt.Fprintln(vm.Diagnostics)
	return false
}

// runSequence executes the compiled code starting at start. Each call
// owns exactly one handler frame: an error inside restores the caller's
// instruction pointer and is raised again one level out. Tail calls reuse
// the current call, so they add neither Go stack nor handler frames.
func (vm *VM) runSequence(start Cell) {
	if vm.depth >= vm.maxDepth {
		vm.raise(ErrCapacity, "Call depth exceeded (%d)", vm.maxDepth)
	}
	var locals [maxLocals]Cell
	callerPC := vm.pc
	vm.pc = start
	vm.depth++
	// Host panics that are not unwinds pass through protect; the caller's
	// state is restored for them too.
	defer func() {
		vm.depth--
		vm.pc = callerPC
	}()

	err := vm.protect(func() {
		for {
			word := vm.fetch(vm.pc)
			vm.pc += cellSize

			if vm.Tracer != nil && vm.Tracer(vm, int(word)) {
				return
			}

			switch {
			case word == Exit:
				return

			case word == Literal:
				vm.Push(vm.fetch(vm.pc))
				vm.pc += cellSize

			case word == Branch:
				z := vm.Pop()
				target := vm.fetch(vm.pc)
				vm.pc += cellSize
				if z == 0 {
					vm.pc = target
				}

			case word >= Local0 && word <= Local3:
				vm.Push(locals[word-Local0])

			case word >= Grab1 && word <= Grab4:
				count := int(word-Grab1) + 1
				vm.need(count)
				for i := 0; i < count; i++ {
					locals[i] = vm.Pop()
				}

			case word == Will:
				// The newest word becomes a closure: its first data
				// cell records where the rest of this script starts.
				w := vm.last()
				vm.store(w.Datum, vm.pc)
				w.Kind = KindClosure
				return

			case word >= 0 && int(word) < len(vm.dict.words):
				w := &vm.dict.words[word]
				if w.Kind == KindSequence && vm.fetch(vm.pc) == Exit {
					vm.pc = w.Datum
				} else {
					vm.invoke(word)
				}

			default:
				vm.raise(ErrUndefinedWord, "Invoked an undefined word, #%d", word)
			}
		}
	})

	if err != nil {
		vm.escape(err)
	}
}

// invoke runs the behavior of the word at index i.
func (vm *VM) invoke(i Cell) {
	w := &vm.dict.words[i]
	switch w.Kind {
	case KindConstant:
		vm.Push(w.Datum)
	case KindPrimitive:
		w.prim(vm, w)
	case KindNative:
		w.native.invoke(vm)
	case KindSequence:
		vm.runSequence(w.Datum)
	case KindClosure:
		vm.runClosure(w)
	default:
		vm.raise(ErrUndefinedWord, "execute of a sequential-only word: %d", i)
	}
}

// runClosure pushes the address of the word's private data, which follows
// its script-location cell, and runs the captured script.
func (vm *VM) runClosure(w *Word) {
	script := vm.fetch(w.Datum)
	vm.Push(w.Datum + cellSize)
	vm.runSequence(script)
}

// execute runs the word at index i outside of any compiled sequence.
func (vm *VM) execute(i Cell) {
	if vm.Tracer != nil && vm.Tracer(vm, int(i)) {
		return
	}
	switch {
	case i >= 0 && i <= lastSpecial:
		vm.raise(ErrUndefinedWord, "execute of a sequential-only word: %d", i)
	case int(i) < len(vm.dict.words):
		vm.invoke(i)
	default:
		vm.raise(ErrUndefinedWord, "Invoked an undefined word, #%d", i)
	}
}
