package vm

// ---------------------------------------------------------------------------
// Data-space and compiler primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerCompilerPrimitives() {
	vm.primitive("#", func(vm *VM, _ *Word) {
		vm.compilePush(vm.Pop())
	})
	vm.primitive(",", func(vm *VM, _ *Word) {
		vm.compile(vm.Pop())
	})
	vm.primitive("here", func(vm *VM, _ *Word) {
		vm.Push(vm.Here())
	})
	vm.primitive("allot", func(vm *VM, _ *Word) {
		vm.allot(vm.Pop())
	})
	vm.primitive("align!", func(vm *VM, _ *Word) {
		vm.alignHere()
	})
	// constant turns the newest word into a constant holding the top cell.
	vm.primitive("constant", func(vm *VM, _ *Word) {
		z := vm.Pop()
		w := vm.last()
		w.Kind = KindConstant
		w.Datum = z
	})
}

func (vm *VM) registerMemoryPrimitives() {
	vm.op1("@", func(z Cell) Cell { return vm.fetch(z) })
	vm.op1("c@", func(z Cell) Cell { return vm.fetchByte(z) })
	vm.primitive("!", storeCell)
	vm.primitive("c!", storeByte)
	vm.primitive("+!", addStore)
}

// registerUnsafePrimitives installs the words that take raw addresses or
// touch the file system. Addresses are data-space offsets and are still
// range checked, so ">data" is the identity on valid offsets.
func (vm *VM) registerUnsafePrimitives() {
	vm.op1(">data", func(z Cell) Cell {
		vm.index(z, 1)
		return z
	})
	vm.op1("@u", func(z Cell) Cell { return vm.fetch(z) })
	vm.op1("c@u", func(z Cell) Cell { return vm.fetchByte(z) })
	vm.primitive("!u", storeCell)
	vm.primitive("c!u", storeByte)
	vm.primitive("+!u", addStore)
	vm.primitive("load", func(vm *VM, _ *Word) {
		vm.loadFile(vm.stringAt(vm.Pop()))
	})
}

// storeCell: value addr --
func storeCell(vm *VM, _ *Word) {
	vm.need(2)
	z := vm.Pop()
	y := vm.Pop()
	vm.store(z, y)
}

// storeByte: value addr --
func storeByte(vm *VM, _ *Word) {
	vm.need(2)
	z := vm.Pop()
	y := vm.Pop()
	vm.storeByte(z, y)
}

// addStore: n addr --
func addStore(vm *VM, _ *Word) {
	vm.need(2)
	z := vm.Pop()
	y := vm.Pop()
	vm.store(z, vm.fetch(z)+y)
}
