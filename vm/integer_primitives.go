package vm

// ---------------------------------------------------------------------------
// Integer and stack primitives
// ---------------------------------------------------------------------------

// op1 installs a word that replaces the top cell with f of it.
func (vm *VM) op1(name string, f func(z Cell) Cell) {
	vm.primitive(name, func(vm *VM, _ *Word) {
		vm.Push(f(vm.Pop()))
	})
}

// op2 installs a word that pops y and z (z on top) and pushes f(y, z).
func (vm *VM) op2(name string, f func(y, z Cell) Cell) {
	vm.primitive(name, func(vm *VM, _ *Word) {
		vm.need(2)
		z := vm.Pop()
		y := vm.Pop()
		vm.Push(f(y, z))
	})
}

// divide installs a division word that refuses a zero divisor.
func (vm *VM) divide(name string, f func(y, z Cell) Cell) {
	vm.primitive(name, func(vm *VM, _ *Word) {
		vm.need(2)
		z := vm.Pop()
		if z == 0 {
			vm.raise(ErrArithmetic, "Division by zero")
		}
		y := vm.Pop()
		vm.Push(f(y, z))
	})
}

// shift counts use the low five bits, as 32-bit hardware shifters do.
func shiftCount(z Cell) uint {
	return uint(z) & 31
}

func (vm *VM) registerIntegerPrimitives() {
	vm.op2("+", func(y, z Cell) Cell { return y + z })
	vm.op2("-", func(y, z Cell) Cell { return y - z })
	vm.op2("*", func(y, z Cell) Cell { return y * z })
	vm.divide("/", func(y, z Cell) Cell { return y / z })
	vm.divide("mod", func(y, z Cell) Cell { return y % z })
	vm.op2("u*", func(y, z Cell) Cell { return Cell(y.Uint32() * z.Uint32()) })
	vm.divide("u/", func(y, z Cell) Cell { return Cell(y.Uint32() / z.Uint32()) })
	vm.divide("umod", func(y, z Cell) Cell { return Cell(y.Uint32() % z.Uint32()) })

	// Comparison
	vm.op2("=", func(y, z Cell) Cell { return Bool(y == z) })
	vm.op2("<", func(y, z Cell) Cell { return Bool(y < z) })
	vm.op2("u<", func(y, z Cell) Cell { return Bool(y.Uint32() < z.Uint32()) })

	// Bitwise
	vm.op2("and", func(y, z Cell) Cell { return y & z })
	vm.op2("or", func(y, z Cell) Cell { return y | z })
	vm.op2("xor", func(y, z Cell) Cell { return y ^ z })
	vm.op2("<<", func(y, z Cell) Cell { return y << shiftCount(z) })
	vm.op2(">>", func(y, z Cell) Cell { return y >> shiftCount(z) })
	vm.op2("u>>", func(y, z Cell) Cell { return Cell(y.Uint32() >> shiftCount(z)) })
}

// registerShortcutPrimitives installs single-cell shortcuts for common
// constants and increments.
func (vm *VM) registerShortcutPrimitives() {
	vm.install(Word{Name: "-1", Kind: KindConstant, Datum: -1})
	vm.install(Word{Name: "0", Kind: KindConstant, Datum: 0})
	vm.install(Word{Name: "1", Kind: KindConstant, Datum: 1})

	vm.op1("0<", func(z Cell) Cell { return Bool(z < 0) })
	vm.op1("0=", func(z Cell) Cell { return Bool(z == 0) })
	vm.op1("2+", func(z Cell) Cell { return z + 2 })
	vm.op1("1+", func(z Cell) Cell { return z + 1 })
	vm.op1("1-", func(z Cell) Cell { return z - 1 })
	vm.op1("2-", func(z Cell) Cell { return z - 2 })
	vm.op1("2*", func(z Cell) Cell { return z << 1 })
	vm.op1("2/", func(z Cell) Cell { return z >> 1 })
	vm.op1("4*", func(z Cell) Cell { return z << 2 })
	vm.op1("4/", func(z Cell) Cell { return z >> 2 })
}

func (vm *VM) registerStackPrimitives() {
	vm.primitive("dup", func(vm *VM, _ *Word) {
		z := vm.Pop()
		vm.Push(z)
		vm.Push(z)
	})
	vm.primitive("drop", func(vm *VM, _ *Word) {
		vm.Pop()
	})
	vm.primitive("swap", func(vm *VM, _ *Word) {
		vm.need(2)
		z := vm.Pop()
		y := vm.Pop()
		vm.Push(z)
		vm.Push(y)
	})
	vm.primitive("over", func(vm *VM, _ *Word) {
		vm.need(2)
		z := vm.Pop()
		y := vm.Pop()
		vm.Push(y)
		vm.Push(z)
		vm.Push(y)
	})
	vm.primitive("clear-stack", func(vm *VM, _ *Word) {
		vm.stack.clear()
	})
}
