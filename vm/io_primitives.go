package vm

// ---------------------------------------------------------------------------
// Output, tracing and control primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerIOPrimitives() {
	vm.primitive("emit", func(vm *VM, _ *Word) {
		vm.putByte(byte(vm.Pop()))
	})
	vm.primitive(".", func(vm *VM, _ *Word) {
		vm.putDecimal(vm.Pop())
		vm.putByte(' ')
	})
	vm.primitive(".s", func(vm *VM, _ *Word) {
		for i, c := range vm.stack.Cells() {
			if i > 0 {
				vm.putByte(' ')
			}
			vm.putDecimal(c)
		}
		vm.putByte('\n')
	})
}

func (vm *VM) registerControlPrimitives() {
	vm.primitive("execute", func(vm *VM, _ *Word) {
		vm.execute(vm.Pop())
	})
	vm.primitive("start-tracing", func(vm *VM, _ *Word) {
		vm.Tracer = DefaultTracer
	})
	vm.primitive("stop-tracing", func(vm *VM, _ *Word) {
		vm.Tracer = nil
	})
	// error: message --   raises with a string from the data space.
	vm.primitive("error", func(vm *VM, _ *Word) {
		vm.raise(ErrAbort, "%s", vm.stringAt(vm.Pop()))
	})
}
