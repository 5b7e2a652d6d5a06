package vm

import "strconv"

// ---------------------------------------------------------------------------
// Float primitives
// ---------------------------------------------------------------------------

// Float words reinterpret cells as float32 bits. Nothing stops a program
// from mixing them with integers.
func (vm *VM) registerFloatPrimitives() {
	fop := func(name string, f func(y, z float32) float32) {
		vm.op2(name, func(y, z Cell) Cell {
			return FromFloat32(f(y.Float32(), z.Float32()))
		})
	}
	fop("f+", func(y, z float32) float32 { return y + z })
	fop("f-", func(y, z float32) float32 { return y - z })
	fop("f*", func(y, z float32) float32 { return y * z })
	fop("f/", func(y, z float32) float32 { return y / z })

	vm.primitive("f.", func(vm *VM, _ *Word) {
		f := vm.Pop().Float32()
		vm.putString(formatFloat(f))
		vm.putString(" ")
	})
}

// formatFloat prints f with up to 20 significant digits, trailing zeros
// trimmed.
func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', 20, 64)
}
