package vm

// ---------------------------------------------------------------------------
// Native bridge: fixed-arity host functions
// ---------------------------------------------------------------------------

// maxArity is the largest number of cells a native word may consume.
const maxArity = 5

// Native adapts a host function of fixed arity to the stack. Arguments are
// popped with the leftmost argument deepest on the stack; a function with
// a result pushes it afterwards. Build one with the VoidN or IntN
// constructors.
type Native struct {
	Arity  int
	Result bool

	call func(args []Cell) Cell
}

func (n Native) invoke(vm *VM) {
	var buf [maxArity]Cell
	args := buf[:n.Arity]
	vm.popArgs(args)
	r := n.call(args)
	if n.Result {
		vm.Push(r)
	}
}

// Void0 wraps a host function taking no arguments and returning nothing.
func Void0(f func()) Native {
	return Native{Arity: 0, call: func([]Cell) Cell { f(); return 0 }}
}

func Void1(f func(a Cell)) Native {
	return Native{Arity: 1, call: func(x []Cell) Cell { f(x[0]); return 0 }}
}

func Void2(f func(a, b Cell)) Native {
	return Native{Arity: 2, call: func(x []Cell) Cell { f(x[0], x[1]); return 0 }}
}

func Void3(f func(a, b, c Cell)) Native {
	return Native{Arity: 3, call: func(x []Cell) Cell { f(x[0], x[1], x[2]); return 0 }}
}

func Void4(f func(a, b, c, d Cell)) Native {
	return Native{Arity: 4, call: func(x []Cell) Cell { f(x[0], x[1], x[2], x[3]); return 0 }}
}

func Void5(f func(a, b, c, d, e Cell)) Native {
	return Native{Arity: 5, call: func(x []Cell) Cell { f(x[0], x[1], x[2], x[3], x[4]); return 0 }}
}

// Int0 wraps a host function taking no arguments and returning one cell.
func Int0(f func() Cell) Native {
	return Native{Arity: 0, Result: true, call: func([]Cell) Cell { return f() }}
}

func Int1(f func(a Cell) Cell) Native {
	return Native{Arity: 1, Result: true, call: func(x []Cell) Cell { return f(x[0]) }}
}

func Int2(f func(a, b Cell) Cell) Native {
	return Native{Arity: 2, Result: true, call: func(x []Cell) Cell { return f(x[0], x[1]) }}
}

func Int3(f func(a, b, c Cell) Cell) Native {
	return Native{Arity: 3, Result: true, call: func(x []Cell) Cell { return f(x[0], x[1], x[2]) }}
}

func Int4(f func(a, b, c, d Cell) Cell) Native {
	return Native{Arity: 4, Result: true, call: func(x []Cell) Cell { return f(x[0], x[1], x[2], x[3]) }}
}

func Int5(f func(a, b, c, d, e Cell) Cell) Native {
	return Native{Arity: 5, Result: true, call: func(x []Cell) Cell { return f(x[0], x[1], x[2], x[3], x[4]) }}
}
