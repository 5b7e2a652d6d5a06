package vm

// ---------------------------------------------------------------------------
// Stack: the bounded value stack
// ---------------------------------------------------------------------------

// Stack is a fixed-capacity array of cells. sp is the index of the top
// cell and stays within [-1, len(cells)).
type Stack struct {
	cells []Cell
	sp    int
}

func newStack(size int) *Stack {
	return &Stack{cells: make([]Cell, size), sp: -1}
}

// Depth returns the number of cells on the stack.
func (s *Stack) Depth() int {
	return s.sp + 1
}

// Cells returns a copy of the stack, bottom first.
func (s *Stack) Cells() []Cell {
	out := make([]Cell, s.sp+1)
	copy(out, s.cells[:s.sp+1])
	return out
}

func (s *Stack) clear() {
	s.sp = -1
}

// Push pushes c, raising a stack error on overflow.
func (vm *VM) Push(c Cell) {
	s := vm.stack
	if s.sp+1 >= len(s.cells) {
		vm.raise(ErrStack, "Stack overflow")
	}
	s.sp++
	s.cells[s.sp] = c
}

// Pop removes and returns the top cell, raising a stack error if the
// stack is empty.
func (vm *VM) Pop() Cell {
	s := vm.stack
	if s.sp < 0 {
		vm.raise(ErrStack, "Stack underflow")
	}
	c := s.cells[s.sp]
	s.sp--
	return c
}

// Depth returns the number of cells on the value stack.
func (vm *VM) Depth() int {
	return vm.stack.Depth()
}

// Stack returns a copy of the value stack, bottom first.
func (vm *VM) Stack() []Cell {
	return vm.stack.Cells()
}

// need raises a stack error unless at least n cells are present. Words
// that pop several cells check first so that a failure leaves the stack
// as it was.
func (vm *VM) need(n int) {
	if vm.stack.Depth() < n {
		vm.raise(ErrStack, "Stack underflow")
	}
}

// popArgs pops n cells into buf, leftmost argument (deepest cell) first.
func (vm *VM) popArgs(buf []Cell) {
	vm.need(len(buf))
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = vm.Pop()
	}
}
