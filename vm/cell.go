package vm

import "math"

// Cell is the unit of the value stack and of the data space. Cells are
// untyped; a cell may hold an integer, a data-space address, a dictionary
// index, or the bits of a float32.
type Cell int32

// cellSize is the width of a cell in the data space, in bytes.
const cellSize = 4

// Boolean cells. Comparisons push all ones for true so that the results
// combine with and/or/xor as bitmasks.
const (
	False Cell = 0
	True  Cell = -1
)

// Bool converts b to True or False.
func Bool(b bool) Cell {
	if b {
		return True
	}
	return False
}

// FromFloat32 returns the cell holding the IEEE-754 bits of f.
func FromFloat32(f float32) Cell {
	return Cell(math.Float32bits(f))
}

// Float32 reinterprets the cell's bits as a float32.
func (c Cell) Float32() float32 {
	return math.Float32frombits(uint32(c))
}

// Uint32 returns the cell's bits as an unsigned integer.
func (c Cell) Uint32() uint32 {
	return uint32(c)
}

// cellAlign returns the first cell boundary at or after n.
func cellAlign(n int) int {
	return (n + cellSize - 1) &^ (cellSize - 1)
}
