package vm

import "encoding/binary"

// ---------------------------------------------------------------------------
// DataSpace: the code and string arena
// ---------------------------------------------------------------------------

// DataSpace is a fixed-size byte arena. Compiled code and cells grow up
// from offset 0 (here); string literals grow down from the end (there).
// here <= there always holds.
type DataSpace struct {
	mem   []byte
	here  int
	there int
}

func newDataSpace(size int) *DataSpace {
	return &DataSpace{mem: make([]byte, size), there: size}
}

// Size returns the capacity of the arena in bytes.
func (d *DataSpace) Size() int {
	return len(d.mem)
}

// Here returns the offset of the next free byte in the code region.
func (vm *VM) Here() Cell {
	return Cell(vm.data.here)
}

// There returns the offset of the most recently compiled string.
func (vm *VM) There() Cell {
	return Cell(vm.data.there)
}

// index checks that width bytes starting at addr lie inside the arena and
// returns addr as a slice index.
func (vm *VM) index(addr Cell, width int) int {
	if addr < 0 || int(addr)+width > len(vm.data.mem) {
		vm.raise(ErrRange, "Data reference out of range: %d", addr)
	}
	return int(addr)
}

func (vm *VM) fetch(addr Cell) Cell {
	i := vm.index(addr, cellSize)
	return Cell(binary.LittleEndian.Uint32(vm.data.mem[i:]))
}

func (vm *VM) store(addr, c Cell) {
	i := vm.index(addr, cellSize)
	binary.LittleEndian.PutUint32(vm.data.mem[i:], uint32(c))
}

func (vm *VM) fetchByte(addr Cell) Cell {
	return Cell(vm.data.mem[vm.index(addr, 1)])
}

func (vm *VM) storeByte(addr, c Cell) {
	vm.data.mem[vm.index(addr, 1)] = byte(c)
}

// stringAt returns the NUL-terminated string starting at addr.
func (vm *VM) stringAt(addr Cell) string {
	start := vm.index(addr, 1)
	end := start
	for end < len(vm.data.mem) && vm.data.mem[end] != 0 {
		end++
	}
	return string(vm.data.mem[start:end])
}

// alignHere moves here to the next cell boundary.
func (vm *VM) alignHere() {
	d := vm.data
	aligned := cellAlign(d.here)
	if aligned > d.there {
		vm.raise(ErrCapacity, "Out of data space")
	}
	d.here = aligned
}

// compile appends c to the code region.
func (vm *VM) compile(c Cell) {
	vm.alignHere()
	d := vm.data
	if d.there-d.here < cellSize {
		vm.raise(ErrCapacity, "Out of data space")
	}
	binary.LittleEndian.PutUint32(d.mem[d.here:], uint32(c))
	d.here += cellSize
}

// compilePush compiles code that pushes c at run time.
func (vm *VM) compilePush(c Cell) {
	vm.compile(Literal)
	vm.compile(c)
}

// compileString prepends a NUL-terminated copy of s to the string region
// and returns its offset.
func (vm *VM) compileString(s string) Cell {
	d := vm.data
	size := len(s) + 1
	if d.there-size < d.here {
		vm.raise(ErrCapacity, "Out of string space")
	}
	d.there -= size
	copy(d.mem[d.there:], s)
	d.mem[d.there+len(s)] = 0
	return Cell(d.there)
}

// allot reserves n bytes of the code region; a negative n gives space back.
func (vm *VM) allot(n Cell) {
	d := vm.data
	next := d.here + int(n)
	if next > d.there {
		vm.raise(ErrCapacity, "Out of data space")
	}
	if next < 0 {
		vm.raise(ErrRange, "Data reference out of range: %d", next)
	}
	d.here = next
}
