package vm

import "fmt"

// Place is a position in a source stream.
type Place struct {
	Line     int
	Column   int
	Filename string
}

// origin returns the place before the first character of a source.
func origin(filename string) Place {
	return Place{Line: 1, Filename: filename}
}

// advance updates p for having read c.
func (p *Place) advance(c byte) {
	if c == '\n' {
		p.Line++
		p.Column = 0
	} else {
		p.Column++
	}
}

// String formats p the way compilers and editors expect in messages:
// "file:line.column", or "line.column" for unnamed sources.
func (p Place) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d.%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d.%d", p.Line, p.Column)
}
