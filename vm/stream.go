package vm

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// bufferSize is the window size of file-backed streams.
const bufferSize = 1024

// endOfInput is returned by peek and next at the end of a stream.
const endOfInput = -1

// ---------------------------------------------------------------------------
// Input streams
// ---------------------------------------------------------------------------

// Refiller reads the next chunk of input into buf and returns the number
// of bytes read. Zero means the input is exhausted.
type Refiller func(buf []byte) (int, error)

// InputStream is a buffered, forward-only source of characters that
// tracks its Place.
type InputStream struct {
	buf    []byte
	ptr    int
	limit  int
	refill Refiller
	closer io.Closer
	place  Place
}

// NewStringInput returns a stream over s. It never refills.
func NewStringInput(s, filename string) *InputStream {
	b := []byte(s)
	return &InputStream{buf: b, limit: len(b), place: origin(filename)}
}

// NewReaderInput returns a stream that refills from r one line at a time,
// so that discarding input after an error drops only the current line.
func NewReaderInput(r io.Reader, filename string) *InputStream {
	return &InputStream{
		buf:    make([]byte, bufferSize),
		refill: lineRefiller(r),
		place:  origin(filename),
	}
}

// OpenFileInput opens path for reading as an input stream. Closing the
// stream closes the file.
func OpenFileInput(path string) (*InputStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	in := NewReaderInput(f, path)
	in.closer = f
	return in, nil
}

// lineRefiller reads up to and including the next newline, or until buf
// is full.
func lineRefiller(r io.Reader) Refiller {
	br := bufio.NewReader(r)
	return func(buf []byte) (int, error) {
		n := 0
		for n < len(buf) {
			c, err := br.ReadByte()
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			if err != nil {
				return n, err
			}
			buf[n] = c
			n++
			if c == '\n' {
				break
			}
		}
		return n, nil
	}
}

// Place returns the position after the last consumed character.
func (in *InputStream) Place() Place {
	return in.place
}

// Close releases the backing store, if any.
func (in *InputStream) Close() error {
	if in.closer == nil {
		return nil
	}
	err := in.closer.Close()
	in.closer = nil
	return err
}

func (in *InputStream) fill() (int, error) {
	if in.refill == nil {
		return 0, nil
	}
	n, err := in.refill(in.buf)
	if n > 0 {
		in.ptr, in.limit = 0, n
	}
	return n, err
}

// peek returns the next character without consuming it.
func (in *InputStream) peek() (int, error) {
	if in.ptr == in.limit {
		n, err := in.fill()
		if err != nil {
			return endOfInput, err
		}
		if n == 0 {
			return endOfInput, nil
		}
	}
	return int(in.buf[in.ptr]), nil
}

// next consumes and returns the next character.
func (in *InputStream) next() (int, error) {
	c, err := in.peek()
	if c == endOfInput {
		return c, err
	}
	in.ptr++
	in.place.advance(byte(c))
	return c, nil
}

// discard throws away whatever is buffered.
func (in *InputStream) discard() {
	for ; in.ptr < in.limit; in.ptr++ {
		in.place.advance(in.buf[in.ptr])
	}
}

// ---------------------------------------------------------------------------
// Output streams
// ---------------------------------------------------------------------------

// OutputStream buffers characters for a writer, flushing when the buffer
// fills and after every write that contains a newline.
type OutputStream struct {
	buf []byte
	w   io.Writer
}

// NewOutput returns an output stream writing to w.
func NewOutput(w io.Writer) *OutputStream {
	return &OutputStream{buf: make([]byte, 0, bufferSize), w: w}
}

func (o *OutputStream) write(p []byte) error {
	newline := false
	for _, c := range p {
		if len(o.buf) == cap(o.buf) {
			if err := o.Flush(); err != nil {
				return err
			}
		}
		o.buf = append(o.buf, c)
		if c == '\n' {
			newline = true
		}
	}
	if newline {
		return o.Flush()
	}
	return nil
}

// Flush writes out any buffered characters.
func (o *OutputStream) Flush() error {
	if len(o.buf) == 0 {
		return nil
	}
	_, err := o.w.Write(o.buf)
	o.buf = o.buf[:0]
	return err
}
