package vm

import "strings"

// punctuation characters are tokens by themselves and end other tokens.
const punctuation = "\\':()$"

// delimiters end a plain token.
const delimiters = " \t\r\n\"`" + punctuation

func isSpace(c int) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// getChar consumes one character of input, or returns endOfInput.
func (vm *VM) getChar() int {
	c, err := vm.input.next()
	if err != nil {
		vm.raise(ErrIO, "Read error: %v", err)
	}
	return c
}

// peekChar returns the next character of input without consuming it.
func (vm *VM) peekChar() int {
	c, err := vm.input.peek()
	if err != nil {
		vm.raise(ErrIO, "Read error: %v", err)
	}
	return c
}

// appendToken adds c to the token being scanned.
func (vm *VM) appendToken(tok []byte, c int) []byte {
	if len(tok) >= vm.tokenSize {
		vm.raise(ErrLexical, "Token too long: %s...", tok)
	}
	return append(tok, byte(c))
}

// nextToken scans the next token of input. Newline is returned as a token
// of its own. The second result is false at end of input.
//
// A token is one of: a single punctuation character; $ and the character
// after it; a string literal including its opening delimiter but not its
// closing one; or a run of characters up to whitespace, a quote, or
// punctuation.
func (vm *VM) nextToken() (string, bool) {
	c := vm.getChar()
	for isSpace(c) && c != '\n' {
		c = vm.getChar()
	}
	vm.tokenPlace = vm.input.place

	if c == endOfInput {
		return "", false
	}

	tok := vm.tokenBuf[:0]
	switch {
	case c == '$':
		tok = append(tok, '$')
		c = vm.getChar()
		if c == endOfInput {
			vm.raise(ErrLexical, "Unterminated character constant: %s", tok)
		}
		tok = append(tok, byte(c))

	case c == '\n' || strings.IndexByte(punctuation, byte(c)) >= 0:
		tok = append(tok, byte(c))

	case c == '"' || c == '`':
		// The backquote is accepted as well because some launchers
		// mangle double quotes in command-line arguments.
		delim := c
		for {
			tok = vm.appendToken(tok, c)
			c = vm.getChar()
			if c == endOfInput {
				vm.raise(ErrLexical, "Unterminated string constant: %s", tok)
			}
			if c == delim {
				break
			}
		}

	default:
		for {
			tok = vm.appendToken(tok, c)
			c = vm.peekChar()
			if c == endOfInput || strings.IndexByte(delimiters, byte(c)) >= 0 {
				break
			}
			vm.getChar()
		}
	}
	vm.tokenBuf = tok
	return string(tok), true
}

// skipLine consumes input through the end of the current line.
func (vm *VM) skipLine() {
	for {
		c := vm.getChar()
		if c == endOfInput || c == '\n' {
			return
		}
	}
}
