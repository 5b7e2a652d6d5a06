package vm

// Check scans src without running it and reports lexical errors and
// words that are neither defined nor numbers. Words defined by colon
// definitions earlier in src count as defined. The VM is left as it was.
func (vm *VM) Check(src, filename string) []*Error {
	var problems []*Error

	savedInput, savedPlace, savedHandler := vm.input, vm.tokenPlace, vm.OnError
	vm.input = NewStringInput(src, filename)
	vm.OnError = nil
	defer func() {
		vm.input, vm.tokenPlace, vm.OnError = savedInput, savedPlace, savedHandler
	}()

	defined := make(map[string]bool)
	mode := ModeRun
	for {
		var token string
		var ok bool
		err := vm.protect(func() {
			token, ok = vm.nextToken()
			if ok && token[0] == '\\' {
				vm.skipLine()
			}
		})
		if err != nil {
			problems = append(problems, err)
			continue
		}
		if !ok {
			break
		}

		switch token[0] {
		case '\n', '\\', '$', '"', '`':
			continue
		case '\'', ':', '(', ')':
			mode = Mode(token[0])
			continue
		}

		switch {
		case mode == ModeColon:
			defined[token] = true
			mode = ModeDefine
		case mode == ModeDefine && token == ";":
			mode = ModeRun
		case defined[token] || vm.dict.lookup(token) != NotFound:
		case mode != ModeQuote && isNumber(token):
		default:
			problems = append(problems, &Error{
				Kind:    ErrUndefinedWord,
				Message: token + " ?",
				Place:   vm.tokenPlace,
			})
		}
	}
	return problems
}

func isNumber(token string) bool {
	_, ok := parseNumber(token)
	return ok
}
