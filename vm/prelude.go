package vm

import _ "embed"

//go:embed prelude.tsl
var prelude string

// Prelude returns the source of the basics library.
func Prelude() string {
	return prelude
}

// LoadPrelude runs the basics library: booleans, conditionals,
// variables, and a few string and printing helpers.
func (vm *VM) LoadPrelude() error {
	return vm.LoadSource(prelude, "prelude.tsl")
}
