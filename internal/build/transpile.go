package build

import (
	"go/format"
)

// Transpiler turns a source file into its build artifact.
type Transpiler interface {
	Transpile(path string, src []byte) ([]byte, error)
}

// TranspilerFunc adapts a function to the Transpiler interface.
type TranspilerFunc func(path string, src []byte) ([]byte, error)

// Transpile implements Transpiler.
func (f TranspilerFunc) Transpile(path string, src []byte) ([]byte, error) {
	return f(path, src)
}

// GoFormat is the default transpiler: it emits gofmt-formatted source.
var GoFormat Transpiler = TranspilerFunc(func(_ string, src []byte) ([]byte, error) {
	return format.Source(src)
})

// Copy emits the source unchanged.
var Copy Transpiler = TranspilerFunc(func(_ string, src []byte) ([]byte, error) {
	return src, nil
})
