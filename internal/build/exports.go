package build

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"net/http"

	"github.com/xink-dev/xink/internal/errors"
	"github.com/xink-dev/xink/pkg/endpoint"
)

// ExportKind is the declaration kind of an exported identifier.
type ExportKind string

const (
	ExportFunc  ExportKind = "func"
	ExportVar   ExportKind = "var"
	ExportConst ExportKind = "const"
	ExportType  ExportKind = "type"
)

// Export is one exported top-level identifier of a Go source file.
type Export struct {
	Name string
	Kind ExportKind

	// Callable is true for func declarations and for vars holding a func
	// literal or declared with a func or handler type.
	Callable bool

	Pos token.Position
}

// methodExports maps exported Go names in route files to handler keys.
var methodExports = map[string]string{
	http.MethodGet:     http.MethodGet,
	http.MethodPost:    http.MethodPost,
	http.MethodPut:     http.MethodPut,
	http.MethodPatch:   http.MethodPatch,
	http.MethodDelete:  http.MethodDelete,
	http.MethodHead:    http.MethodHead,
	http.MethodOptions: http.MethodOptions,
	"Fallback":         endpoint.MethodFallback,
}

// MethodKey returns the handler key for an exported route identifier.
// Fallback maps to the fallback pseudo-method.
func MethodKey(exportName string) (string, bool) {
	key, ok := methodExports[exportName]
	return key, ok
}

// handlerTypes are the type names that mark a var as callable.
var handlerTypes = map[string]bool{
	"Handler": true,
	"Handle":  true,
	"Matcher": true,
}

// Exports parses a Go source file and lists its exported top-level
// identifiers in declaration order. Methods are not top-level exports.
func Exports(path string, src []byte) ([]Export, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		xe := errors.New("E207").WithFile(path).Wrap(err)
		if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
			p := list[0].Pos
			xe.WithLocation(path, p.Line, p.Column)
		}
		return nil, xe
	}

	var out []Export
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil || !d.Name.IsExported() {
				continue
			}
			out = append(out, Export{
				Name:     d.Name.Name,
				Kind:     ExportFunc,
				Callable: true,
				Pos:      fset.Position(d.Name.Pos()),
			})

		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.ValueSpec:
					kind := ExportVar
					if d.Tok == token.CONST {
						kind = ExportConst
					}
					for i, ident := range s.Names {
						if !ident.IsExported() {
							continue
						}
						out = append(out, Export{
							Name:     ident.Name,
							Kind:     kind,
							Callable: kind == ExportVar && callableValue(s, i),
							Pos:      fset.Position(ident.Pos()),
						})
					}
				case *ast.TypeSpec:
					if !s.Name.IsExported() {
						continue
					}
					out = append(out, Export{
						Name: s.Name.Name,
						Kind: ExportType,
						Pos:  fset.Position(s.Name.Pos()),
					})
				}
			}
		}
	}
	return out, nil
}

func callableValue(s *ast.ValueSpec, i int) bool {
	if s.Type != nil {
		return callableType(s.Type)
	}
	if i < len(s.Values) {
		_, ok := s.Values[i].(*ast.FuncLit)
		return ok
	}
	return false
}

func callableType(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.FuncType:
		return true
	case *ast.Ident:
		return handlerTypes[t.Name]
	case *ast.SelectorExpr:
		return handlerTypes[t.Sel.Name]
	}
	return false
}

// find returns the named export.
func find(exports []Export, name string) (Export, bool) {
	for _, e := range exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}
