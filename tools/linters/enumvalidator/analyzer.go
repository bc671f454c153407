package enumvalidator

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

// enumTypes are the string-backed enums whose values must come from their
// declared constants.
var enumTypes = map[string]bool{
	"Variant":     true,
	"FailureKind": true,
	"Provider":    true,
}

var Analyzer = &analysis.Analyzer{
	Name: "enumvalidator",
	Doc:  "checks that enum fields only use defined constants, not string literals",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			switch node := n.(type) {
			case *ast.AssignStmt:
				checkAssign(pass, node)
			case *ast.CompositeLit:
				checkCompositeLit(pass, node)
			}
			return true
		})
	}
	return nil, nil
}

func checkAssign(pass *analysis.Pass, assign *ast.AssignStmt) {
	for i, lhs := range assign.Lhs {
		if i >= len(assign.Rhs) {
			continue
		}
		sel, ok := lhs.(*ast.SelectorExpr)
		if !ok {
			continue
		}
		if name, ok := enumLiteral(pass, assign.Rhs[i]); ok {
			pass.Reportf(assign.Pos(),
				"enum field %s assigned string literal; use defined %s constant instead",
				sel.Sel.Name, name)
		}
	}
}

func checkCompositeLit(pass *analysis.Pass, lit *ast.CompositeLit) {
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		key, ok := kv.Key.(*ast.Ident)
		if !ok {
			continue
		}
		if name, ok := enumLiteral(pass, kv.Value); ok {
			pass.Reportf(kv.Pos(),
				"enum field %s assigned string literal; use defined %s constant instead",
				key.Name, name)
		}
	}
}

// enumLiteral reports whether expr is a string literal typed as one of the
// enum types, returning the type name.
func enumLiteral(pass *analysis.Pass, expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	named, ok := pass.TypesInfo.TypeOf(lit).(*types.Named)
	if !ok || !enumTypes[named.Obj().Name()] {
		return "", false
	}
	return named.Obj().Name(), true
}
