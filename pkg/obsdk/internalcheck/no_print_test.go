package internalcheck

import (
	"fmt"
	"go/ast"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// Library code logs through pkg/obsdk/logging; printing to the console is
// reserved for commands and examples.
func TestNoConsolePrinting(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
	}

	pkgs, err := packages.Load(cfg,
		"github.com/orbbec/obsdk-go/pkg/obsdk",
		"github.com/orbbec/obsdk-go/pkg/obsdk/logging",
		"github.com/orbbec/obsdk-go/pkg/obsdk/metrics",
		"github.com/orbbec/obsdk-go/internal/native",
	)
	if err != nil {
		t.Fatalf("load package: %v", err)
	}

	var findings []string

	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			fset := pkg.Fset
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}

				selector, ok := call.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}

				obj := pkg.TypesInfo.Uses[selector.Sel]
				if obj == nil || obj.Pkg() == nil {
					return true
				}

				if printsToConsole(obj.Pkg().Path(), obj.Name()) {
					pos := fset.Position(call.Pos())
					findings = append(findings, fmt.Sprintf("%s: %s.%s writes to the console; use the logger", pos, obj.Pkg().Name(), obj.Name()))
				}
				return true
			})
		}
	}

	if len(findings) > 0 {
		t.Fatalf("logging policy violation:\n%s", strings.Join(findings, "\n"))
	}
}

func printsToConsole(pkgPath, name string) bool {
	switch pkgPath {
	case "fmt":
		switch name {
		case "Print", "Printf", "Println":
			return true
		}
	case "log":
		return true
	}
	return false
}
