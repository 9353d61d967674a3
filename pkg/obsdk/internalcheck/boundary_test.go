package internalcheck

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// moduleRoot locates the module directory from the loaded obsdk package.
func moduleRoot(t *testing.T) string {
	t.Helper()
	pkgs, err := packages.Load(&packages.Config{Mode: packages.NeedModule}, "github.com/orbbec/obsdk-go/pkg/obsdk")
	if err != nil {
		t.Fatalf("load package: %v", err)
	}
	if len(pkgs) == 0 || pkgs[0].Module == nil {
		t.Fatal("obsdk package has no module")
	}
	return pkgs[0].Module.Dir
}

// The files are parsed directly so that sources behind build tags are
// checked too.
func TestCgoOnlyInNative(t *testing.T) {
	root := moduleRoot(t)
	fset := token.NewFileSet()
	var findings []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		if strings.HasPrefix(filepath.ToSlash(rel), "internal/native/") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, imp := range f.Imports {
			if imp.Path.Value == `"C"` {
				findings = append(findings, fmt.Sprintf("%s: cgo belongs in internal/native", fset.Position(imp.Pos())))
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk module: %v", err)
	}

	if len(findings) > 0 {
		t.Fatalf("native boundary violation:\n%s", strings.Join(findings, "\n"))
	}
}

// Finalizers are registered with method expressions. A function literal
// that captures the object keeps it reachable and the finalizer never runs.
func TestFinalizersUseMethodExpressions(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
	}

	pkgs, err := packages.Load(cfg, "github.com/orbbec/obsdk-go/pkg/obsdk")
	if err != nil {
		t.Fatalf("load package: %v", err)
	}

	var (
		findings []string
		total    int
	)

	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			fset := pkg.Fset
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok || len(call.Args) != 2 {
					return true
				}
				selector, ok := call.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				obj := pkg.TypesInfo.Uses[selector.Sel]
				if obj == nil || obj.Pkg() == nil || obj.Pkg().Path() != "runtime" || obj.Name() != "SetFinalizer" {
					return true
				}
				total++
				if _, ok := call.Args[1].(*ast.FuncLit); ok {
					findings = append(findings, fmt.Sprintf("%s: finalizer is a function literal", fset.Position(call.Pos())))
				}
				return true
			})
		}
	}

	if total == 0 {
		t.Fatal("no finalizers found; the check is not looking at the wrappers")
	}
	if len(findings) > 0 {
		t.Fatalf("finalizer policy violation:\n%s", strings.Join(findings, "\n"))
	}
}

// Wrappers that own callbacks wait for in-flight deliveries in Close, so a
// Close issued from the wrapper's own callback never returns. Each of them
// must say so in its Close documentation.
func TestCallbackOwnersDocumentReentrantClose(t *testing.T) {
	root := moduleRoot(t)
	dir := filepath.Join(root, "pkg", "obsdk")
	fset := token.NewFileSet()
	paths, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		t.Fatalf("list %s: %v", dir, err)
	}
	var files []*ast.File
	for _, path := range paths {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		files = append(files, f)
	}

	owners := map[string]bool{"Context": false, "Device": false, "Sensor": false, "Pipeline": false, "Filter": false, "Playback": false}
	var findings []string
	for _, file := range files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Name.Name != "Close" || fn.Recv == nil || len(fn.Recv.List) != 1 {
				continue
			}
			star, ok := fn.Recv.List[0].Type.(*ast.StarExpr)
			if !ok {
				continue
			}
			ident, ok := star.X.(*ast.Ident)
			if !ok {
				continue
			}
			if _, owner := owners[ident.Name]; !owner {
				continue
			}
			owners[ident.Name] = true
			if fn.Doc == nil || !strings.Contains(fn.Doc.Text(), "deadlocks") {
				findings = append(findings, fmt.Sprintf("%s: (*%s).Close does not document re-entrant Close", fset.Position(fn.Pos()), ident.Name))
			}
		}
	}
	for name, seen := range owners {
		if !seen {
			findings = append(findings, fmt.Sprintf("(*%s).Close not found", name))
		}
	}
	if len(findings) > 0 {
		t.Fatalf("close documentation:\n%s", strings.Join(findings, "\n"))
	}
}
