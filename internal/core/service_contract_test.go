package core

import (
	"fmt"
	"go/ast"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestServiceMutatingMethodsDelegateToRun pins the observability contract:
// every exported Service method that performs a mutation must route through
// run so spans, metrics, and logs stay uniform across operations. Plain
// snapshot reads are exempt.
func TestServiceMutatingMethodsDelegateToRun(t *testing.T) {
	pkg := loadCorePackage(t)
	serviceFile := findFile(t, pkg, "service.go")

	reads := map[string]struct{}{
		"SelectProgram": {}, "SelectPrograms": {},
		"SelectTarget": {}, "SelectTargets": {},
		"SelectAsterism": {}, "SelectAsterisms": {},
		"SelectObservation": {}, "SelectObservations": {},
		"ProgramObservations": {},
		"ProgramTargetIDs":    {}, "TargetProgramIDs": {},
		"ProgramAsterismIDs": {}, "AsterismProgramIDs": {},
		"Store": {}, "Subscribe": {}, "LastEventID": {},
	}

	var violations []string
	for _, decl := range serviceFile.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || fn.Body == nil {
			continue
		}
		recvName, isService := serviceReceiverName(fn)
		if !isService || !ast.IsExported(fn.Name.Name) {
			continue
		}
		if _, exempt := reads[fn.Name.Name]; exempt {
			continue
		}
		if methodCallsRun(fn, recvName) {
			continue
		}
		pos := pkg.Fset.Position(fn.Pos())
		violations = append(violations, fmt.Sprintf("%s:%d %s", filepath.Base(pos.Filename), pos.Line, fn.Name.Name))
	}

	if len(violations) > 0 {
		t.Fatalf("mutating service methods must delegate to run:\n%s", strings.Join(violations, "\n"))
	}
}

// TestServiceOperationNamesAreUnique guards the metrics label space: two
// operations sharing a name would aggregate into one series.
func TestServiceOperationNamesAreUnique(t *testing.T) {
	pkg := loadCorePackage(t)
	serviceFile := findFile(t, pkg, "service.go")

	seen := make(map[string]string)
	for _, decl := range serviceFile.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || fn.Body == nil {
			continue
		}
		recvName, isService := serviceReceiverName(fn)
		if !isService {
			continue
		}
		for _, op := range runOperationNames(fn, recvName) {
			if prev, dup := seen[op]; dup {
				t.Fatalf("operation name %q used by both %s and %s", op, prev, fn.Name.Name)
			}
			seen[op] = fn.Name.Name
		}
	}
	if len(seen) == 0 {
		t.Fatalf("no run operation names found in service.go")
	}
}

var (
	corePkgOnce sync.Once
	corePkg     *packages.Package
	corePkgErr  error
)

func loadCorePackage(t *testing.T) *packages.Package {
	t.Helper()

	corePkgOnce.Do(func() {
		cfg := &packages.Config{
			Mode: packages.NeedName | packages.NeedSyntax | packages.NeedCompiledGoFiles | packages.NeedFiles | packages.NeedTypes,
		}
		pkgs, err := packages.Load(cfg, "github.com/swalker2m/gem-odb-api/internal/core")
		if err != nil {
			corePkgErr = fmt.Errorf("load core package: %w", err)
			return
		}
		for _, pkg := range pkgs {
			if len(pkg.Errors) > 0 {
				corePkgErr = fmt.Errorf("package load errors: %v", pkg.Errors)
				return
			}
			if pkg.PkgPath == "github.com/swalker2m/gem-odb-api/internal/core" {
				corePkg = pkg
				return
			}
		}
		corePkgErr = fmt.Errorf("core package not found in load results")
	})

	if corePkgErr != nil {
		t.Fatalf("core package load: %v", corePkgErr)
	}
	return corePkg
}

func findFile(t *testing.T, pkg *packages.Package, target string) *ast.File {
	t.Helper()
	for _, file := range pkg.Syntax {
		pos := pkg.Fset.Position(file.Pos())
		if filepath.Base(pos.Filename) == target {
			return file
		}
	}
	t.Fatalf("failed to locate %s in package", target)
	return nil
}

func serviceReceiverName(fn *ast.FuncDecl) (string, bool) {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return "", false
	}
	recv := fn.Recv.List[0]
	var ident *ast.Ident
	switch expr := recv.Type.(type) {
	case *ast.StarExpr:
		if inner, ok := expr.X.(*ast.Ident); ok {
			ident = inner
		}
	case *ast.Ident:
		ident = expr
	}
	if ident == nil || ident.Name != "Service" {
		return "", false
	}
	if len(recv.Names) == 0 {
		return "", false
	}
	return recv.Names[0].Name, true
}

func methodCallsRun(fn *ast.FuncDecl, receiver string) bool {
	found := false
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		ident, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		if ident.Name == receiver && sel.Sel.Name == "run" {
			found = true
			return false
		}
		return true
	})
	return found
}

func runOperationNames(fn *ast.FuncDecl, receiver string) []string {
	var names []string
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "run" {
			return true
		}
		ident, ok := sel.X.(*ast.Ident)
		if !ok || ident.Name != receiver {
			return true
		}
		if len(call.Args) < 2 {
			return true
		}
		if lit, ok := call.Args[1].(*ast.BasicLit); ok {
			names = append(names, strings.Trim(lit.Value, `"`))
		}
		return true
	})
	return names
}
