package testutil

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
)

// ModulePath is the import path prefix of every package in this module.
const ModulePath = "housingcore"

// Import is one import spec found in a non-test Go file.
type Import struct {
	Path string
	Pos  token.Position
}

func (i Import) String() string { return fmt.Sprintf("%s:%d imports %s", i.Pos.Filename, i.Pos.Line, i.Path) }

// ScanImports parses the import blocks of the non-test .go files directly in
// dir. Build tags are not evaluated.
func ScanImports(dir string) ([]Import, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var out []Import
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, spec := range f.Imports {
			p, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, Import{Path: p, Pos: fset.Position(spec.Pos())})
		}
	}
	return out, nil
}

func violations(imports []Import, forbidden func(string) bool) []Import {
	var out []Import
	for _, imp := range imports {
		if forbidden(imp.Path) {
			out = append(out, imp)
		}
	}
	return out
}

type fatalf interface {
	Fatalf(format string, args ...any)
}

func report(t fatalf, reason string, found []Import) {
	if len(found) == 0 {
		return
	}
	lines := make([]string, len(found))
	for i, imp := range found {
		lines[i] = imp.String()
	}
	slices.Sort(lines)
	t.Fatalf("forbidden imports (%s):\n%s", reason, strings.Join(lines, "\n"))
}

// AssertNoDirectImports fails when a non-test file in dir imports a path
// matched by forbidden. Subdirectories are not visited.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	imports, err := ScanImports(dir)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	report(t, reason, violations(imports, forbidden))
}

// AssertNoImportsUnder is AssertNoDirectImports over root and every directory
// below it, skipping directories whose name starts with an underscore.
func AssertNoImportsUnder(t testing.TB, root string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	var found []Import
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case !d.IsDir():
			return nil
		case path != root && strings.HasPrefix(d.Name(), "_"):
			return filepath.SkipDir
		}
		imports, err := ScanImports(path)
		found = append(found, violations(imports, forbidden)...)
		return err
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	report(t, reason, found)
}

// InternalImportForbidden matches any path with an internal element below the
// first segment.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/")
}

// PackagesForbidden matches the listed module packages and anything below
// them. Names are relative to ModulePath, such as "internal/core".
func PackagesForbidden(pkgs ...string) func(string) bool {
	return func(path string) bool {
		rel, ok := strings.CutPrefix(path, ModulePath+"/")
		if !ok {
			return false
		}
		return slices.ContainsFunc(pkgs, func(p string) bool {
			return rel == p || strings.HasPrefix(rel, p+"/")
		})
	}
}
