package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testForbiddenImport = "some/forbidden/package"

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"housingcore/internal/core", true},
		{"example.com/some/internal/deep/path", true},
		{"housingcore/pkg/domain", false},
		{"example.com/internal", false},
		{"notinternal", false},
		{"", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestPackagesForbiddenPredicate(t *testing.T) {
	forbid := PackagesForbidden("internal/core", "internal/infra")
	cases := []struct {
		in   string
		want bool
	}{
		{"housingcore/internal/core", true},
		{"housingcore/internal/infra/blob/s3", true},
		{"housingcore/internal/corex", false},
		{"housingcore/internal/lifecycle", false},
		{"other/internal/core", false},
	}
	for _, c := range cases {
		if got := forbid(c.in); got != c.want {
			t.Fatalf("forbid(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func only(path string) func(string) bool { return func(p string) bool { return p == path } }

func TestScanImportsIgnoresTestsAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "main.go", "package tmp\nimport (\n\t\"fmt\"\n\talias \"context\"\n\t. \"io\"\n)\nfunc X(){ fmt.Println(1) }\n")
	writeGo(t, dir, "main_test.go", "package tmp\nimport \""+testForbiddenImport+"\"\n")
	writeGo(t, filepath.Join(dir, "sub"), "sub.go", "package sub\nimport \""+testForbiddenImport+"\"\n")
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("import \"x\""), 0o600); err != nil {
		t.Fatalf("write txt: %v", err)
	}
	imports, err := ScanImports(dir)
	if err != nil || len(imports) != 3 {
		t.Fatalf("expected three imports, got %v %v", imports, err)
	}
	if imports[1].Path != "context" || imports[1].Pos.Line != 4 {
		t.Fatalf("unexpected aliased import %+v", imports[1])
	}
	AssertNoDirectImports(t, dir, only(testForbiddenImport), "non-recursive")

	sub, err := ScanImports(filepath.Join(dir, "sub"))
	if err != nil || len(violations(sub, only(testForbiddenImport))) != 1 {
		t.Fatalf("expected one violation in sub, got %v %v", sub, err)
	}
}

func TestReportListsEveryViolation(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, filepath.Join(dir, "b", "c"), "c.go", "package c\nimport \""+testForbiddenImport+"\"\n")
	imports, err := ScanImports(filepath.Join(dir, "b", "c"))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var rec recordingFatal
	report(&rec, "tree", violations(imports, only(testForbiddenImport)))
	if !strings.Contains(rec.msg, "c.go:2 imports "+testForbiddenImport) {
		t.Fatalf("expected file and line in report, got %q", rec.msg)
	}
	rec = recordingFatal{}
	report(&rec, "clean", nil)
	if rec.msg != "" {
		t.Fatalf("clean scan should not fail: %q", rec.msg)
	}
}

func TestAssertNoImportsUnderSkipsUnderscoreDirs(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package a\nimport \"fmt\"\n")
	writeGo(t, filepath.Join(dir, "b", "c"), "c.go", "package c\nimport \"io\"\n")
	writeGo(t, filepath.Join(dir, "_skip"), "s.go", "package s\nimport \""+testForbiddenImport+"\"\n")
	AssertNoImportsUnder(t, dir, only(testForbiddenImport), "underscore dirs are ignored")
	AssertNoImportsUnder(t, filepath.Join(dir, "b"), only("fmt"), "fmt only at root")
}

func TestScanImportsErrors(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "bad.go", "package\n")
	if _, err := ScanImports(dir); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := ScanImports(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected read error")
	}
}
