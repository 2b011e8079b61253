package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/mod/modfile"
)

// layers maps a directory under internal/ to the internal packages it must
// not import. The first matching prefix wins.
var layers = []struct {
	dir        string
	disallowed []string
}{
	{"domain", []string{"data", "services", "http", "app", "modules", "platform"}},
	{"platform", []string{"domain", "data", "services", "http", "app", "modules"}},
	{"modules", []string{"data", "services", "http", "app"}},
	{"data", []string{"services", "http", "app", "modules"}},
	{"realtime", []string{"data", "services", "http", "app"}},
	{"services", []string{"http", "app"}},
	{"http", []string{"app", "data/db"}},
}

func TestImportBoundaries(t *testing.T) {
	root, modulePath := moduleRoot(t)
	internal := filepath.Join(root, "internal")
	fset := token.NewFileSet()

	err := filepath.WalkDir(internal, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return err
		}
		rel, err := filepath.Rel(internal, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		disallowed := disallowedFor(rel)
		if len(disallowed) == 0 {
			return nil
		}

		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, spec := range f.Imports {
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			for _, bad := range disallowed {
				target := modulePath + "/internal/" + bad
				if imp == target || strings.HasPrefix(imp, target+"/") {
					t.Errorf("internal/%s imports %q (internal/%s is off limits)", rel, imp, bad)
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk internal/: %v", err)
	}
}

func disallowedFor(rel string) []string {
	for _, l := range layers {
		if strings.HasPrefix(rel, l.dir+"/") {
			return l.disallowed
		}
	}
	return nil
}

func moduleRoot(t *testing.T) (dir, modulePath string) {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			if modulePath = modfile.ModulePath(data); modulePath == "" {
				t.Fatalf("no module path in %s/go.mod", dir)
			}
			return dir, modulePath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found")
		}
		dir = parent
	}
}
