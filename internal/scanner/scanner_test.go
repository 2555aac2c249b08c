package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (with parent directories) under a temp root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func paths(files []FileInfo) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestScanPicksUpPythonFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.py":        "x = 1\n",
		"lib/helper.py":  "y = 2\n",
		"lib/types.pyi":  "z: int\n",
		"gui.pyw":        "w = 3\n",
		"README.md":      "docs\n",
		"lib/notes.txt":  "notes\n",
		"data/file.json": "{}\n",
	})

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"gui.pyw", "lib/helper.py", "lib/types.pyi", "main.py"}, paths(files),
		"results are sorted by relative path")
}

func TestScanSkipsExcludedDirectories(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app.py":                        "x = 1\n",
		"__pycache__/app.cpython.py":    "c\n",
		".venv/lib/site.py":             "v\n",
		"venv/bin/activate.py":          "v\n",
		"node_modules/pkg/setup.py":     "n\n",
		".mypy_cache/3.11/cache.py":     "m\n",
		"build/out.py":                  "b\n",
		"src/.pytest_cache/conftest.py": "p\n",
		"src/real.py":                   "r\n",
	})

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "src/real.py"}, paths(files))
}

func TestScanSkipsHiddenFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"visible.py":        "x\n",
		".hidden.py":        "h\n",
		".config/setup.py":  "c\n",
		"pkg/.secret.py":    "s\n",
		"pkg/__init__.py":   "",
		"pkg/submodule.py":  "y\n",
	})

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/__init__.py", "pkg/submodule.py", "visible.py"}, paths(files))
}

func TestScanHonorsIgnoreFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		".pycriticignore":      "generated_*.py\nscratch/\n",
		"main.py":              "x\n",
		"generated_pb.py":      "g\n",
		"scratch/tmp.py":       "t\n",
		"nested/generated_.py": "g\n",
	})

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, paths(files), "unanchored patterns match at any depth")
}

func TestIgnoreNegationRescues(t *testing.T) {
	root := writeTree(t, map[string]string{
		".pycriticignore": "vendor/\n!vendor/keep.py\n",
		"vendor/skip.py":  "s\n",
		"vendor/keep.py":  "k\n",
		"main.py":         "m\n",
	})

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py", "vendor/keep.py"}, paths(files))
}

func TestNestedIgnoreFilesApply(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.py":              "m\n",
		"sub/.pycriticignore":  "local_*.py\n",
		"sub/local_junk.py":    "j\n",
		"sub/kept.py":          "k\n",
	})

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py", "sub/kept.py"}, paths(files))
}

func TestScanEmptyDirectory(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileInfoCarriesSizeAndFullPath(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x = 1\n"})

	files, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(6), files[0].Size)
	assert.True(t, filepath.IsAbs(files[0].FullPath))
}

func TestIgnorePatternSyntax(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		match   bool
	}{
		{"*.py", "main.py", true},
		{"*.py", "dir/main.py", true},
		{"/main.py", "main.py", true},
		{"/main.py", "dir/main.py", false},
		{"dir/", "dir/file.py", true},
		{"dir/", "other/file.py", false},
		{"**/tests/*.py", "a/b/tests/t.py", true},
		{"**/tests/*.py", "tests/t.py", true},
		{"**/tests/*.py", "tests/deep/t.py", false},
		{"test_?.py", "test_a.py", true},
		{"test_?.py", "test_ab.py", false},
	}
	for _, tc := range cases {
		p := ParseIgnorePattern(tc.pattern)
		assert.Equal(t, tc.match, p.Match(tc.path), "pattern %q against %q", tc.pattern, tc.path)
	}
}
