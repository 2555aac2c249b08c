// Package scanner discovers the Python source files under a directory
// tree. It respects .pycriticignore files with gitignore-style patterns and
// skips the virtualenv and VCS clutter a student project drags along.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// pythonExtensions are the file suffixes treated as Python source.
var pythonExtensions = []string{".py", ".pyw", ".pyi"}

// FileInfo represents one discovered Python file.
type FileInfo struct {
	Path     string // Relative path from root
	FullPath string // Absolute path
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	FollowSymlinks  bool     // Follow symlinks (within root only)
	DefaultExcludes []string // Directory names to exclude outright
	IgnoreFileName  string   // Name of the ignore file (default: .pycriticignore)
	Extensions      []string // File suffixes to pick up (default: Python)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		FollowSymlinks: false,
		IgnoreFileName: ".pycriticignore",
		Extensions:     pythonExtensions,
		DefaultExcludes: []string{
			"__pycache__",
			".git",
			".hg",
			".svn",
			".venv",
			"venv",
			"env",
			"site-packages",
			".tox",
			".nox",
			".mypy_cache",
			".pytest_cache",
			".eggs",
			"dist",
			"build",
			".idea",
			".vscode",
			"node_modules",
		},
	}
}

// Scanner walks a directory tree collecting Python files.
type Scanner struct {
	opts Options
	root string
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	if len(opts.Extensions) == 0 {
		opts.Extensions = pythonExtensions
	}
	if opts.IgnoreFileName == "" {
		opts.IgnoreFileName = ".pycriticignore"
	}
	return &Scanner{opts: opts}
}

// Scan recursively scans the directory at root and returns the Python
// files found, sorted by relative path so every run sees the same order.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	s.root = absRoot

	ignorePatterns, err := s.loadIgnorePatterns(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPathSlash := filepath.ToSlash(relPath)

		if s.opts.SkipHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if s.isDefaultExcluded(info.Name()) {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnorePatterns(path)
			if err == nil && len(nested) > 0 {
				ignorePatterns = append(ignorePatterns, nested...)
			}
			return nil
		}

		if !s.isPythonFile(info.Name()) {
			return nil
		}
		if matchesIgnorePatterns(relPathSlash, ignorePatterns) {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if !s.opts.FollowSymlinks {
				return nil
			}
			resolved, ok := s.resolveSymlink(path, absRoot)
			if !ok {
				return nil
			}
			info = resolved
		}

		files = append(files, FileInfo{
			Path:     relPathSlash,
			FullPath: path,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// resolveSymlink follows a symlink and returns the target's info when the
// target is a regular file inside the scan root.
func (s *Scanner) resolveSymlink(path, absRoot string) (os.FileInfo, bool) {
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, false
	}
	realAbs, err := filepath.Abs(realPath)
	if err != nil {
		return nil, false
	}
	if !strings.HasPrefix(realAbs, absRoot+string(filepath.Separator)) && realAbs != absRoot {
		return nil, false
	}
	target, err := os.Stat(realPath)
	if err != nil || target.IsDir() {
		return nil, false
	}
	return target, true
}

func (s *Scanner) isPythonFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range s.opts.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// isDefaultExcluded checks if the name matches default exclusion patterns.
func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnorePatterns loads patterns from the ignore file in dir, if any.
func (s *Scanner) loadIgnorePatterns(dir string) ([]IgnorePattern, error) {
	ignorePath := filepath.Join(dir, s.opts.IgnoreFileName)
	file, err := os.Open(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []IgnorePattern
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line))
	}
	return patterns, scanner.Err()
}

// matchesIgnorePatterns applies gitignore semantics: patterns run in order
// and a later negation can rescue a previously ignored path.
func matchesIgnorePatterns(relPath string, patterns []IgnorePattern) bool {
	ignored := false
	for _, pattern := range patterns {
		if pattern.Match(relPath) {
			ignored = !pattern.IsNegation()
		}
	}
	return ignored
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
