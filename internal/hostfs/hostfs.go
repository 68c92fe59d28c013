// Package hostfs provides the filesystem primitives the cursor is built on:
// existence checks, directory checks, canonicalization and single-directory
// wildcard matching.
//
// All implementations are backed by an afero.Fs so that resolution logic can be
// exercised against an in-memory filesystem as well as the host filesystem.
// Only the host implementation resolves symlinks; afero has no notion of them.
package hostfs

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// FS is the set of host filesystem queries needed to resolve and list paths.
type FS interface {
	// Exists reports whether anything exists at path.
	Exists(path string) (bool, error)
	// IsDir reports whether path is an existing directory.
	// Missing paths and non-directories report false with a nil error.
	IsDir(path string) (bool, error)
	// Canonical returns the absolute form of path with symlinks resolved.
	// It fails when path does not exist.
	Canonical(path string) (string, error)
	// Realpath is the non-strict form of Canonical: the longest existing
	// prefix of path is resolved and the missing remainder is appended as is.
	Realpath(path string) (string, error)
	// Glob returns the full paths of the entries directly inside dir whose
	// names match pattern. It never descends into subdirectories.
	Glob(dir, pattern string) ([]string, error)
}

// AferoFS implements FS on top of an afero filesystem.
type AferoFS struct {
	fs        afero.Fs
	canonical func(string) (string, error)
	realpath  func(string) (string, error)
}

// NewOS returns an FS for the host filesystem. Canonical follows symlinks.
func NewOS() *AferoFS {
	return &AferoFS{
		fs:        afero.NewOsFs(),
		canonical: evalSymlinks,
		realpath:  evalSymlinksPrefix,
	}
}

// NewAfero returns an FS over an arbitrary afero filesystem.
// Canonicalization is lexical (absolute + clean).
func NewAfero(fsys afero.Fs) *AferoFS {
	if _, ok := fsys.(*afero.OsFs); ok {
		return &AferoFS{fs: fsys, canonical: evalSymlinks, realpath: evalSymlinksPrefix}
	}
	return &AferoFS{
		fs:        fsys,
		canonical: lexical,
		realpath:  lexical,
	}
}

// Afero exposes the underlying afero filesystem.
func (a *AferoFS) Afero() afero.Fs {
	return a.fs
}

func evalSymlinks(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// evalSymlinksPrefix resolves the longest existing prefix of path and
// appends the missing components lexically.
func evalSymlinksPrefix(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	var rest []string
	current := abs
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !isMissing(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		rest = append([]string{filepath.Base(current)}, rest...)
		current = parent
	}
}

func lexical(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Abs(path)
}

// isMissing reports whether err means "nothing is there", which includes a
// path component that is a regular file.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func (a *AferoFS) Exists(path string) (bool, error) {
	_, err := a.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if isMissing(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

func (a *AferoFS) IsDir(path string) (bool, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.IsDir(), nil
}

func (a *AferoFS) Canonical(path string) (string, error) {
	canon, err := a.canonical(path)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", path, err)
	}
	return canon, nil
}

func (a *AferoFS) Realpath(path string) (string, error) {
	resolved, err := a.realpath(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return resolved, nil
}

// Glob matches pattern against the names in dir using shell glob rules:
// a leading "." in a name must be matched explicitly by the pattern.
// A dir that is missing or is not a directory yields no matches.
func (a *AferoFS) Glob(dir, pattern string) ([]string, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		if isDir, statErr := a.IsDir(dir); statErr == nil && !isDir {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	matches := make([]string, 0, len(entries))
	for _, entry := range entries {
		ok, err := MatchName(pattern, entry.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// MatchName reports whether a single entry name matches pattern, applying
// the same hidden-name rule as Glob. Only *, ? and [...] are special; braces
// and backslashes match themselves.
func MatchName(pattern, name string) (bool, error) {
	if strings.HasPrefix(name, ".") && !strings.HasPrefix(pattern, ".") {
		return false, nil
	}
	ok, err := doublestar.Match(literalize(pattern), name)
	if err != nil {
		return false, fmt.Errorf("match %q: %w", pattern, err)
	}
	return ok, nil
}

// ErrBadPattern is returned for patterns that cannot be applied to a single
// directory.
var ErrBadPattern = errors.New("invalid wildcard pattern")

// ValidatePattern checks that pattern is a well-formed, single-segment glob.
// Separators and "**" are rejected because matching never recurses.
func ValidatePattern(pattern string) error {
	switch {
	case pattern == "":
		return fmt.Errorf("%w: empty pattern", ErrBadPattern)
	case strings.ContainsRune(pattern, '/') || strings.ContainsRune(pattern, filepath.Separator):
		return fmt.Errorf("%w: %q contains a path separator", ErrBadPattern, pattern)
	case strings.Contains(pattern, "**"):
		return fmt.Errorf("%w: %q uses recursive wildcard", ErrBadPattern, pattern)
	case !doublestar.ValidatePattern(literalize(pattern)):
		return fmt.Errorf("%w: %q is malformed", ErrBadPattern, pattern)
	}
	return nil
}

// literalize escapes the doublestar extensions that plain shell globs lack:
// {a,b} alternation and backslash escapes.
var literalize = strings.NewReplacer(`\`, `\\`, "{", `\{`, "}", `\}`).Replace
