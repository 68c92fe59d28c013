// Package cursor implements a sandboxed, stateful file-listing cursor.
//
// A Cursor holds a fixed root directory, a current position inside it and a
// set of wildcard patterns. Each List call resolves a path fragment against
// the position or the root, verifies that the result stays inside root after
// symlink resolution, moves the position there and lists the matching entries.
//
// Fragments are resolved in strict priority order:
//  1. an absolute fragment that exists is used as-is
//  2. position joined with the fragment, if that is a directory
//  3. root joined with the fragment, if that is a directory
//
// A fragment with no interpretation yields an empty listing and leaves the
// position alone. A fragment that resolves outside root is an access denial
// and is always returned to the caller.
//
// A Cursor is meant for a single owner. Use Synchronized to share one.
package cursor

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison/fileslice/internal/hostfs"
)

// DefaultPattern matches every entry.
const DefaultPattern = "*"

// Logger receives cursor events. Implemented by the logger package.
type Logger interface {
	LogDebug(message string)
	LogListing(position string, count int)
	LogNotFound(fragment string)
	LogDenied(fragment, path string)
}

type noopLogger struct{}

func (noopLogger) LogDebug(string)          {}
func (noopLogger) LogListing(string, int)   {}
func (noopLogger) LogNotFound(string)       {}
func (noopLogger) LogDenied(string, string) {}

// Cursor lists matching files while confining navigation to root.
type Cursor struct {
	root     string
	position string
	patterns []string
	fs       hostfs.FS
	log      Logger
}

type settings struct {
	patterns []string
	fs       hostfs.FS
	log      Logger
	position string
}

// Option configures a Cursor at construction.
type Option func(*settings)

// WithPatterns sets the wildcard patterns. Duplicates are dropped, order is kept.
func WithPatterns(patterns ...string) Option {
	return func(s *settings) {
		s.patterns = append(s.patterns, patterns...)
	}
}

// WithFS replaces the host filesystem.
func WithFS(fsys hostfs.FS) Option {
	return func(s *settings) {
		s.fs = fsys
	}
}

// WithLogger sets the event logger.
func WithLogger(l Logger) Option {
	return func(s *settings) {
		s.log = l
	}
}

// WithPosition restores a previously saved position. New fails if the
// position cannot be verified to lie inside root.
func WithPosition(position string) Option {
	return func(s *settings) {
		s.position = position
	}
}

// New creates a Cursor rooted at root. The root is required; there is no
// implicit default.
func New(root string, opts ...Option) (*Cursor, error) {
	if strings.TrimSpace(root) == "" {
		return nil, &Error{Kind: KindInvalidConfig, Op: "new", Err: errors.New("root directory is required")}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &Error{Kind: KindInvalidConfig, Op: "new", Path: root, Err: err}
	}

	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.fs == nil {
		s.fs = hostfs.NewOS()
	}
	if s.log == nil {
		s.log = noopLogger{}
	}

	patterns, err := normalizePatterns(s.patterns)
	if err != nil {
		return nil, &Error{Kind: KindInvalidConfig, Op: "new", Err: err}
	}

	c := &Cursor{
		root:     absRoot,
		position: absRoot,
		patterns: patterns,
		fs:       s.fs,
		log:      s.log,
	}

	if s.position != "" {
		pos, err := filepath.Abs(s.position)
		if err != nil {
			return nil, &Error{Kind: KindInvalidConfig, Op: "new", Path: s.position, Err: err}
		}
		if err := c.verify("restore", s.position, pos); err != nil {
			return nil, err
		}
		c.position = pos
	}

	return c, nil
}

func normalizePatterns(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return []string{DefaultPattern}, nil
	}

	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if err := hostfs.ValidatePattern(p); err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// Root returns the absolute root directory.
func (c *Cursor) Root() string {
	return c.root
}

// Position returns the current absolute position.
func (c *Cursor) Position() string {
	return c.position
}

// Patterns returns a copy of the configured patterns.
func (c *Cursor) Patterns() []string {
	out := make([]string, len(c.patterns))
	copy(out, c.patterns)
	return out
}

// Reset moves the position back to root.
func (c *Cursor) Reset() {
	c.position = c.root
}

// List resolves fragment, moves the position there and returns the base names
// of the entries matching any configured pattern.
//
// A fragment with no interpretation returns an empty slice and a nil error.
// Access denials and filesystem failures are returned as *Error; the position
// is only moved once containment has been verified.
func (c *Cursor) List(fragment string) ([]string, error) {
	candidate, err := c.resolve(fragment)
	if err != nil {
		if KindOf(err) == KindPathNotFound {
			c.log.LogNotFound(fragment)
			return []string{}, nil
		}
		return nil, err
	}

	if err := c.verify("list", fragment, candidate); err != nil {
		return nil, err
	}
	c.position = candidate

	names, err := c.match()
	if err != nil {
		return nil, err
	}
	c.log.LogListing(c.position, len(names))
	return names, nil
}

// Resolve returns the position fragment would move to, without moving.
// Unlike List it reports KindPathNotFound as an error.
func (c *Cursor) Resolve(fragment string) (string, error) {
	candidate, err := c.resolve(fragment)
	if err != nil {
		return "", err
	}
	if err := c.verify("resolve", fragment, candidate); err != nil {
		return "", err
	}
	return candidate, nil
}

// Contains reports whether path is root or lies below it once symlinks are
// resolved. A path that cannot be canonicalized is an error. A root that does
// not exist is still compared by its resolved prefix, so an existing path
// outside it is reported as outside rather than failing.
func (c *Cursor) Contains(path string) (bool, error) {
	canonRoot, err := c.fs.Realpath(c.root)
	if err != nil {
		return false, err
	}
	canonPath, err := c.fs.Canonical(path)
	if err != nil {
		return false, err
	}
	return within(canonRoot, canonPath), nil
}

// within reports whether root is the longest common path prefix of root and path.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (c *Cursor) resolve(fragment string) (string, error) {
	if filepath.IsAbs(fragment) {
		exists, err := c.fs.Exists(fragment)
		if err != nil {
			return "", &Error{Kind: KindIO, Op: "resolve", Fragment: fragment, Path: fragment, Err: err}
		}
		if exists {
			return filepath.Clean(fragment), nil
		}
		// Joining an absolute fragment yields the fragment itself, which
		// has just been found missing.
		return "", &Error{Kind: KindPathNotFound, Op: "resolve", Fragment: fragment}
	}

	bases := []string{c.position}
	if c.root != c.position {
		bases = append(bases, c.root)
	}
	for _, base := range bases {
		joined := filepath.Join(base, fragment)
		isDir, err := c.fs.IsDir(joined)
		if err != nil {
			return "", &Error{Kind: KindIO, Op: "resolve", Fragment: fragment, Path: joined, Err: err}
		}
		if isDir {
			c.log.LogDebug(fmt.Sprintf("resolved %q against %s", fragment, base))
			return joined, nil
		}
	}

	return "", &Error{Kind: KindPathNotFound, Op: "resolve", Fragment: fragment}
}

func (c *Cursor) verify(op, fragment, candidate string) error {
	ok, err := c.Contains(candidate)
	if err != nil {
		return &Error{Kind: KindIO, Op: op, Fragment: fragment, Path: candidate, Err: err}
	}
	if !ok {
		c.log.LogDenied(fragment, candidate)
		return &Error{Kind: KindAccessDenied, Op: op, Fragment: fragment, Path: candidate}
	}
	return nil
}

func (c *Cursor) match() ([]string, error) {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, pattern := range c.patterns {
		matches, err := c.fs.Glob(c.position, pattern)
		if err != nil {
			return nil, &Error{Kind: KindIO, Op: "list", Path: c.position, Err: err}
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			names = append(names, filepath.Base(m))
		}
	}
	sort.Strings(names)
	return names, nil
}
