package hostfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files []string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("test content"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
}

func TestOSExistsAndIsDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, []string{"docs/readme.txt"})
	fsys := NewOS()

	tests := []struct {
		name       string
		path       string
		wantExists bool
		wantDir    bool
	}{
		{"directory", filepath.Join(tmpDir, "docs"), true, true},
		{"regular file", filepath.Join(tmpDir, "docs", "readme.txt"), true, false},
		{"missing", filepath.Join(tmpDir, "nope"), false, false},
		{"below a regular file", filepath.Join(tmpDir, "docs", "readme.txt", "sub"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists, err := fsys.Exists(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantExists, exists)

			isDir, err := fsys.IsDir(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, isDir)
		})
	}
}

func TestOSCanonicalFollowsSymlinks(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "target")
	require.NoError(t, os.Mkdir(target, 0755))
	link := filepath.Join(tmpDir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	fsys := NewOS()
	gotLink, err := fsys.Canonical(link)
	require.NoError(t, err)
	gotTarget, err := fsys.Canonical(target)
	require.NoError(t, err)
	assert.Equal(t, gotTarget, gotLink)

	dotted, err := fsys.Canonical(filepath.Join(link, "..", "target"))
	require.NoError(t, err)
	assert.Equal(t, gotTarget, dotted)
}

func TestOSCanonicalMissingPath(t *testing.T) {
	_, err := NewOS().Canonical(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestOSRealpath(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "target")
	require.NoError(t, os.Mkdir(target, 0755))
	fsys := NewOS()

	canonTarget, err := fsys.Canonical(target)
	require.NoError(t, err)

	t.Run("existing path matches Canonical", func(t *testing.T) {
		got, err := fsys.Realpath(target)
		require.NoError(t, err)
		assert.Equal(t, canonTarget, got)
	})

	t.Run("missing tail is appended", func(t *testing.T) {
		got, err := fsys.Realpath(filepath.Join(target, "missing", "deeper"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(canonTarget, "missing", "deeper"), got)
	})

	t.Run("missing tail below a symlink", func(t *testing.T) {
		link := filepath.Join(tmpDir, "link")
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
		got, err := fsys.Realpath(filepath.Join(link, "missing"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(canonTarget, "missing"), got)
	})
}

func TestGlob(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, []string{
		"a.txt",
		"b.md",
		"c.py",
		"data1.csv",
		"data2.csv",
		"dataX.csv",
		".hidden.txt",
		"sub/nested.txt",
	})
	fsys := NewOS()

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"star", "*", []string{"a.txt", "b.md", "c.py", "data1.csv", "data2.csv", "dataX.csv", "sub"}},
		{"extension", "*.txt", []string{"a.txt"}},
		{"question mark", "data?.csv", []string{"data1.csv", "data2.csv", "dataX.csv"}},
		{"character class", "data[0-9].csv", []string{"data1.csv", "data2.csv"}},
		{"negated class", "data[!0-9].csv", []string{"dataX.csv"}},
		{"explicit hidden", ".*", []string{".hidden.txt"}},
		{"no match", "*.go", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := fsys.Glob(tmpDir, tt.pattern)
			require.NoError(t, err)

			names := make([]string, len(matches))
			for i, m := range matches {
				assert.True(t, filepath.IsAbs(m), "expected full path, got %s", m)
				names[i] = filepath.Base(m)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestGlobNonDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, []string{"file.txt"})
	fsys := NewOS()

	matches, err := fsys.Glob(filepath.Join(tmpDir, "file.txt"), "*")
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = fsys.Glob(filepath.Join(tmpDir, "missing"), "*")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemMapFS(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/sandbox/docs", 0755))
	require.NoError(t, afero.WriteFile(mem, "/sandbox/docs/readme.txt", []byte("hi"), 0644))

	fsys := NewAfero(mem)
	isDir, err := fsys.IsDir("/sandbox/docs")
	require.NoError(t, err)
	assert.True(t, isDir)

	canon, err := fsys.Canonical("/sandbox/docs/../docs/./")
	require.NoError(t, err)
	assert.Equal(t, "/sandbox/docs", canon)

	matches, err := fsys.Glob("/sandbox/docs", "*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"/sandbox/docs/readme.txt"}, matches)
}

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		pattern string
		wantErr bool
	}{
		{"*", false},
		{"*.txt", false},
		{"[abc]?.md", false},
		{"", true},
		{"sub/*.txt", true},
		{"**", true},
		{"[unterminated", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			err := ValidatePattern(tt.pattern)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrBadPattern), "expected ErrBadPattern, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchName(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"*", "notes.txt", true},
		{"*", ".hidden", false},
		{".*", ".hidden", true},
		{"*.txt", "notes.md", false},
		{"n?tes.*", "notes.md", true},
	}

	for _, tt := range tests {
		got, err := MatchName(tt.pattern, tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "MatchName(%q, %q)", tt.pattern, tt.name)
	}
}

func TestGlobBracesAndBackslashesAreLiteral(t *testing.T) {
	mem := afero.NewMemMapFs()
	for _, name := range []string{"a.txt", "b.txt", "{a,b}.txt", `x\y`, "xy"} {
		require.NoError(t, afero.WriteFile(mem, filepath.Join("/dir", name), []byte("x"), 0644))
	}
	fsys := NewAfero(mem)

	tests := []struct {
		pattern string
		want    []string
	}{
		{"{a,b}.txt", []string{"/dir/{a,b}.txt"}},
		{`x\y`, []string{`/dir/x\y`}},
		{"{*", []string{"/dir/{a,b}.txt"}},
		{"[{]*", []string{"/dir/{a,b}.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			require.NoError(t, ValidatePattern(tt.pattern))
			matches, err := fsys.Glob("/dir", tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, matches)
		})
	}
}
