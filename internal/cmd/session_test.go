package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrison/fileslice/internal/cursor"
	"github.com/harrison/fileslice/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// latestSession reads the session store under home directly.
func latestSession(t *testing.T, home, root string) *session.Session {
	t.Helper()
	store, err := session.NewStore(filepath.Join(home, "state.db"))
	require.NoError(t, err)
	defer store.Close()
	sess, err := store.Latest(context.Background(), root)
	require.NoError(t, err)
	return sess
}

func TestSessionListEmpty(t *testing.T) {
	setupHome(t)

	stdout, _, err := runCLI(t, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No sessions found.")
}

func TestSessionListShowsPosition(t *testing.T) {
	home := setupHome(t)
	root := setupSandbox(t)

	_, _, err := runCLI(t, "--root", root, "ls", "docs")
	require.NoError(t, err)
	sess := latestSession(t, home, root)

	stdout, _, err := runCLI(t, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, sess.ID)
	assert.Contains(t, stdout, "Root:     "+root)
	assert.Contains(t, stdout, "Position: "+filepath.Join(root, "docs"))
}

func TestSessionListShowsPatternsInEffect(t *testing.T) {
	home := setupHome(t)
	root := setupSandbox(t)

	_, _, err := runCLI(t, "--root", root, "ls")
	require.NoError(t, err)

	_, _, err = runCLI(t, "--root", root, "--pattern", "*.md", "ls")
	require.NoError(t, err)
	assert.Equal(t, []string{"*.md"}, latestSession(t, home, root).Patterns)

	stdout, _, err := runCLI(t, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Patterns: *.md")
	assert.NotContains(t, stdout, "Patterns: *\n")
}

func TestSessionFlagSelectsSession(t *testing.T) {
	home := setupHome(t)
	root := setupSandbox(t)

	_, _, err := runCLI(t, "--root", root, "ls", "docs")
	require.NoError(t, err)
	first := latestSession(t, home, root)

	// a second session for the same root becomes the latest
	store, err := session.NewStore(filepath.Join(home, "state.db"))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = store.Create(context.Background(), root, []string{"*"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	stdout, _, err := runCLI(t, "--root", root, "pwd")
	require.NoError(t, err)
	assert.Equal(t, root, strings.TrimSpace(stdout), "latest session starts at root")

	stdout, _, err = runCLI(t, "--root", root, "--session", first.ID, "pwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "docs"), strings.TrimSpace(stdout))
}

func TestSessionFlagWrongRootRejected(t *testing.T) {
	home := setupHome(t)
	root := setupSandbox(t)
	other := setupSandbox(t)

	_, _, err := runCLI(t, "--root", root, "ls")
	require.NoError(t, err)
	sess := latestSession(t, home, root)

	_, _, err = runCLI(t, "--root", other, "--session", sess.ID, "ls")
	require.Error(t, err)
	assert.Equal(t, cursor.KindInvalidConfig, cursor.KindOf(err))
	assert.Contains(t, err.Error(), "is bound to root")
}

func TestSessionFlagUnknownID(t *testing.T) {
	setupHome(t)
	root := setupSandbox(t)

	_, _, err := runCLI(t, "--root", root, "--session", "nope", "pwd")
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionDelete(t *testing.T) {
	home := setupHome(t)
	root := setupSandbox(t)

	_, _, err := runCLI(t, "--root", root, "ls")
	require.NoError(t, err)
	sess := latestSession(t, home, root)

	stdout, _, err := runCLI(t, "session", "delete", sess.ID, "--yes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted session "+sess.ID)

	_, _, err = runCLI(t, "session", "delete", sess.ID, "--yes")
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionDeleteCancelled(t *testing.T) {
	home := setupHome(t)
	root := setupSandbox(t)

	_, _, err := runCLI(t, "--root", root, "ls")
	require.NoError(t, err)
	sess := latestSession(t, home, root)

	cmd := NewRootCommand()
	var out strings.Builder
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader("n\n"))
	cmd.SetArgs([]string{"session", "delete", sess.ID})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Operation cancelled.")

	// still there
	assert.Equal(t, sess.ID, latestSession(t, home, root).ID)
}

func TestSessionCommandsDisabledStore(t *testing.T) {
	setupHome(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	_, _, err := runCLI(t, "--config", cfgPath, "init")
	require.NoError(t, err)

	// overwrite with sessions disabled
	require.NoError(t, writeFile(cfgPath, "state_db: \"\"\n"))

	_, _, err = runCLI(t, "--config", cfgPath, "session", "list")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{3 * time.Minute, "3m"},
		{2 * time.Hour, "2h"},
		{50 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAge(tt.d))
	}
}

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out strings.Builder
		assert.Equal(t, tt.want, confirmAction(strings.NewReader(tt.input), &out), "input %q", tt.input)
	}
}
