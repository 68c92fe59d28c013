package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/harrison/fileslice/internal/config"
	"github.com/harrison/fileslice/internal/confine"
	"github.com/harrison/fileslice/internal/cursor"
	"github.com/harrison/fileslice/internal/logger"
	"github.com/harrison/fileslice/internal/session"
	"github.com/spf13/cobra"
)

// env is the per-invocation state shared by the cursor subcommands.
type env struct {
	cfg     *config.Config
	log     *logger.MultiLogger
	store   *session.Store   // nil when sessions are disabled
	session *session.Session // nil when sessions are disabled
	cursor  *cursor.Cursor
}

// loadConfig reads the config file and applies the persistent flags.
// The result is not validated.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	home, err := config.GetHome()
	if err != nil {
		return nil, "", fmt.Errorf("failed to locate fileslice home: %w", err)
	}

	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	if configPath == "" {
		configPath = config.DefaultConfigPath(home)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	mergeFlags(cmd, cfg)
	cfg.ResolvePaths(home)

	return cfg, home, nil
}

// mergeFlags applies the persistent flags the user set explicitly.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	var rootPtr, levelPtr *string
	var confinePtr *bool
	if flags.Changed("root") {
		root, _ := flags.GetString("root")
		rootPtr = &root
	}
	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		levelPtr = &level
	}
	if flags.Changed("confine") {
		c, _ := flags.GetBool("confine")
		confinePtr = &c
	}
	patterns, _ := flags.GetStringArray("pattern")
	cfg.MergeWithFlags(rootPtr, patterns, levelPtr, confinePtr)
}

// openEnv builds the cursor for a subcommand: it loads the session for the
// configured root, wires the loggers and restores the saved position.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, &cursor.Error{Kind: cursor.KindInvalidConfig, Op: "config", Err: err}
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, &cursor.Error{Kind: cursor.KindInvalidConfig, Op: "config", Path: cfg.Root, Err: err}
	}

	e := &env{cfg: cfg}
	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	loggers := []logger.Logger{console}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.StateDB != "" {
		store, err := session.NewStore(cfg.StateDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		e.store = store

		sessionID, _ := cmd.Flags().GetString("session")
		sess, err := pickSession(ctx, store, sessionID, root, cfg.Patterns)
		if err != nil {
			store.Close()
			return nil, err
		}
		e.session = sess
	}

	if cfg.LogDir != "" {
		tag := "ephemeral"
		if e.session != nil {
			tag = shortID(e.session.ID)
		}
		fileLog, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel, tag)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
		loggers = append(loggers, fileLog)
	}
	e.log = logger.NewMultiLogger(loggers...)

	if cfg.Confine {
		if err := e.restrict(root); err != nil {
			e.Close()
			return nil, err
		}
	}

	if err := e.openCursor(ctx, root); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// pickSession returns the requested session, or the latest session for root,
// creating one when none exists.
func pickSession(ctx context.Context, store *session.Store, id, root string, patterns []string) (*session.Session, error) {
	if id != "" {
		sess, err := store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", id, err)
		}
		if sess.Root != root {
			return nil, &cursor.Error{
				Kind: cursor.KindInvalidConfig,
				Op:   "session",
				Path: root,
				Err:  fmt.Errorf("session %s is bound to root %s", id, sess.Root),
			}
		}
		return sess, nil
	}

	sess, err := store.Latest(ctx, root)
	if errors.Is(err, session.ErrNotFound) {
		return store.Create(ctx, root, patterns)
	}
	return sess, err
}

func (e *env) restrict(root string) error {
	if !confine.Supported() {
		e.log.LogWarn("Landlock confinement is not available on this platform, continuing unconfined")
		return nil
	}
	rw := []string{e.cfg.LogDir}
	if e.cfg.StateDB != "" && e.cfg.StateDB != ":memory:" {
		rw = append(rw, filepath.Dir(e.cfg.StateDB))
	}
	if err := confine.Restrict(root, rw); err != nil {
		return err
	}
	e.log.LogDebug(fmt.Sprintf("confined to %s", root))
	return nil
}

// openCursor creates the cursor at the session position. A saved position
// that no longer verifies (deleted, or moved outside root by a symlink change)
// falls back to root.
func (e *env) openCursor(ctx context.Context, root string) error {
	opts := []cursor.Option{
		cursor.WithPatterns(e.cfg.Patterns...),
		cursor.WithLogger(e.log),
	}
	if e.session == nil {
		c, err := cursor.New(root, opts...)
		e.cursor = c
		return err
	}

	c, err := cursor.New(root, append(opts, cursor.WithPosition(e.session.Position))...)
	if err == nil {
		e.cursor = c
		return nil
	}
	switch cursor.KindOf(err) {
	case cursor.KindAccessDenied, cursor.KindIO:
		e.log.LogWarn(fmt.Sprintf("Saved position %s is no longer usable (%v), resetting to root", e.session.Position, err))
	default:
		return err
	}

	c, err = cursor.New(root, opts...)
	if err != nil {
		return err
	}
	e.cursor = c
	return e.save(ctx)
}

// save persists the cursor position and the patterns in effect to the session.
func (e *env) save(ctx context.Context) error {
	if e.store == nil || e.session == nil {
		return nil
	}
	position, patterns := e.cursor.Position(), e.cursor.Patterns()
	if err := e.store.Update(ctx, e.session.ID, position, patterns); err != nil {
		return fmt.Errorf("failed to save session position: %w", err)
	}
	e.session.Position = position
	e.session.Patterns = patterns
	return nil
}

// Close releases the session store.
func (e *env) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// openStore opens the session store without requiring a root.
func openStore(cmd *cobra.Command) (*session.Store, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.StateDB == "" {
		return nil, &cursor.Error{Kind: cursor.KindInvalidConfig, Op: "session", Err: errors.New("sessions are disabled (state_db is empty)")}
	}
	store, err := session.NewStore(cfg.StateDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

// ExitCode maps an error returned by a command to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch cursor.KindOf(err) {
	case cursor.KindInvalidConfig:
		return 2
	case cursor.KindAccessDenied:
		return 3
	case cursor.KindPathNotFound:
		return 4
	default:
		return 1
	}
}
