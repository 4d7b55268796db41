package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ambis/miniquiz/internal/account"
	"github.com/ambis/miniquiz/internal/api"
	"github.com/ambis/miniquiz/internal/auth"
	"github.com/ambis/miniquiz/internal/config"
	"github.com/ambis/miniquiz/internal/logger"
	"github.com/ambis/miniquiz/internal/quiz"
	"github.com/ambis/miniquiz/internal/store"
)

// deps is everything a command needs to talk to the API on behalf of the
// stored user.
type deps struct {
	cfg      *config.Config
	log      zerolog.Logger
	session  *auth.Session
	accounts *account.Service
	quiz     *quiz.Client

	closers []io.Closer
}

// openDeps loads configuration and builds the service graph. The TUI owns
// the terminal, so when toFile is set logs go to the log file instead of
// stderr.
func openDeps(cmd *cobra.Command, toFile bool) (*deps, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.Options{ConfigFile: cfgFile, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}

	d := &deps{cfg: cfg}

	var out io.Writer = os.Stderr
	if toFile {
		path, err := cfg.LogPath()
		if err != nil {
			return nil, err
		}
		f, err := logger.OpenFile(path)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, f)
		out = f
	}
	d.log = logger.New(out, cfg.Log.Level, cfg.Log.Format)

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	d.closers = append(d.closers, st)

	d.session, err = auth.Open(cmd.Context(), st.CredentialRepo(), d.log)
	if err != nil {
		d.Close()
		return nil, err
	}

	client := api.New(cfg.APIBaseURL, d.session,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(d.log),
	)
	d.accounts = account.New(client, d.session, d.log)
	d.quiz = quiz.NewClient(client, d.log)

	d.log.Debug().
		Str("api", cfg.APIBaseURL).
		Str("db", dbPath).
		Bool("authed", d.session.IsAuthed()).
		Msg("dependencies ready")
	return d, nil
}

// Close releases the store and log file, last opened first.
func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i].Close())
	}
	d.closers = nil
	return errors.Join(errs...)
}

// resolveDBPath returns the configured database path (--db flag, then
// MINIQUIZ_DB, then config), falling back to the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
