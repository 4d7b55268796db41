package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ambis/miniquiz/internal/app"
)

// runApp builds dependencies and launches the TUI.
func runApp(cmd *cobra.Command) error {
	d, err := openDeps(cmd, true)
	if err != nil {
		return err
	}
	defer d.Close()

	d.log.Info().Str("version", version).Msg("starting")
	return app.Run(app.Options{
		Auth:            d.session,
		Accounts:        d.accounts,
		Quiz:            d.quiz,
		HistoryPageSize: d.cfg.HistoryPageSize,
		Logger:          d.log,
		Clock:           time.Now,
	})
}
