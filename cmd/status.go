package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ambis/miniquiz/internal/countdown"
	"github.com/ambis/miniquiz/internal/lifecycle"
)

var errNotLoggedIn = errors.New("not logged in; run `miniquiz login` first")

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed-in user and any running quiz session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		if !d.session.IsAuthed() {
			return errNotLoggedIn
		}
		out := cmd.OutOrStdout()
		if c, ok := d.session.Claims(); ok && c.Email != "" {
			fmt.Fprintln(out, "Signed in as", c.Email)
		}

		ctl := lifecycle.New(d.quiz, d.session, lifecycle.WithLogger(d.log))
		eff, err := ctl.Load(cmd.Context())
		if eff == lifecycle.EffectLogin {
			return errNotLoggedIn
		}
		if err != nil {
			return errors.New(ctl.Err())
		}

		printStatus(out, ctl)
		if watch, _ := cmd.Flags().GetBool("watch"); !watch || ctl.State() != lifecycle.StateActive {
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		for now := range countdown.Ticks(ctx, time.Second, time.Now) {
			eff := ctl.Tick(now)
			fmt.Fprintf(out, "\rTime left: %s ", ctl.Reading())
			if eff == lifecycle.EffectLeaveQuiz {
				fmt.Fprintln(out, "\nTime is up. Your quiz session has expired.")
				return nil
			}
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolP("watch", "w", false, "Keep counting down until the session expires")
}

func printStatus(w io.Writer, ctl *lifecycle.Controller) {
	switch ctl.State() {
	case lifecycle.StateNoSession:
		fmt.Fprintln(w, "No quiz in progress.")
	case lifecycle.StateExpired:
		fmt.Fprintln(w, "Your quiz session has expired.")
	case lifecycle.StateActive:
		s := ctl.Session()
		fmt.Fprintf(w, "Quiz in progress: %s\n", s.SubtestName)
		fmt.Fprintf(w, "Answered: %d of %d\n", len(ctl.Answers()), len(s.Questions))
		fmt.Fprintf(w, "Time left: %s\n", ctl.Reading())
	}
}
