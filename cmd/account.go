package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ambis/miniquiz/internal/account"
	"github.com/ambis/miniquiz/internal/api"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		email, _ := cmd.Flags().GetString("email")
		in := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()
		if email == "" {
			fmt.Fprint(out, "Email: ")
			line, err := in.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read email: %w", err)
			}
			email = strings.TrimSpace(line)
		}

		fmt.Fprint(out, "Password: ")
		password, err := readPassword(in)
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		err = d.accounts.Login(cmd.Context(), account.Credentials{Email: email, Password: password})
		if err != nil {
			if api.Status(err) == http.StatusUnauthorized {
				return errors.New("incorrect email or password")
			}
			return errors.New(api.UserMessage(err, "Login failed. Please try again."))
		}
		fmt.Fprintln(out, "Logged in as", email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		if !d.session.IsAuthed() {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			return nil
		}
		d.accounts.Logout(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "Account email; prompted for when omitted")
}

// readPassword reads without echo from a terminal, or a plain line when
// stdin is piped.
func readPassword(in *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		return string(b), err
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
