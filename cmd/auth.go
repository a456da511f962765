package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/planner/internal/google"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage saved Google credentials",
		Long: `Manage the Google OAuth tokens the chat, upcoming and mcp commands use
when no --token is given. Tokens are saved per account under the user
cache directory and refreshed automatically.`,
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthStatusCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize planner to use your Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			store, err := google.DefaultTokenStore()
			if err != nil {
				return err
			}

			state := uuid.NewString()
			flow, err := google.NewLoginFlow(oauthClient(cfg), state)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Open this URL in your browser and approve access:\n\n%s\n\n", flow.AuthURL())
			fmt.Fprint(out, "Paste the redirect URL or the code here: ")

			code, err := readAuthCode(cmd.InOrStdin(), state)
			if err != nil {
				return err
			}

			token, err := flow.Exchange(cmd.Context(), code)
			if err != nil {
				return err
			}

			account := accountName(cfg)
			if err := store.Save(account, token); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved credentials for account %q.\n", account)
			return nil
		},
	}

	cmd.Flags().String(keyAccount, "", "Account name to save the token under (default \"default\")")
	cmd.Flags().String(keyGoogleClientID, "", "Google OAuth client id")
	cmd.Flags().String(keyGoogleClientSecret, "", "Google OAuth client secret")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Delete the saved token of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := google.DefaultTokenStore()
			if err != nil {
				return err
			}
			account := accountName(loadConfig())
			if err := store.Delete(account); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed credentials for account %q.\n", account)
			return nil
		},
	}

	cmd.Flags().String(keyAccount, "", "Account name (default \"default\")")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether an account has a saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := google.DefaultTokenStore()
			if err != nil {
				return err
			}
			account := accountName(loadConfig())

			out := cmd.OutOrStdout()
			if !store.Has(account) {
				fmt.Fprintf(out, "Account %q: not logged in. Run \"planner auth login\".\n", account)
				return nil
			}
			fmt.Fprintf(out, "Account %q: logged in (%s)\n", account, store.Dir)
			return nil
		},
	}

	cmd.Flags().String(keyAccount, "", "Account name (default \"default\")")

	return cmd
}

func accountName(cfg config) string {
	if cfg.Account == "" {
		return google.DefaultAccount
	}
	return cfg.Account
}

// readAuthCode reads one line holding either the bare authorization code
// or the full redirect URL. A URL must carry the expected state.
func readAuthCode(in io.Reader, state string) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read auth code: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no auth code given")
	}

	if !strings.Contains(line, "://") {
		return line, nil
	}

	u, err := url.Parse(line)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if q.Get("state") != state {
		return "", errors.New("state mismatch in redirect URL")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL has no code")
	}
	return code, nil
}
