package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/atlassify/internal/auth"
	"github.com/nhle/atlassify/internal/model"
)

func newLoginCmd() *cobra.Command {
	var username, token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Add an Atlassian account",
		Long:  "Validate an Atlassian username and API token and store the account. The token is read from stdin when --token is omitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading token from stdin: %w", err)
				}
				token = strings.TrimSpace(line)
			}

			e, err := openEnv(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.remote(); err != nil {
				return err
			}

			account, err := e.authService().Login(cmd.Context(), username, token)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", account.Label(), account.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Atlassian account e-mail")
	cmd.Flags().StringVar(&token, "token", "", "Atlassian API token")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <account-id|username>",
		Short: "Remove an account and forget its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			accounts, err := e.authService().Accounts(cmd.Context())
			if err != nil {
				return err
			}
			target, ok := findAccount(accounts, args[0])
			if !ok {
				return fmt.Errorf("%w: %s", auth.ErrAccountNotFound, args[0])
			}

			if err := e.remote(); err != nil {
				return err
			}
			account, err := e.authService().Logout(cmd.Context(), target.ID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", account.Label())
			return nil
		},
	}
}

func findAccount(accounts []model.Account, key string) (model.Account, bool) {
	for _, a := range accounts {
		if a.ID == key || strings.EqualFold(a.Username, key) {
			return a, true
		}
	}
	return model.Account{}, false
}

func newAccountsCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List logged-in accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			var accounts []model.Account
			if refresh {
				if err := e.remote(); err != nil {
					return err
				}
				accounts, err = e.authService().RefreshAccounts(cmd.Context())
			} else {
				accounts, err = e.authService().Accounts(cmd.Context())
			}
			if err != nil {
				return err
			}

			if len(accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No accounts. Run `atlassify login` first.")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "USERNAME", "NAME")
			for _, a := range accounts {
				t.Row(a.ID, a.Username, a.DisplayName)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh display names from Atlassian")

	return cmd
}
