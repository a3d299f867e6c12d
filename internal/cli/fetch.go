package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/notification"
	"github.com/nhle/atlassify/internal/source/atlassian"
	"github.com/nhle/atlassify/internal/state"
	"github.com/nhle/atlassify/internal/theme"
)

// accountOutput is the --json shape of one account's notifications.
type accountOutput struct {
	ID            string                        `json:"id"`
	Name          string                        `json:"name"`
	Error         string                        `json:"error,omitempty"`
	HasMore       bool                          `json:"hasMoreNotifications"`
	Notifications []model.AtlassifyNotification `json:"notifications"`
}

func newFetchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch notifications once and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, !asJSON)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.pipeline(cmd.Context(), nil)
			if err != nil {
				return err
			}

			msg, _ := p.poller.RunOnce(cmd.Context())
			settings := p.container.Settings()

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), msg.State, settings)
			}
			writeText(cmd.OutOrStdout(), msg.State, settings)
			if msg.GlobalError != "" {
				return fmt.Errorf("fetching notifications: %s", msg.GlobalError.Details().Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print notifications as JSON")

	return cmd
}

func displayed(acc model.AccountNotifications, settings model.Settings) []model.AtlassifyNotification {
	ns := notification.Filter(acc.Notifications, settings.Filters)
	return notification.Arrange(ns, settings.Notifications)
}

func writeJSON(w io.Writer, v state.View, settings model.Settings) error {
	out := make([]accountOutput, 0, len(v.Accounts))
	for _, acc := range v.Accounts {
		ns := displayed(acc, settings)
		for i := range ns {
			ns[i].Account.EncryptedToken = ""
		}
		o := accountOutput{
			ID:            acc.Account.ID,
			Name:          acc.Account.Label(),
			HasMore:       acc.HasMoreNotifications,
			Notifications: ns,
		}
		if acc.Error != nil {
			o.Error = string(atlassian.Classify(acc.Error))
		}
		out = append(out, o)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeText(w io.Writer, v state.View, settings model.Settings) {
	if len(v.Accounts) == 0 {
		fmt.Fprintln(w, "No accounts. Run `atlassify login` first.")
		return
	}

	for _, acc := range v.Accounts {
		ns := displayed(acc, settings)
		fmt.Fprintln(w, theme.SectionStyle.Render(fmt.Sprintf("%s (%d)", acc.Account.Label(), len(ns))))

		if acc.Error != nil {
			d := atlassian.Classify(acc.Error).Details()
			fmt.Fprintf(w, "  %s %s\n", d.Emoji, d.Title)
			continue
		}

		for _, n := range ns {
			mark := "○"
			if n.IsUnread() {
				mark = "●"
			}
			badge := theme.ProductStyle(n.Product).Render(n.Product.Details().Code)
			fmt.Fprintf(w, "  %s %s %s\n", mark, lipgloss.NewStyle().Width(3).Render(badge), n.Message)
			if n.URL != "" {
				fmt.Fprintf(w, "      %s\n", theme.DimmedStyle.Render(n.URL))
			}
		}
		if acc.HasMoreNotifications {
			fmt.Fprintln(w, theme.DimmedStyle.Render("  more available"))
		}
	}
}
