package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/atlassify/internal/app"
	"github.com/nhle/atlassify/internal/logging"
	"github.com/nhle/atlassify/internal/notify"
	"github.com/nhle/atlassify/internal/ui/tray"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive notification inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}
}

func runTUI(cmd *cobra.Command) error {
	e, err := openEnv(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	bridge := tray.New(os.Stderr, notify.NewLogBridge(nil))
	p, err := e.pipeline(cmd.Context(), bridge)
	if err != nil {
		return err
	}
	defer p.poller.Stop()

	e.watchConfig(p.poller, false)

	root := app.New(app.Deps{
		Store:     e.store,
		Container: p.container,
		Poller:    p.poller,
		Auth:      p.auth,
		Tray:      bridge,
	})

	program := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll in the background and log new notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := e.pipeline(ctx, nil)
			if err != nil {
				return err
			}
			e.watchConfig(p.poller, true)

			p.poller.Start()
			defer p.poller.Stop()

			logging.Logger().WithField("interval", e.pollInterval()).Info("watching notifications")
			return watchLoop(ctx, cmd, p)
		},
	}
	return cmd
}

func watchLoop(ctx context.Context, cmd *cobra.Command, p *pipeline) error {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-p.poller.Results():
			line := fmt.Sprintf("%s  %d unread, %d new",
				time.Now().Format("15:04:05"), msg.State.UnreadCount, msg.NewCount)
			if msg.GlobalError != "" {
				d := msg.GlobalError.Details()
				line += "  " + d.Emoji + " " + d.Title
			}
			fmt.Fprintln(out, line)
		}
	}
}
