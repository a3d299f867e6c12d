package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/store"
)

var errUsage = errors.New("usage")

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show, change or import user settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key=value>...",
		Short: "Change one or more settings",
		Long:  "Change settings by dotted key, e.g. `atlassify settings set system.openLinks=background`.\n\nKeys:\n  " + strings.Join(model.SettingKeys(), "\n  "),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateSettings(cmd, func(s *model.Settings) error {
				for _, arg := range args {
					key, value, ok := strings.Cut(arg, "=")
					if !ok {
						return fmt.Errorf("%w: expected key=value, got %q", errUsage, arg)
					}
					if err := s.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateSettings(cmd, func(s *model.Settings) error {
				*s = model.DefaultSettings()
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored state with a saved state file",
		Long:  "Replace the stored accounts and settings with a JSON state file, e.g. one kept from another install. Missing settings fall back to their defaults.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importState(cmd, args[0])
		},
	})

	return cmd
}

func importState(cmd *cobra.Command, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.store.SaveRaw(cmd.Context(), raw); err != nil {
		return err
	}
	saved, err := e.store.LoadState(cmd.Context())
	if err != nil {
		return err
	}
	return printSettings(cmd, saved.Settings)
}

func showSettings(cmd *cobra.Command) error {
	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	saved, err := e.store.LoadState(cmd.Context())
	if err != nil {
		return err
	}
	return printSettings(cmd, saved.Settings)
}

func updateSettings(cmd *cobra.Command, fn func(*model.Settings) error) error {
	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	saved, err := store.Update(cmd.Context(), e.store, func(st *store.State) error {
		return fn(&st.Settings)
	})
	if err != nil {
		return err
	}
	return printSettings(cmd, saved.Settings)
}

func printSettings(cmd *cobra.Command, s model.Settings) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
