package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fd1az/arbitrage-dashboard/internal/config"
	"github.com/fd1az/arbitrage-dashboard/internal/prefs"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "arbdash %s (commit: %s, built: %s)\n", version, commit, buildDate)
	},
}

var themeCmd = &cobra.Command{
	Use:   "theme [name]",
	Short: "Print the saved theme, or save a new one",
	Long: fmt.Sprintf("Print the saved theme, or save a new one.\nThemes: %s",
		strings.Join(prefs.Themes, ", ")),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Only the preferences path is needed; an invalid config falls back
		// to the default location.
		cfg := &config.Config{}
		if loaded, err := config.Load(configPath); err == nil {
			cfg = loaded
		}

		pc, err := openPreferences(cfg)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			if err := pc.SetTheme(args[0]); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), pc.Theme())
		return nil
	},
}
