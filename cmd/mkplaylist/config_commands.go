package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"mkplaylist/internal/auth"
)

func newConfigCommand(cctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigStatusCommand(cctx))
	configCmd.AddCommand(newConfigValidateCommand(cctx))

	return configCmd
}

// Display order for status rows. The Status map alone would render in a
// different order every run.
var statusKeys = []string{
	"spotify_client_id",
	"spotify_client_secret",
	"spotify_redirect_uri",
	"lastfm_api_key",
	"lastfm_api_secret",
	"lastfm_username",
}

// statusEnvVars maps status keys to the variables that set them.
var statusEnvVars = map[string]string{
	"spotify_client_id":     "SPOTIFY_CLIENT_ID",
	"spotify_client_secret": "SPOTIFY_CLIENT_SECRET",
	"spotify_redirect_uri":  "SPOTIFY_REDIRECT_URI",
	"lastfm_api_key":        "LASTFM_API_KEY",
	"lastfm_api_secret":     "LASTFM_API_SECRET",
	"lastfm_username":       "LASTFM_USERNAME",
}

func newConfigStatusCommand(cctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which services are configured and where values came from",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			status := cfg.Status()
			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"status":            status,
					"sources":           cfg.Sources(),
					"db_path":           cfg.DBPath,
					"default_sync_days": cfg.DefaultSyncDays,
				})
			}

			sources := cfg.Sources()
			rows := make([][]string, 0, len(statusKeys))
			for _, key := range statusKeys {
				state := "missing"
				if status[key] {
					state = "ok"
				}
				rows = append(rows, []string{
					statusEnvVars[key],
					state,
					string(sources[statusEnvVars[key]]),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Setting", "Status", "Source"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "Database: %s\n", cfg.DBPath)
			fmt.Fprintf(out, "Default sync window: %d days\n", cfg.DefaultSyncDays)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit status as JSON")
	return cmd
}

func newConfigValidateCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and report every problem",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			issues := cfg.Validate()
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "Configuration is valid.")
				return nil
			}

			keys := make([]string, 0, len(issues))
			for k := range issues {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  - %s\n", issues[k])
			}
			return fmt.Errorf("%d configuration issue(s) found", len(issues))
		},
	}
}

func newLogoutCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached Spotify token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := cfg.TokenCachePath()
			if err != nil {
				return err
			}
			if err := auth.NewTokenCache(path).Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
