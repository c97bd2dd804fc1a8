package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var dbFlag string
	var logFlag string

	ctx := newCommandContext(&dbFlag, &logFlag)

	rootCmd := &cobra.Command{
		Use:   "mkplaylist",
		Short: "Create Spotify playlists from natural-language criteria",
		Long: `mkplaylist syncs your Spotify playlists and Last.fm listening history
into a local database, then builds playlists from criteria like
"10 most recently added songs" or "songs by radiohead and 5 most played songs".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Path to the local database (overrides MKPLAYLIST_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&logFlag, "log-level", "", "Log level: DEBUG, INFO, WARNING or ERROR")

	rootCmd.AddCommand(newSyncCommand(ctx))
	rootCmd.AddCommand(newCreateCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newLogoutCommand(ctx))

	return rootCmd
}
