package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mkplaylist/internal/playlist"
)

func newListCommand(cctx *commandContext) *cobra.Command {
	var sortByName bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your Spotify playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer cctx.closeStore()

			client, err := cctx.spotifyClient(cmd.Context())
			if err != nil {
				return err
			}

			svc := playlist.New(st, client, playlist.WithLogger(cctx.logger()))
			infos, err := svc.List(cmd.Context(), sortByName)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No playlists found.")
				return nil
			}

			rows := make([][]string, len(infos))
			for i, info := range infos {
				visibility := "private"
				if info.Public {
					visibility = "public"
				}
				rows[i] = []string{info.Name, info.Owner, visibility, strconv.Itoa(info.Tracks)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Owner", "Visibility", "Tracks"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&sortByName, "sort", false, "Sort playlists by name")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit playlists as JSON")
	return cmd
}
