package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mkplaylist/internal/criteria"
	"mkplaylist/internal/playlist"
)

func newCreateCommand(cctx *commandContext) *cobra.Command {
	var description string
	var public bool
	var replace bool
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "create <name> <criteria>",
		Short: "Create or update a Spotify playlist from criteria",
		Long: `Create evaluates a criteria string against the synced database and
builds a Spotify playlist named <name> from the result. If a playlist
with that name already exists its tracks are appended to, or replaced
when --replace is given.

Criteria clauses can be combined with "and":

  mkplaylist create "Recent Favorites" "10 most recently added songs and 5 most played songs"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			criteriaText := strings.Join(args[1:], " ")

			st, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer cctx.closeStore()

			client, err := cctx.spotifyClient(cmd.Context())
			if err != nil {
				return err
			}

			opts := playlist.CreateOptions{
				Description: description,
				Public:      public,
				Replace:     replace,
			}
			if cmd.Flags().Changed("limit") {
				opts.Limit = &limit
			}

			svc := playlist.New(st, client, playlist.WithLogger(cctx.logger()))
			result, err := svc.Create(cmd.Context(), name, criteriaText, opts)
			switch {
			case errors.Is(err, playlist.ErrUnparsed):
				if jsonOut {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Could not understand criteria: %q\n\nSupported patterns:\n", criteriaText)
				for _, p := range criteria.SupportedPatterns() {
					fmt.Fprintf(out, "  - %s\n", p)
				}
				return fmt.Errorf("nothing created")
			case errors.Is(err, playlist.ErrNoTracks):
				if jsonOut {
					return writeJSON(cmd, result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "No tracks in the database match %q. Run `mkplaylist sync` first?\n", criteriaText)
				return fmt.Errorf("nothing created")
			case err != nil:
				return err
			}

			if jsonOut {
				return writeJSON(cmd, result)
			}
			verb := "Updated"
			if result.Created {
				verb = "Created"
			} else if result.Replaced {
				verb = "Replaced"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s playlist %q with %d tracks (%d matched)\n",
				verb, result.Name, result.TracksAdded, result.TracksFound)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Playlist description")
	cmd.Flags().BoolVar(&public, "public", false, "Make the playlist public")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace existing tracks instead of appending")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Cap the number of tracks")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	return cmd
}
