package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mkplaylist/internal/sync"
)

func newSyncCommand(cctx *commandContext) *cobra.Command {
	var full bool
	var reset bool
	var days int
	var spotifyOnly bool
	var lastfmOnly bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync Spotify playlists and Last.fm history into the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			if spotifyOnly && lastfmOnly {
				return fmt.Errorf("--spotify-only and --lastfm-only are mutually exclusive")
			}

			opts := sync.Options{
				Full:        full,
				Days:        days,
				User:        cfg.LastfmUsername,
				SpotifyOnly: spotifyOnly,
				LastfmOnly:  lastfmOnly,
			}
			if opts.Days <= 0 {
				opts.Days = cfg.DefaultSyncDays
			}
			if !opts.SpotifyOnly && opts.User == "" {
				return fmt.Errorf("LASTFM_USERNAME is not set; use --spotify-only to skip history sync")
			}

			st, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer cctx.closeStore()

			if reset {
				// A wiped store makes an incremental walk meaningless.
				opts.Full = true
				if err := st.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clearing database: %w", err)
				}
				cctx.logger().Info("cleared local database before sync")
			}

			var playlists sync.PlaylistSource
			if !opts.LastfmOnly {
				client, err := cctx.spotifyClient(cmd.Context())
				if err != nil {
					return err
				}
				playlists = client
			}
			var history sync.HistorySource
			if !opts.SpotifyOnly {
				client, err := cctx.lastfmClient()
				if err != nil {
					return err
				}
				history = client
			}

			svc := sync.New(st, playlists, history, sync.WithLogger(cctx.logger()))
			stats, err := svc.SyncAll(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, stats)
			}
			printSyncStats(cmd, stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Walk tracks of every playlist, not just new ones")
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the local database first, then sync from scratch (implies --full)")
	cmd.Flags().IntVar(&days, "days", 0, "Days of listening history to sync (default from config)")
	cmd.Flags().BoolVar(&spotifyOnly, "spotify-only", false, "Sync only Spotify playlists")
	cmd.Flags().BoolVar(&lastfmOnly, "lastfm-only", false, "Sync only Last.fm listening history")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	return cmd
}

func printSyncStats(cmd *cobra.Command, stats *sync.Stats) {
	out := cmd.OutOrStdout()
	if s := stats.Spotify; s != nil {
		fmt.Fprintln(out, "Spotify sync:")
		fmt.Fprintln(out, renderTable(
			[]string{"Playlists", "New", "Updated", "Tracks"},
			[][]string{{
				strconv.Itoa(s.PlaylistsSynced),
				strconv.Itoa(s.NewPlaylists),
				strconv.Itoa(s.UpdatedPlaylists),
				strconv.Itoa(s.TracksSynced),
			}},
			[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
		))
	}
	if s := stats.Lastfm; s != nil {
		fmt.Fprintln(out, "Last.fm sync:")
		fmt.Fprintln(out, renderTable(
			[]string{"Scrobbles", "Events", "Matched", "Unmatched", "New tracks"},
			[][]string{{
				strconv.Itoa(s.TracksProcessed),
				strconv.Itoa(s.EventsRecorded),
				strconv.Itoa(s.TracksMatched),
				strconv.Itoa(s.TracksUnmatched),
				strconv.Itoa(s.NewTracks),
			}},
			[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
		))
	}
}
