package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
)

const maxTracksPerRequest = 100

// Playlist is a playlist as the platform reports it.
type Playlist struct {
	ID         string
	Name       string
	Owner      string
	IsPublic   bool
	TrackTotal int
	URL        string
}

// PlaylistTrack is one track inside a playlist listing, with the moment
// it was added to that playlist.
type PlaylistTrack struct {
	ID         string
	Name       string
	Artist     string
	Album      string
	DurationMs int
	Popularity int
	AddedAt    time.Time
}

// ListPlaylists returns every playlist of the current user, fully
// materialized across pages.
func (c *Client) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(50))
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}

	var playlists []Playlist
	for {
		for _, p := range page.Playlists {
			playlists = append(playlists, Playlist{
				ID:         p.ID.String(),
				Name:       p.Name,
				Owner:      p.Owner.ID,
				IsPublic:   p.IsPublic,
				TrackTotal: int(p.Tracks.Total),
				URL:        p.ExternalURLs["spotify"],
			})
		}
		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing playlists next page: %w", err)
		}
	}
	return playlists, nil
}

// PlaylistTracks returns every track in a playlist, fully materialized.
// Local files and episodes, which have no track object, are skipped.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrack, error) {
	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(50))
	if err != nil {
		return nil, fmt.Errorf("listing playlist %s tracks: %w", playlistID, err)
	}

	var tracks []PlaylistTrack
	for {
		for _, item := range page.Items {
			ft := item.Track.Track
			if ft == nil || ft.ID == "" {
				continue
			}
			// Zero value on parse failure, matching the platform's
			// occasional missing added_at for very old playlists.
			addedAt, _ := time.Parse(time.RFC3339, item.AddedAt)
			tracks = append(tracks, PlaylistTrack{
				ID:         ft.ID.String(),
				Name:       ft.Name,
				Artist:     joinArtists(ft.Artists),
				Album:      ft.Album.Name,
				DurationMs: int(ft.Duration),
				Popularity: int(ft.Popularity),
				AddedAt:    addedAt,
			})
		}
		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing playlist %s next page: %w", playlistID, err)
		}
	}
	return tracks, nil
}

// CreatePlaylist creates a new playlist for the current user.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (*Playlist, error) {
	userID, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}

	playlist, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	return &Playlist{
		ID:       playlist.ID.String(),
		Name:     playlist.Name,
		Owner:    playlist.Owner.ID,
		IsPublic: playlist.IsPublic,
		URL:      playlist.ExternalURLs["spotify"],
	}, nil
}

// AddTracks adds tracks to a playlist in batches of 100, the API maximum
// per request.
func (c *Client) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	return eachChunk(toIDs(trackIDs), maxTracksPerRequest, func(start int, batch []spotify.ID) error {
		_, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
		if err != nil {
			return fmt.Errorf("adding tracks (batch %d-%d): %w", start+1, start+len(batch), err)
		}
		return nil
	})
}

// ReplaceTracks replaces the playlist's entire contents: the first batch
// goes through a replace call, any remainder is appended.
func (c *Client) ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	ids := toIDs(trackIDs)

	first := ids
	if len(first) > maxTracksPerRequest {
		first = ids[:maxTracksPerRequest]
	}
	if err := c.api.ReplacePlaylistTracks(ctx, spotify.ID(playlistID), first...); err != nil {
		return fmt.Errorf("replacing tracks: %w", err)
	}

	rest := ids[len(first):]
	return eachChunk(rest, maxTracksPerRequest, func(start int, batch []spotify.ID) error {
		_, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
		if err != nil {
			return fmt.Errorf("adding remaining tracks (batch %d-%d): %w", start+1, start+len(batch), err)
		}
		return nil
	})
}

// eachChunk invokes fn for each size-bounded slice of ids in order.
func eachChunk(ids []spotify.ID, size int, fn func(start int, batch []spotify.ID) error) error {
	for i := 0; i < len(ids); i += size {
		end := min(i+size, len(ids))
		if err := fn(i, ids[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func toIDs(trackIDs []string) []spotify.ID {
	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}
	return ids
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
