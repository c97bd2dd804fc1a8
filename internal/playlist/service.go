// Package playlist evaluates criteria specifications against the local
// store and synthesizes the results into Spotify playlists.
package playlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"mkplaylist/internal/criteria"
	"mkplaylist/internal/spotify"
	"mkplaylist/internal/store"
)

// Failure modes callers must tell apart: a criteria string nobody
// understood is not the same as criteria that matched nothing, and
// neither is a platform failure.
var (
	// ErrUnparsed is returned when no clause of the criteria string was
	// recognized.
	ErrUnparsed = errors.New("could not understand criteria")

	// ErrNoTracks is returned when the criteria evaluated to zero
	// tracks; no external call is made in that case.
	ErrNoTracks = errors.New("no tracks found matching criteria")
)

// API is the external playlist surface the synthesizer drives.
type API interface {
	ListPlaylists(ctx context.Context) ([]spotify.Playlist, error)
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*spotify.Playlist, error)
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error
	ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) error
}

// Service turns criteria strings into playlists.
type Service struct {
	store  *store.Store
	api    API
	parser *criteria.Parser
	log    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithParser overrides the criteria parser, for tests that pin the
// clock.
func WithParser(p *criteria.Parser) Option {
	return func(s *Service) { s.parser = p }
}

// New creates a playlist service.
func New(st *store.Store, api API, opts ...Option) *Service {
	s := &Service{
		store:  st,
		api:    api,
		parser: criteria.New(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate runs a specification against the store and returns the
// matching tracks in order, deduplicated.
//
// A compound spec evaluates each clause independently (clause limits
// apply within the clause), concatenates results in clause order, keeps
// the first occurrence of each track, and caps the merged list only when
// a top-level limit is present. A zero spec returns the entire store;
// callers meaning "match nothing" must check Spec.IsZero first.
func (s *Service) Evaluate(ctx context.Context, spec criteria.Spec) ([]store.Track, error) {
	if spec.IsZero() {
		return s.store.Tracks().All(ctx)
	}

	if !spec.IsCompound() {
		s.warnInertGenre(spec)
		return s.store.Tracks().Query(ctx, spec)
	}

	var merged []store.Track
	seen := make(map[int64]bool)
	for _, sub := range spec.Combined {
		s.warnInertGenre(sub)
		tracks, err := s.store.Tracks().Query(ctx, sub)
		if err != nil {
			return nil, err
		}
		for _, t := range tracks {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			merged = append(merged, t)
		}
	}

	if spec.Limit != nil && len(merged) > *spec.Limit {
		merged = merged[:*spec.Limit]
	}
	return merged, nil
}

// warnInertGenre flags genre filters, which parse but cannot filter:
// the store has no genre attribute yet.
func (s *Service) warnInertGenre(spec criteria.Spec) {
	if spec.Genre != "" {
		s.log.Warn("genre criteria accepted but not supported by the local store; ignoring", "genre", spec.Genre)
	}
}

// CreateOptions control playlist synthesis.
type CreateOptions struct {
	Description string
	Public      bool
	Replace     bool
	// Limit caps the final track list. For compound criteria this is
	// the only cap applied after the merge.
	Limit *int
}

// Result summarizes a synthesis operation.
type Result struct {
	Success     bool   `json:"success"`
	Name        string `json:"name"`
	Criteria    string `json:"criteria"`
	PlaylistID  string `json:"playlist_id,omitempty"`
	TracksFound int    `json:"tracks_found"`
	TracksAdded int    `json:"tracks_added"`
	Created     bool   `json:"created"`
	Replaced    bool   `json:"replaced"`
	Reason      string `json:"reason,omitempty"`
}

// Create builds or updates the named playlist from a criteria string.
//
// Parse and no-match failures return a Result alongside ErrUnparsed or
// ErrNoTracks; no Spotify call is made for either. Platform failures
// propagate as errors without a Result.
func (s *Service) Create(ctx context.Context, name, criteriaText string, opts CreateOptions) (*Result, error) {
	s.log.Info("creating playlist", "name", name, "criteria", criteriaText)

	spec := s.parser.Parse(criteriaText)
	if spec.IsZero() {
		result := &Result{Name: name, Criteria: criteriaText, Reason: ErrUnparsed.Error()}
		return result, fmt.Errorf("%w: %q", ErrUnparsed, criteriaText)
	}
	if opts.Limit != nil {
		spec.Limit = opts.Limit
	}

	tracks, err := s.Evaluate(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("evaluating criteria: %w", err)
	}
	s.log.Info("criteria evaluated", "tracks", len(tracks))

	if len(tracks) == 0 {
		result := &Result{Name: name, Criteria: criteriaText, Reason: ErrNoTracks.Error()}
		return result, fmt.Errorf("%w: %q", ErrNoTracks, criteriaText)
	}

	// Tracks without an external identity stay local; they cannot be
	// synthesized until a future sync resolves them.
	trackIDs := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.SpotifyID != nil && *t.SpotifyID != "" {
			trackIDs = append(trackIDs, *t.SpotifyID)
		}
	}

	existing, err := s.findByName(ctx, name)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Success:     true,
		Name:        name,
		Criteria:    criteriaText,
		TracksFound: len(tracks),
		TracksAdded: len(trackIDs),
		Replaced:    opts.Replace,
	}

	if existing != nil {
		result.PlaylistID = existing.ID
		s.log.Info("updating existing playlist", "name", name, "id", existing.ID)
		if opts.Replace {
			err = s.api.ReplaceTracks(ctx, existing.ID, trackIDs)
		} else {
			err = s.api.AddTracks(ctx, existing.ID, trackIDs)
		}
		if err != nil {
			return nil, fmt.Errorf("updating playlist %q: %w", name, err)
		}
		return result, nil
	}

	description := opts.Description
	if description == "" {
		description = fmt.Sprintf("Created by mkplaylist with criteria: %s", criteriaText)
	}
	created, err := s.api.CreatePlaylist(ctx, name, description, opts.Public)
	if err != nil {
		return nil, fmt.Errorf("creating playlist %q: %w", name, err)
	}
	if err := s.api.AddTracks(ctx, created.ID, trackIDs); err != nil {
		return nil, fmt.Errorf("adding tracks to %q: %w", name, err)
	}

	result.PlaylistID = created.ID
	result.Created = true
	result.Replaced = false
	return result, nil
}

// findByName returns the first listed playlist with exactly the given
// name, or nil if none match.
func (s *Service) findByName(ctx context.Context, name string) (*spotify.Playlist, error) {
	playlists, err := s.api.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}
	for i := range playlists {
		if playlists[i].Name == name {
			return &playlists[i], nil
		}
	}
	return nil, nil
}

// Info is one row of a playlist listing.
type Info struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Owner  string `json:"owner"`
	Public bool   `json:"public"`
	Tracks int    `json:"tracks"`
	URL    string `json:"url,omitempty"`
}

// List returns the user's playlists, optionally sorted by name. The
// platform's listing order is preserved otherwise.
func (s *Service) List(ctx context.Context, sortByName bool) ([]Info, error) {
	playlists, err := s.api.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}

	infos := make([]Info, len(playlists))
	for i, p := range playlists {
		infos[i] = Info{
			ID:     p.ID,
			Name:   p.Name,
			Owner:  p.Owner,
			Public: p.IsPublic,
			Tracks: p.TrackTotal,
			URL:    p.URL,
		}
	}
	if sortByName {
		sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	}
	return infos, nil
}
