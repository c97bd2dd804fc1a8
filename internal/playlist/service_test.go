package playlist

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mkplaylist/internal/criteria"
	"mkplaylist/internal/spotify"
	"mkplaylist/internal/store"
)

// fakeAPI records every playlist call so tests can assert both what was
// sent and that nothing was sent at all.
type fakeAPI struct {
	playlists []spotify.Playlist

	listCalls    int
	created      []string
	addedIDs     map[string][]string
	replacedIDs  map[string][]string
	failCreate   error
	failList     error
	nextPlaylist int
}

func newFakeAPI(existing ...spotify.Playlist) *fakeAPI {
	return &fakeAPI{
		playlists:   existing,
		addedIDs:    map[string][]string{},
		replacedIDs: map[string][]string{},
	}
}

func (f *fakeAPI) ListPlaylists(ctx context.Context) ([]spotify.Playlist, error) {
	f.listCalls++
	if f.failList != nil {
		return nil, f.failList
	}
	return f.playlists, nil
}

func (f *fakeAPI) CreatePlaylist(ctx context.Context, name, description string, public bool) (*spotify.Playlist, error) {
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	f.nextPlaylist++
	p := spotify.Playlist{ID: fmt.Sprintf("new-%d", f.nextPlaylist), Name: name, IsPublic: public}
	f.created = append(f.created, name)
	f.playlists = append(f.playlists, p)
	return &p, nil
}

func (f *fakeAPI) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	f.addedIDs[playlistID] = append(f.addedIDs[playlistID], trackIDs...)
	return nil
}

func (f *fakeAPI) ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	f.replacedIDs[playlistID] = trackIDs
	return nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedTrack(t *testing.T, st *store.Store, spotifyID, name, artist string, addedAt time.Time, plays int) *store.Track {
	t.Helper()
	ctx := context.Background()

	track := &store.Track{Name: name, Artist: artist, AddedAt: addedAt}
	if spotifyID != "" {
		track.SpotifyID = &spotifyID
	}
	if _, err := st.Tracks().Upsert(ctx, track); err != nil {
		t.Fatalf("Upsert(%s) error = %v", name, err)
	}
	for i := 0; i < plays; i++ {
		playedAt := addedAt.Add(time.Duration(i+1) * time.Hour)
		if _, err := st.History().Record(ctx, track.ID, playedAt, store.DefaultHistorySource); err != nil {
			t.Fatalf("Record(%s) error = %v", name, err)
		}
	}
	return track
}

func TestCreate_UnparsedCriteria(t *testing.T) {
	st := openTestStore(t)
	api := newFakeAPI()
	svc := New(st, api)

	result, err := svc.Create(context.Background(), "My Mix", "play me something good", CreateOptions{})
	if !errors.Is(err, ErrUnparsed) {
		t.Fatalf("Create() error = %v, want ErrUnparsed", err)
	}
	if result == nil || result.Success {
		t.Errorf("Create() result = %+v, want unsuccessful result", result)
	}
	if api.listCalls != 0 || len(api.created) != 0 {
		t.Errorf("Create() touched the platform on a parse failure: %d list calls, %d creates", api.listCalls, len(api.created))
	}
}

func TestCreate_NoTracks(t *testing.T) {
	st := openTestStore(t)
	api := newFakeAPI()
	svc := New(st, api)

	result, err := svc.Create(context.Background(), "My Mix", "songs by radiohead", CreateOptions{})
	if !errors.Is(err, ErrNoTracks) {
		t.Fatalf("Create() error = %v, want ErrNoTracks", err)
	}
	if result == nil || result.Success {
		t.Errorf("Create() result = %+v, want unsuccessful result", result)
	}
	if api.listCalls != 0 {
		t.Errorf("Create() listed playlists despite empty result; no platform call expected")
	}
}

func TestCreate_NewPlaylist(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTrack(t, st, "s1", "Airbag", "radiohead", base, 0)
	seedTrack(t, st, "s2", "Lucky", "radiohead", base.AddDate(0, 0, 1), 0)

	api := newFakeAPI()
	svc := New(st, api)

	result, err := svc.Create(context.Background(), "Radiohead", "songs by radiohead", CreateOptions{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !result.Success || !result.Created {
		t.Errorf("result = %+v, want created success", result)
	}
	if result.TracksFound != 2 || result.TracksAdded != 2 {
		t.Errorf("TracksFound/TracksAdded = %d/%d, want 2/2", result.TracksFound, result.TracksAdded)
	}
	if len(api.created) != 1 || api.created[0] != "Radiohead" {
		t.Errorf("created playlists = %v, want [Radiohead]", api.created)
	}
	added := api.addedIDs[result.PlaylistID]
	if len(added) != 2 || added[0] != "s1" || added[1] != "s2" {
		t.Errorf("added IDs = %v, want [s1 s2]", added)
	}
}

func TestCreate_ExistingPlaylistAppendsOrReplaces(t *testing.T) {
	tests := []struct {
		name    string
		replace bool
	}{
		{name: "append", replace: false},
		{name: "replace", replace: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := openTestStore(t)
			seedTrack(t, st, "s1", "Airbag", "radiohead", time.Now().UTC(), 0)

			api := newFakeAPI(spotify.Playlist{ID: "existing", Name: "Radiohead"})
			svc := New(st, api)

			result, err := svc.Create(context.Background(), "Radiohead", "songs by radiohead", CreateOptions{Replace: tt.replace})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if result.Created {
				t.Error("result.Created = true, want reuse of existing playlist")
			}
			if result.PlaylistID != "existing" {
				t.Errorf("PlaylistID = %q, want %q", result.PlaylistID, "existing")
			}
			if tt.replace {
				if got := api.replacedIDs["existing"]; len(got) != 1 {
					t.Errorf("replaced IDs = %v, want one track", got)
				}
				if len(api.addedIDs["existing"]) != 0 {
					t.Errorf("added IDs = %v, want none on replace", api.addedIDs["existing"])
				}
			} else {
				if got := api.addedIDs["existing"]; len(got) != 1 {
					t.Errorf("added IDs = %v, want one track", got)
				}
			}
		})
	}
}

func TestCreate_SkipsTracksWithoutSpotifyID(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTrack(t, st, "s1", "Airbag", "radiohead", base, 0)
	seedTrack(t, st, "", "Bootleg Cut", "radiohead", base, 0)

	api := newFakeAPI()
	svc := New(st, api)

	result, err := svc.Create(context.Background(), "Radiohead", "songs by radiohead", CreateOptions{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if result.TracksFound != 2 {
		t.Errorf("TracksFound = %d, want 2", result.TracksFound)
	}
	if result.TracksAdded != 1 {
		t.Errorf("TracksAdded = %d, want 1 (local-only track excluded)", result.TracksAdded)
	}
}

func TestCreate_LimitOverride(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedTrack(t, st, fmt.Sprintf("s%d", i), fmt.Sprintf("Track %d", i), "radiohead", base.AddDate(0, 0, i), 0)
	}

	api := newFakeAPI()
	svc := New(st, api)

	limit := 2
	result, err := svc.Create(context.Background(), "Short", "songs by radiohead", CreateOptions{Limit: &limit})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if result.TracksFound != 2 {
		t.Errorf("TracksFound = %d, want limit applied", result.TracksFound)
	}
}

func TestEvaluate_CompoundMergeAndDedup(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// "a" is both the most recently added and the most played; it must
	// appear once, in the position of its first clause.
	seedTrack(t, st, "a", "Alpha", "radiohead", base.AddDate(0, 0, 3), 5)
	seedTrack(t, st, "b", "Beta", "radiohead", base.AddDate(0, 0, 2), 0)
	seedTrack(t, st, "c", "Gamma", "portishead", base.AddDate(0, 0, 1), 3)

	svc := New(st, newFakeAPI())

	spec := criteria.Spec{Combined: []criteria.Spec{
		{SortBy: criteria.SortAddedAt, SortOrder: criteria.SortDescending, Limit: intPtr(2)},
		{SortBy: criteria.SortPlayCount, SortOrder: criteria.SortDescending, Limit: intPtr(2)},
	}}

	tracks, err := svc.Evaluate(ctx, spec)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	wantNames := []string{"Alpha", "Beta", "Gamma"}
	if len(tracks) != len(wantNames) {
		t.Fatalf("Evaluate() returned %d tracks, want %d", len(tracks), len(wantNames))
	}
	for i, want := range wantNames {
		if tracks[i].Name != want {
			t.Errorf("tracks[%d].Name = %q, want %q", i, tracks[i].Name, want)
		}
	}
}

func TestEvaluate_CompoundTopLevelLimit(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTrack(t, st, "a", "Alpha", "radiohead", base.AddDate(0, 0, 3), 5)
	seedTrack(t, st, "b", "Beta", "radiohead", base.AddDate(0, 0, 2), 0)
	seedTrack(t, st, "c", "Gamma", "portishead", base.AddDate(0, 0, 1), 3)

	svc := New(st, newFakeAPI())

	spec := criteria.Spec{
		Combined: []criteria.Spec{
			{SortBy: criteria.SortAddedAt, SortOrder: criteria.SortDescending, Limit: intPtr(2)},
			{SortBy: criteria.SortPlayCount, SortOrder: criteria.SortDescending, Limit: intPtr(2)},
		},
		Limit: intPtr(2),
	}

	tracks, err := svc.Evaluate(ctx, spec)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Errorf("Evaluate() returned %d tracks, want 2 (top-level limit)", len(tracks))
	}
}

func TestEvaluate_ZeroSpecReturnsEverything(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTrack(t, st, "a", "Alpha", "radiohead", base, 0)
	seedTrack(t, st, "b", "Beta", "radiohead", base, 0)

	svc := New(st, newFakeAPI())

	tracks, err := svc.Evaluate(ctx, criteria.Spec{})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Errorf("Evaluate() returned %d tracks, want the whole store", len(tracks))
	}
}

func TestList(t *testing.T) {
	st := openTestStore(t)
	api := newFakeAPI(
		spotify.Playlist{ID: "p2", Name: "Zebra", Owner: "me", TrackTotal: 3},
		spotify.Playlist{ID: "p1", Name: "Apple", Owner: "me", IsPublic: true, TrackTotal: 7},
	)
	svc := New(st, api)

	infos, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "Zebra" {
		t.Errorf("List() = %v, want platform order preserved", infos)
	}

	sorted, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List() sorted error = %v", err)
	}
	if sorted[0].Name != "Apple" || sorted[1].Name != "Zebra" {
		t.Errorf("List(sorted) = %v, want alphabetical", sorted)
	}
}

func TestCreate_PlatformFailure(t *testing.T) {
	st := openTestStore(t)
	seedTrack(t, st, "s1", "Airbag", "radiohead", time.Now().UTC(), 0)

	t.Run("list fails", func(t *testing.T) {
		api := newFakeAPI()
		api.failList = errors.New("boom")
		svc := New(st, api)

		result, err := svc.Create(context.Background(), "Radiohead", "songs by radiohead", CreateOptions{})
		if err == nil {
			t.Fatal("Create() error = nil, want propagated failure")
		}
		if errors.Is(err, ErrUnparsed) || errors.Is(err, ErrNoTracks) {
			t.Errorf("Create() error = %v, want a distinct platform error", err)
		}
		if result != nil {
			t.Errorf("Create() result = %+v, want nil on platform failure", result)
		}
	})

	t.Run("create fails", func(t *testing.T) {
		api := newFakeAPI()
		api.failCreate = errors.New("boom")
		svc := New(st, api)

		if _, err := svc.Create(context.Background(), "Radiohead", "songs by radiohead", CreateOptions{}); err == nil {
			t.Fatal("Create() error = nil, want propagated failure")
		}
	})
}

func intPtr(n int) *int { return &n }
