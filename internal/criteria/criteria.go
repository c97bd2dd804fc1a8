// Package criteria parses natural-language-like track selection criteria
// into structured specifications.
//
// A criteria string is one clause, or several clauses joined by " and ":
//
//	"10 most recently added songs and 5 last played songs"
//
// Each clause is matched against a fixed, ordered table of recognized
// phrasings. Clauses that match nothing are dropped with a warning; they
// never fail the parse as a whole.
package criteria

import (
	"log/slog"
	"time"
)

// SortKey identifies a track attribute results can be ordered by.
type SortKey string

const (
	SortAddedAt      SortKey = "added_at"
	SortLastPlayedAt SortKey = "last_played_at"
	SortPlayCount    SortKey = "play_count"
)

// SortDescending is the only supported sort order.
const SortDescending = "desc"

// Spec is a structured track selection specification.
//
// A simple Spec carries some combination of filters, a sort and a limit.
// A compound Spec instead carries Combined sub-specifications evaluated
// independently and merged; its Limit then caps the merged result.
type Spec struct {
	Artist string
	Album  string
	// Genre is accepted by the grammar but the store has no genre
	// attribute yet; evaluators treat it as inert.
	Genre string

	AddedAfter  *time.Time
	PlayedAfter *time.Time

	SortBy    SortKey
	SortOrder string
	Limit     *int

	Combined []Spec
}

// IsZero reports whether the spec carries no criteria at all. Evaluating
// a zero spec returns the entire store, so callers that mean "match
// nothing" must check this first.
func (s Spec) IsZero() bool {
	return s.Artist == "" && s.Album == "" && s.Genre == "" &&
		s.AddedAfter == nil && s.PlayedAfter == nil &&
		s.SortBy == "" && s.Limit == nil && len(s.Combined) == 0
}

// IsCompound reports whether the spec is a merge of sub-specifications.
func (s Spec) IsCompound() bool {
	return len(s.Combined) > 0
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for unparsed-clause warnings.
func WithLogger(log *slog.Logger) Option {
	return func(p *Parser) { p.log = log }
}

// WithClock overrides the time source used by relative-date patterns.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

func intPtr(n int) *int { return &n }
