package criteria

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pattern pairs a compiled matcher with the builder that turns its
// captures into a Spec.
type pattern struct {
	name  string
	re    *regexp.Regexp
	build func(p *Parser, m []string) (Spec, bool)
}

// Parser converts criteria strings into Specs.
type Parser struct {
	log      *slog.Logger
	now      func() time.Time
	patterns []pattern
}

// New creates a Parser with the full set of recognized phrasings.
func New(opts ...Option) *Parser {
	p := &Parser{
		log: slog.Default(),
		now: time.Now,
	}
	// Tried in order; the first match wins. Order matters for phrasings
	// whose surface forms overlap ("most played" vs "most recently
	// played"), so it is fixed here and pinned by tests.
	p.patterns = []pattern{
		{
			name: "recently_added",
			re:   regexp.MustCompile(`(\d+)\s+(?:most\s+)?recently\s+added\s+songs`),
			build: func(p *Parser, m []string) (Spec, bool) {
				n, ok := captureInt(m[1])
				if !ok {
					return Spec{}, false
				}
				return Spec{SortBy: SortAddedAt, SortOrder: SortDescending, Limit: intPtr(n)}, true
			},
		},
		{
			name: "last_played",
			re:   regexp.MustCompile(`(\d+)\s+(?:most\s+)?(?:recently\s+played|last\s+played)\s+songs`),
			build: func(p *Parser, m []string) (Spec, bool) {
				n, ok := captureInt(m[1])
				if !ok {
					return Spec{}, false
				}
				return Spec{SortBy: SortLastPlayedAt, SortOrder: SortDescending, Limit: intPtr(n)}, true
			},
		},
		{
			name: "most_played",
			re:   regexp.MustCompile(`(\d+)\s+most\s+played\s+songs`),
			build: func(p *Parser, m []string) (Spec, bool) {
				n, ok := captureInt(m[1])
				if !ok {
					return Spec{}, false
				}
				return Spec{SortBy: SortPlayCount, SortOrder: SortDescending, Limit: intPtr(n)}, true
			},
		},
		{
			name: "artist",
			re:   regexp.MustCompile(`songs\s+by\s+(.+?)(?:\s+and|\s*$)`),
			build: func(p *Parser, m []string) (Spec, bool) {
				return Spec{Artist: strings.TrimSpace(m[1])}, true
			},
		},
		{
			name: "album",
			re:   regexp.MustCompile(`songs\s+from\s+(.+?)(?:\s+and|\s*$)`),
			build: func(p *Parser, m []string) (Spec, bool) {
				return Spec{Album: strings.TrimSpace(m[1])}, true
			},
		},
		{
			name: "genre",
			re:   regexp.MustCompile(`songs\s+in\s+(.+?)(?:\s+and|\s*$)`),
			build: func(p *Parser, m []string) (Spec, bool) {
				return Spec{Genre: strings.TrimSpace(m[1])}, true
			},
		},
		{
			name: "added_days",
			re:   regexp.MustCompile(`songs\s+added\s+in\s+the\s+last\s+(\d+)\s+days`),
			build: func(p *Parser, m []string) (Spec, bool) {
				n, ok := captureInt(m[1])
				if !ok {
					return Spec{}, false
				}
				cutoff := p.now().Add(-time.Duration(n) * 24 * time.Hour)
				return Spec{AddedAfter: &cutoff, SortBy: SortAddedAt, SortOrder: SortDescending}, true
			},
		},
		{
			name: "played_days",
			re:   regexp.MustCompile(`songs\s+played\s+in\s+the\s+last\s+(\d+)\s+days`),
			build: func(p *Parser, m []string) (Spec, bool) {
				n, ok := captureInt(m[1])
				if !ok {
					return Spec{}, false
				}
				cutoff := p.now().Add(-time.Duration(n) * 24 * time.Hour)
				return Spec{PlayedAfter: &cutoff, SortBy: SortLastPlayedAt, SortOrder: SortDescending}, true
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts a criteria string into a Spec. Matching is
// case-insensitive. When the string contains " and ", each part is parsed
// independently and the successes become a compound Spec; if nothing
// parses, the zero Spec is returned and the caller decides what that
// means.
func (p *Parser) Parse(text string) Spec {
	lowered := strings.ToLower(text)

	if !strings.Contains(lowered, " and ") {
		spec, ok := p.parseClause(lowered)
		if !ok {
			p.log.Warn("unrecognized criteria", "criteria", text)
		}
		return spec
	}

	var combined []Spec
	for _, part := range strings.Split(lowered, " and ") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		spec, ok := p.parseClause(part)
		if !ok {
			p.log.Warn("dropping unrecognized clause", "clause", part)
			continue
		}
		combined = append(combined, spec)
	}

	if len(combined) == 0 {
		p.log.Warn("no clause recognized", "criteria", text)
		return Spec{}
	}
	return Spec{Combined: combined}
}

// parseClause matches a single clause against the pattern table.
func (p *Parser) parseClause(clause string) (Spec, bool) {
	for _, pat := range p.patterns {
		m := pat.re.FindStringSubmatch(clause)
		if m == nil {
			continue
		}
		spec, ok := pat.build(p, m)
		if !ok {
			// Structurally impossible for the digit captures, but a
			// bad capture must not take the whole parse down.
			p.log.Warn("bad capture", "pattern", pat.name, "clause", clause)
			continue
		}
		return spec, true
	}
	return Spec{}, false
}

// SupportedPatterns returns human-readable descriptions of every
// recognized phrasing, for help output.
func SupportedPatterns() []string {
	return []string{
		"N most recently added songs",
		"N last played songs",
		"N most played songs",
		"songs by ARTIST",
		"songs from ALBUM",
		"songs in GENRE",
		"songs added in the last N days",
		"songs played in the last N days",
	}
}

func captureInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
