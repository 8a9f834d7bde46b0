// Package reconcile diffs locally collected mappings and ratings against
// what the target store already holds, so repeated runs never re-submit
// data that is already present.
package reconcile

import (
	"strings"

	"pmdbsync/pkg/media"
	"pmdbsync/pkg/ratings"
)

// Identifier mapping types submitted to the target store.
const (
	TypeIMDB = "imdb"
	TypeTVDB = "tvdb"
)

// Mapping is one cross-service identifier mapping candidate.
type Mapping struct {
	IDType string
	Value  string
}

// Snapshot is the read-only view of what the target store already knows
// about one title. RatingLabels are stored upper-cased; the zero value is
// a valid empty snapshot ("not found" reads).
type Snapshot struct {
	Mappings     map[string][]string
	RatingLabels map[string]struct{}
}

// HasMapping reports whether the store already holds this exact mapping.
// Identifier values compare case-sensitively.
func (s Snapshot) HasMapping(idType, value string) bool {
	for _, v := range s.Mappings[idType] {
		if v == value {
			return true
		}
	}
	return false
}

// HasRatingLabel reports whether a rating under this label already exists.
// Labels compare case-insensitively.
func (s Snapshot) HasRatingLabel(label string) bool {
	_, ok := s.RatingLabels[strings.ToUpper(label)]
	return ok
}

// Plan is the computed submission set for one title. NewRatings and
// SkippedRatings partition the collected ratings; the same holds for
// mappings. Input order is preserved.
type Plan struct {
	NewMappings     []Mapping
	SkippedMappings []Mapping
	NewRatings      []ratings.Rating
	SkippedRatings  []ratings.Rating
}

// CandidateMappings lists the identifier mappings worth submitting: the
// IMDb mapping whenever a primary external ref was found, and the TVDB
// mapping only for series with a resolved series identifier.
func CandidateMappings(imdbID string, kind media.Kind, tvdbID string) []Mapping {
	var out []Mapping
	if imdbID != "" {
		out = append(out, Mapping{IDType: TypeIMDB, Value: imdbID})
	}
	if kind == media.Series && tvdbID != "" {
		out = append(out, Mapping{IDType: TypeTVDB, Value: tvdbID})
	}
	return out
}

// BuildPlan splits the candidates into new and already-present sets.
func BuildPlan(mappings []Mapping, rs []ratings.Rating, snap Snapshot) Plan {
	var p Plan
	for _, m := range mappings {
		if snap.HasMapping(m.IDType, m.Value) {
			p.SkippedMappings = append(p.SkippedMappings, m)
		} else {
			p.NewMappings = append(p.NewMappings, m)
		}
	}
	for _, r := range rs {
		if snap.HasRatingLabel(r.Label) {
			p.SkippedRatings = append(p.SkippedRatings, r)
		} else {
			p.NewRatings = append(p.NewRatings, r)
		}
	}
	return p
}
