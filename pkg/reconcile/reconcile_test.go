package reconcile

import (
	"reflect"
	"strings"
	"testing"

	"pmdbsync/pkg/media"
	"pmdbsync/pkg/ratings"
)

func TestCandidateMappings(t *testing.T) {
	tests := []struct {
		name     string
		imdbID   string
		kind     media.Kind
		tvdbID   string
		expected []Mapping
	}{
		{
			name:     "movie with imdb id",
			imdbID:   "tt0133093",
			kind:     media.Movie,
			expected: []Mapping{{IDType: "imdb", Value: "tt0133093"}},
		},
		{
			name:   "series with resolved tvdb id",
			imdbID: "tt0903747",
			kind:   media.Series,
			tvdbID: "81189",
			expected: []Mapping{
				{IDType: "imdb", Value: "tt0903747"},
				{IDType: "tvdb", Value: "81189"},
			},
		},
		{
			name:     "series without resolved tvdb id",
			imdbID:   "tt0903747",
			kind:     media.Series,
			expected: []Mapping{{IDType: "imdb", Value: "tt0903747"}},
		},
		{
			name:   "movie never gets a tvdb mapping",
			imdbID: "tt0133093",
			kind:   media.Movie,
			tvdbID: "81189",
			expected: []Mapping{
				{IDType: "imdb", Value: "tt0133093"},
			},
		},
		{
			name:     "no primary ref, no candidates",
			kind:     media.Movie,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CandidateMappings(tt.imdbID, tt.kind, tt.tvdbID)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("unexpected candidates.\nwant: %#v\ngot:  %#v", tt.expected, got)
			}
		})
	}
}

func TestBuildPlanEmptySnapshot(t *testing.T) {
	mappings := []Mapping{{IDType: "imdb", Value: "tt0133093"}}
	rs := []ratings.Rating{
		{Label: "IM", Score: 74.0},
		{Label: "RT", Score: 91.0},
	}

	plan := BuildPlan(mappings, rs, Snapshot{})

	if !reflect.DeepEqual(plan.NewMappings, mappings) {
		t.Fatalf("want all mappings new, got %#v", plan.NewMappings)
	}
	if len(plan.SkippedMappings) != 0 {
		t.Fatalf("want no skipped mappings, got %#v", plan.SkippedMappings)
	}
	if !reflect.DeepEqual(plan.NewRatings, rs) {
		t.Fatalf("want all ratings new, got %#v", plan.NewRatings)
	}
	if len(plan.SkippedRatings) != 0 {
		t.Fatalf("want no skipped ratings, got %#v", plan.SkippedRatings)
	}
}

func TestBuildPlanSkipsExistingLabelCaseInsensitively(t *testing.T) {
	rs := []ratings.Rating{
		{Label: "IM", Score: 74.0},
		{Label: "RT", Score: 91.0},
	}
	snap := Snapshot{
		RatingLabels: map[string]struct{}{"IM": {}},
	}

	plan := BuildPlan(nil, rs, snap)

	if !reflect.DeepEqual(plan.NewRatings, []ratings.Rating{{Label: "RT", Score: 91.0}}) {
		t.Fatalf("unexpected new ratings: %#v", plan.NewRatings)
	}
	if !reflect.DeepEqual(plan.SkippedRatings, []ratings.Rating{{Label: "IM", Score: 74.0}}) {
		t.Fatalf("unexpected skipped ratings: %#v", plan.SkippedRatings)
	}

	// Lower-case local labels still match upper-cased stored labels, and
	// keep their original case in the output.
	lower := []ratings.Rating{{Label: "im", Score: 74.0}}
	plan = BuildPlan(nil, lower, snap)
	if len(plan.NewRatings) != 0 {
		t.Fatalf("lower-case label should match existing IM, got new %#v", plan.NewRatings)
	}
	if plan.SkippedRatings[0].Label != "im" {
		t.Fatalf("original label case must be preserved, got %q", plan.SkippedRatings[0].Label)
	}
}

func TestBuildPlanMappingValuesCompareCaseSensitively(t *testing.T) {
	snap := Snapshot{
		Mappings: map[string][]string{"imdb": {"TT0133093"}},
	}
	mappings := []Mapping{{IDType: "imdb", Value: "tt0133093"}}

	plan := BuildPlan(mappings, nil, snap)

	if len(plan.NewMappings) != 1 {
		t.Fatalf("identifier values differ by case, mapping must be new: %#v", plan)
	}
}

func TestBuildPlanPartitionsRatings(t *testing.T) {
	rs := []ratings.Rating{
		{Label: "IM", Score: 74.0},
		{Label: "RT", Score: 91.0},
		{Label: "MC", Score: 65.0},
		{Label: "TM", Score: 81.2},
	}
	snap := Snapshot{
		RatingLabels: map[string]struct{}{"RT": {}, "TM": {}},
	}

	plan := BuildPlan(nil, rs, snap)

	// New and skipped are disjoint and their union is the input.
	if len(plan.NewRatings)+len(plan.SkippedRatings) != len(rs) {
		t.Fatalf("partition lost ratings: %#v", plan)
	}
	seen := map[string]int{}
	for _, r := range plan.NewRatings {
		seen[strings.ToUpper(r.Label)]++
	}
	for _, r := range plan.SkippedRatings {
		seen[strings.ToUpper(r.Label)]++
	}
	for _, r := range rs {
		if seen[strings.ToUpper(r.Label)] != 1 {
			t.Fatalf("label %s appears %d times across the partition", r.Label, seen[r.Label])
		}
	}
}

func TestBuildPlanIsIdempotent(t *testing.T) {
	mappings := []Mapping{
		{IDType: "imdb", Value: "tt0903747"},
		{IDType: "tvdb", Value: "81189"},
	}
	rs := []ratings.Rating{
		{Label: "IM", Score: 90.0},
		{Label: "RT", Score: 96.0},
	}

	first := BuildPlan(mappings, rs, Snapshot{})

	// Simulate the store after the first run's writes.
	after := Snapshot{
		Mappings:     map[string][]string{},
		RatingLabels: map[string]struct{}{},
	}
	for _, m := range first.NewMappings {
		after.Mappings[m.IDType] = append(after.Mappings[m.IDType], m.Value)
	}
	for _, r := range first.NewRatings {
		after.RatingLabels[strings.ToUpper(r.Label)] = struct{}{}
	}

	second := BuildPlan(mappings, rs, after)

	if len(second.NewMappings) != 0 || len(second.NewRatings) != 0 {
		t.Fatalf("second run must submit nothing, got %#v", second)
	}
	if !reflect.DeepEqual(second.SkippedMappings, mappings) {
		t.Fatalf("second run must skip all mappings, got %#v", second.SkippedMappings)
	}
	if !reflect.DeepEqual(second.SkippedRatings, rs) {
		t.Fatalf("second run must skip all ratings, got %#v", second.SkippedRatings)
	}
}
