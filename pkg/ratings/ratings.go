// Package ratings converts the heterogeneous score formats of the remote
// services into a single 0-100 scale under the PMDB label abbreviations.
package ratings

import (
	"math"
	"strconv"
	"strings"
)

// PMDB label abbreviations.
const (
	LabelIM = "IM" // IMDb user score
	LabelRT = "RT" // Rotten Tomatoes critics aggregate
	LabelMC = "MC" // Metacritic critic score
	LabelTM = "TM" // TMDB vote average
)

// unavailable is the sentinel OMDb uses for missing score fields.
const unavailable = "N/A"

// Rating is a single score on the 0-100 scale.
type Rating struct {
	Label string
	Score float64
}

// SourceScore is one entry of OMDb's heterogeneous Ratings list, untouched.
type SourceScore struct {
	Source string
	Value  string
}

// RawScores carries the raw fragments collected for one title.
// Zero values mean "not fetched": an empty UserScore, a nil Sources list
// and a zero VoteAverage all normalize to nothing.
type RawScores struct {
	UserScore   string
	Sources     []SourceScore
	VoteAverage float64
}

// Normalize produces the unified rating list for one title, ordered
// IM, RT, MC, TM. At most one rating per label; sentinel-valued and
// unparseable fields are absent from the output, never zero-scored.
func Normalize(raw RawScores) []Rating {
	var out []Rating

	if raw.UserScore != "" && raw.UserScore != unavailable {
		if score, err := strconv.ParseFloat(raw.UserScore, 64); err == nil {
			out = append(out, Rating{Label: LabelIM, Score: round1(score * 10)})
		}
	}

	var rt, mc *float64
	for _, s := range raw.Sources {
		switch s.Source {
		case "Rotten Tomatoes":
			if s.Value == unavailable {
				continue
			}
			if score, err := strconv.ParseFloat(strings.TrimSuffix(s.Value, "%"), 64); err == nil {
				rt = &score
			}
		case "Metacritic":
			if s.Value == unavailable {
				continue
			}
			if score, err := strconv.ParseFloat(strings.SplitN(s.Value, "/", 2)[0], 64); err == nil {
				mc = &score
			}
		}
	}
	if rt != nil {
		out = append(out, Rating{Label: LabelRT, Score: *rt})
	}
	if mc != nil {
		out = append(out, Rating{Label: LabelMC, Score: *mc})
	}

	if raw.VoteAverage > 0 {
		out = append(out, Rating{Label: LabelTM, Score: round1(raw.VoteAverage * 10)})
	}

	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
