// Package media holds the title model shared by all API clients.
package media

type Kind string

const (
	Movie  Kind = "movie"
	Series Kind = "series"
)

// Title is one search result from the discovery service. Year is the
// four-digit release year, or "unknown" when the remote omits the date.
type Title struct {
	ID   string
	Kind Kind
	Name string
	Year string
}
