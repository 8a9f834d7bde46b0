// Package tmdb is the discovery client: title search plus the two
// per-title detail lookups (external identifiers and vote average).
package tmdb

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"pmdbsync/internal/utils"
	"pmdbsync/pkg/media"
	"pmdbsync/pkg/whttp"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

type Client struct {
	apiKey  string
	baseURL string
	gw      *whttp.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithGateway(gw *whttp.Client) Option {
	return func(c *Client) {
		c.gw = gw
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		gw:      whttp.NewClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search looks up a title and returns the raw candidate list. The caller
// caps how many it displays.
func (c *Client) Search(ctx context.Context, query string, kind media.Kind) ([]media.Title, error) {
	res, err := c.gw.Do(ctx, &whttp.Request{
		Method: "GET",
		URL:    c.baseURL + "/search/" + kindPath(kind),
		Query: url.Values{
			"api_key": {c.apiKey},
			"query":   {query},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}

	var titles []media.Title
	gjson.Get(res.BodyString, "results").ForEach(func(_, r gjson.Result) bool {
		titles = append(titles, media.Title{
			ID:   r.Get("id").String(),
			Kind: kind,
			Name: titleName(r, kind),
			Year: titleYear(r, kind),
		})
		return true
	})
	return titles, nil
}

// ExternalIDs holds the cross-service identifiers TMDB knows for a title.
type ExternalIDs struct {
	ImdbID string
}

// Info holds the fields of the detail payload we care about.
type Info struct {
	VoteAverage float64
}

// Details is the result of the two independent per-title lookups. A nil
// half means that fetch failed; a non-nil half with zero values means it
// succeeded but the remote had nothing.
type Details struct {
	ExternalIDs *ExternalIDs
	Info        *Info
}

// Details runs the external-identifier lookup and the detail lookup.
// Each can fail independently; a failure is logged and leaves its half nil
// without blocking the other.
func (c *Client) Details(ctx context.Context, id string, kind media.Kind) Details {
	var d Details
	base := c.baseURL + "/" + kindPath(kind) + "/" + id
	query := url.Values{"api_key": {c.apiKey}}

	if res, err := c.gw.Do(ctx, &whttp.Request{Method: "GET", URL: base + "/external_ids", Query: query}); err != nil {
		utils.Log.Warnf("TMDB external IDs fetch failed for %s: %v", id, err)
	} else {
		d.ExternalIDs = &ExternalIDs{
			ImdbID: gjson.Get(res.BodyString, "imdb_id").String(),
		}
	}

	if res, err := c.gw.Do(ctx, &whttp.Request{Method: "GET", URL: base, Query: query}); err != nil {
		utils.Log.Warnf("TMDB details fetch failed for %s: %v", id, err)
	} else {
		d.Info = &Info{
			VoteAverage: gjson.Get(res.BodyString, "vote_average").Float(),
		}
	}

	return d
}

func kindPath(kind media.Kind) string {
	if kind == media.Series {
		return "tv"
	}
	return "movie"
}

func titleName(r gjson.Result, kind media.Kind) string {
	if kind == media.Series {
		return r.Get("name").String()
	}
	return r.Get("title").String()
}

func titleYear(r gjson.Result, kind media.Kind) string {
	field := "release_date"
	if kind == media.Series {
		field = "first_air_date"
	}
	date := r.Get(field).String()
	if len(date) < 4 {
		return "unknown"
	}
	return date[:4]
}
