// Package omdb is the ratings client. It fetches the raw score payload by
// IMDb identifier; all scale conversion happens in pkg/ratings.
package omdb

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"pmdbsync/internal/utils"
	"pmdbsync/pkg/ratings"
	"pmdbsync/pkg/whttp"
)

const defaultBaseURL = "http://www.omdbapi.com/"

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

// Configured reports whether an API key was supplied. Unconfigured clients
// are skipped by the session; the feature degrades instead of failing.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Result is the raw ratings payload for one title. Sources mirrors the
// remote's heterogeneous Ratings list untouched.
type Result struct {
	Title     string
	Year      string
	UserScore string
	Sources   []ratings.SourceScore
}

// Fetch retrieves the score payload for an IMDb identifier. A nil result
// with nil error means the remote has no data for this identifier.
func (c *Client) Fetch(ctx context.Context, imdbID string) (*Result, error) {
	res, err := c.gw.Do(ctx, &whttp.Request{
		Method: "GET",
		URL:    c.baseURL,
		Query: url.Values{
			"apikey": {c.apiKey},
			"i":      {imdbID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("omdb fetch: %w", err)
	}

	body := res.BodyString
	if gjson.Get(body, "Response").String() == "False" {
		utils.Log.Debugf("OMDb has no data for %s: %s", imdbID, gjson.Get(body, "Error").String())
		return nil, nil
	}

	out := &Result{
		Title:     gjson.Get(body, "Title").String(),
		Year:      gjson.Get(body, "Year").String(),
		UserScore: gjson.Get(body, "imdbRating").String(),
	}
	gjson.Get(body, "Ratings").ForEach(func(_, r gjson.Result) bool {
		out.Sources = append(out.Sources, ratings.SourceScore{
			Source: r.Get("Source").String(),
			Value:  r.Get("Value").String(),
		})
		return true
	})
	return out, nil
}
