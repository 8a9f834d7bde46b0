// Package tvdb resolves a TVDB series identifier from an IMDb identifier.
// The client owns the only process-wide mutable state of the tool: the
// cached bearer token, refreshed after one hour.
package tvdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"pmdbsync/pkg/whttp"
)

const (
	defaultBaseURL = "https://api4.thetvdb.com/v4"
	tokenTTL       = time.Hour
)

type Client struct {
	apiKey  string
	baseURL string
	gw      *whttp.Client
	now     func() time.Time

	mu       sync.Mutex
	token    string
	issuedAt time.Time
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

// WithNow overrides the clock used for token expiry (used in tests).
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		gw:      whttp.NewClient(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key was supplied. Unconfigured clients
// never attempt a login and always resolve to absent.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// bearer returns a valid token, logging in when there is none or the
// cached one is older than an hour.
func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Sub(c.issuedAt) < tokenTTL {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{"apikey": c.apiKey})
	if err != nil {
		return "", err
	}
	res, err := c.gw.Do(ctx, &whttp.Request{
		Method: "POST",
		URL:    c.baseURL + "/login",
		Body:   payload,
	})
	if err != nil {
		return "", fmt.Errorf("tvdb login: %w", err)
	}

	token := gjson.Get(res.BodyString, "data.token").String()
	if token == "" {
		return "", fmt.Errorf("tvdb login: no token in response")
	}

	c.token = token
	c.issuedAt = c.now()
	return c.token, nil
}

// Resolve searches TVDB for a series by IMDb identifier and returns its
// TVDB identifier, or "" when nothing matches. When several results come
// back, a result carrying an exact IMDB remote-id match wins over the
// first one.
func (c *Client) Resolve(ctx context.Context, imdbID string) (string, error) {
	if !c.Configured() {
		return "", nil
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return "", err
	}

	res, err := c.gw.Do(ctx, &whttp.Request{
		Method: "GET",
		URL:    c.baseURL + "/search",
		Query: url.Values{
			"query": {imdbID},
			"type":  {"series"},
		},
		Headers: []whttp.Header{{Name: "Authorization", Value: "Bearer " + token}},
	})
	if err != nil {
		return "", fmt.Errorf("tvdb search: %w", err)
	}

	var first, exact string
	gjson.Get(res.BodyString, "data").ForEach(func(_, r gjson.Result) bool {
		id := r.Get("tvdb_id").String()
		if first == "" {
			first = id
		}
		r.Get("remote_ids").ForEach(func(_, remote gjson.Result) bool {
			if remote.Get("sourceName").String() == "IMDB" && remote.Get("id").String() == imdbID {
				exact = id
				return false
			}
			return true
		})
		return exact == ""
	})

	if exact != "" {
		return exact, nil
	}
	return first, nil
}
