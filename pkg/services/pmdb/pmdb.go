// Package pmdb is the target store client. Reads treat "not found" as a
// valid empty state and swallow other failures into empty results with a
// warning, so the reconciliation step always proceeds; the store is
// expected to tolerate the rare duplicate that a failed read lets through.
package pmdb

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"pmdbsync/internal/utils"
	"pmdbsync/pkg/media"
	"pmdbsync/pkg/whttp"
)

const (
	defaultBaseURL = "https://publicmetadb.com"
	mappingsPath   = "/api/external/mappings"
	ratingsPath    = "/api/external/ratings"
)

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

func (c *Client) get(ctx context.Context, path, tmdbID string, kind media.Kind) (*whttp.Response, error) {
	return c.gw.Do(ctx, &whttp.Request{
		Method: "GET",
		URL:    c.baseURL + path,
		Query: url.Values{
			"tmdb_id":    {tmdbID},
			"media_type": {string(kind)},
		},
		Headers: []whttp.Header{{Name: "Authorization", Value: "Bearer " + c.apiKey}},
	})
}

// Mappings returns the identifier mappings the store already holds for a
// title, keyed by id type.
func (c *Client) Mappings(ctx context.Context, tmdbID string, kind media.Kind) map[string][]string {
	existing := map[string][]string{}

	res, err := c.get(ctx, mappingsPath, tmdbID, kind)
	if err != nil {
		if !whttp.IsNotFound(err) {
			utils.Log.Warnf("Could not check existing PMDB mappings for %s: %v", tmdbID, err)
		}
		return existing
	}

	gjson.Get(res.BodyString, "mappings").ForEach(func(idType, list gjson.Result) bool {
		list.ForEach(func(_, m gjson.Result) bool {
			if v := m.Get("value"); v.Exists() {
				existing[idType.String()] = append(existing[idType.String()], v.String())
			}
			return true
		})
		return true
	})
	return existing
}

// RatingLabels returns the upper-cased labels of ratings the store already
// holds for a title.
func (c *Client) RatingLabels(ctx context.Context, tmdbID string, kind media.Kind) map[string]struct{} {
	existing := map[string]struct{}{}

	res, err := c.get(ctx, ratingsPath, tmdbID, kind)
	if err != nil {
		if !whttp.IsNotFound(err) {
			utils.Log.Warnf("Could not check existing PMDB ratings for %s: %v", tmdbID, err)
		}
		return existing
	}

	parsed := gjson.Parse(res.BodyString)
	items := parsed.Get("items")
	if !items.Exists() && parsed.IsArray() {
		// Fallback for the bare top-level array the API sometimes returns.
		items = parsed
	}
	items.ForEach(func(_, r gjson.Result) bool {
		if label := r.Get("label"); label.Exists() {
			existing[strings.ToUpper(label.String())] = struct{}{}
		}
		return true
	})
	return existing
}

type mappingPayload struct {
	TmdbID    string `json:"tmdb_id"`
	MediaType string `json:"media_type"`
	IDType    string `json:"id_type"`
	IDValue   string `json:"id_value"`
}

type ratingPayload struct {
	TmdbID    string  `json:"tmdb_id"`
	MediaType string  `json:"media_type"`
	Label     string  `json:"label"`
	Score     float64 `json:"score"`
}

// SubmitMapping writes one identifier mapping. Failures are logged and
// reported as false; they never abort the rest of the batch.
func (c *Client) SubmitMapping(ctx context.Context, tmdbID string, kind media.Kind, idType, idValue string) bool {
	body, err := json.Marshal(mappingPayload{
		TmdbID:    tmdbID,
		MediaType: string(kind),
		IDType:    idType,
		IDValue:   idValue,
	})
	if err != nil {
		utils.Log.Warnf("Could not encode mapping payload: %v", err)
		return false
	}
	return c.post(ctx, mappingsPath, body, "mapping "+idType)
}

// SubmitRating writes one rating, preserving the label's original case.
func (c *Client) SubmitRating(ctx context.Context, tmdbID string, kind media.Kind, label string, score float64) bool {
	body, err := json.Marshal(ratingPayload{
		TmdbID:    tmdbID,
		MediaType: string(kind),
		Label:     label,
		Score:     score,
	})
	if err != nil {
		utils.Log.Warnf("Could not encode rating payload: %v", err)
		return false
	}
	return c.post(ctx, ratingsPath, body, "rating "+label)
}

func (c *Client) post(ctx context.Context, path string, body []byte, what string) bool {
	_, err := c.gw.Do(ctx, &whttp.Request{
		Method:  "POST",
		URL:     c.baseURL + path,
		Body:    body,
		Headers: []whttp.Header{{Name: "Authorization", Value: "Bearer " + c.apiKey}},
	})
	if err != nil {
		utils.Log.Warnf("Submitting %s failed: %v", what, err)
		return false
	}
	return true
}
