package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"pmdbsync/pkg/media"
	"pmdbsync/pkg/whttp"
)

func testGateway() *whttp.Client {
	return whttp.NewClient(whttp.WithRetryWait(time.Millisecond))
}

func TestSearchMovies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("api_key"); got != "k" {
			t.Errorf("unexpected api_key: %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "the matrix" {
			t.Errorf("unexpected query: %q", got)
		}
		w.Write([]byte(`{"results":[
			{"id":603,"title":"The Matrix","release_date":"1999-03-30"},
			{"id":604,"title":"The Matrix Reloaded","release_date":""}
		]}`))
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithGateway(testGateway()))
	got, err := c.Search(context.Background(), "the matrix", media.Movie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []media.Title{
		{ID: "603", Kind: media.Movie, Name: "The Matrix", Year: "1999"},
		{ID: "604", Kind: media.Movie, Name: "The Matrix Reloaded", Year: "unknown"},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("unexpected titles.\nwant: %#v\ngot:  %#v", expected, got)
	}
}

func TestSearchSeriesUsesTVFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20"}]}`))
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithGateway(testGateway()))
	got, err := c.Search(context.Background(), "breaking bad", media.Series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []media.Title{{ID: "1396", Kind: media.Series, Name: "Breaking Bad", Year: "2008"}}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("unexpected titles.\nwant: %#v\ngot:  %#v", expected, got)
	}
}

func TestSearchNoMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithGateway(testGateway()))
	got, err := c.Search(context.Background(), "zzzzzz", media.Movie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty result, got %#v", got)
	}
}

func TestDetailsBothHalves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/603/external_ids":
			w.Write([]byte(`{"imdb_id":"tt0133093"}`))
		case "/movie/603":
			w.Write([]byte(`{"vote_average":8.12}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithGateway(testGateway()))
	d := c.Details(context.Background(), "603", media.Movie)

	if d.ExternalIDs == nil || d.ExternalIDs.ImdbID != "tt0133093" {
		t.Fatalf("unexpected external ids: %#v", d.ExternalIDs)
	}
	if d.Info == nil || d.Info.VoteAverage != 8.12 {
		t.Fatalf("unexpected info: %#v", d.Info)
	}
}

func TestDetailsPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tv/1396/external_ids":
			w.WriteHeader(http.StatusInternalServerError)
		case "/tv/1396":
			w.Write([]byte(`{"vote_average":9.5}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithGateway(testGateway()))
	d := c.Details(context.Background(), "1396", media.Series)

	if d.ExternalIDs != nil {
		t.Fatalf("failed half must stay nil, got %#v", d.ExternalIDs)
	}
	if d.Info == nil || d.Info.VoteAverage != 9.5 {
		t.Fatalf("surviving half must be populated, got %#v", d.Info)
	}
}

func TestDetailsFetchedButEmptyIsNotNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/42/external_ids":
			w.Write([]byte(`{"imdb_id":null}`))
		case "/movie/42":
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithGateway(testGateway()))
	d := c.Details(context.Background(), "42", media.Movie)

	if d.ExternalIDs == nil || d.ExternalIDs.ImdbID != "" {
		t.Fatalf("fetched-but-empty must be non-nil with empty fields, got %#v", d.ExternalIDs)
	}
	if d.Info == nil || d.Info.VoteAverage != 0 {
		t.Fatalf("fetched-but-empty must be non-nil with zero fields, got %#v", d.Info)
	}
}
