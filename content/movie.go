package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// Rating is a movie's critic and audience scores.
type Rating struct {
	Title         string
	CriticsScore  int
	AudienceScore int
	Link          string
}

// MovieClient queries a Rotten Tomatoes-compatible movie search API.
type MovieClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Rate looks up the first match for title.
func (m *MovieClient) Rate(ctx context.Context, title, accessKey string) (Rating, error) {
	if accessKey == "" {
		return Rating{}, errors.New("movie api key not configured")
	}
	q := url.Values{}
	q.Set("apikey", accessKey)
	q.Set("q", title)
	q.Set("page_limit", "1")
	body, err := get(ctx, m.HTTPClient, m.BaseURL, "/api/public/v1.0/movies.json", q)
	if err != nil {
		return Rating{}, fmt.Errorf("movie lookup: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return Rating{}, errors.New("movie response is not json")
	}
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return Rating{}, fmt.Errorf("movie api: %s", msg.String())
	}
	first := gjson.GetBytes(body, "movies.0")
	if !first.Exists() {
		return Rating{}, ErrNotFound
	}
	return Rating{
		Title:         first.Get("title").String(),
		CriticsScore:  int(first.Get("ratings.critics_score").Int()),
		AudienceScore: int(first.Get("ratings.audience_score").Int()),
		Link:          first.Get("links.alternate").String(),
	}, nil
}
