package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Definition is one slang dictionary entry.
type Definition struct {
	Word       string
	Definition string
	Example    string
	Permalink  string
}

// SlangClient queries an Urban Dictionary-compatible define endpoint.
type SlangClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Define returns the top definition for term.
func (s *SlangClient) Define(ctx context.Context, term string) (Definition, error) {
	if strings.TrimSpace(term) == "" {
		return Definition{}, fmt.Errorf("term empty")
	}
	q := url.Values{}
	q.Set("term", term)
	body, err := get(ctx, s.HTTPClient, s.BaseURL, "/v0/define", q)
	if err != nil {
		return Definition{}, fmt.Errorf("slang lookup: %w", err)
	}
	var resp struct {
		List []struct {
			Word       string `json:"word"`
			Definition string `json:"definition"`
			Example    string `json:"example"`
			Permalink  string `json:"permalink"`
		} `json:"list"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Definition{}, fmt.Errorf("decode slang: %w", err)
	}
	if len(resp.List) == 0 {
		return Definition{}, ErrNotFound
	}
	top := resp.List[0]
	return Definition{
		Word:       top.Word,
		Definition: unbracket(top.Definition),
		Example:    unbracket(top.Example),
		Permalink:  top.Permalink,
	}, nil
}

// unbracket drops the [cross-reference] markers and flattens newlines.
func unbracket(s string) string {
	s = strings.NewReplacer("[", "", "]", "").Replace(s)
	return collapse(s)
}
