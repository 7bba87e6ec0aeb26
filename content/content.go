// Package content contains the HTTP adapters the bot calls for answers it
// cannot produce itself: the cafe menu, weather, slang definitions, movie
// ratings, now-playing tracks and general-knowledge questions.
//
// Every adapter is a plain request/response call. A lookup that succeeds but
// has no result returns ErrNotFound; anything else that goes wrong is
// returned as an ordinary error for the caller to apologise about.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// ErrNotFound reports a lookup with no matching result.
var ErrNotFound = errors.New("not found")

// maxBody caps how much of a response body is read.
const maxBody = 2 << 20

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}

// get issues a GET to base+path with query and returns the body. A 404 maps
// to ErrNotFound; any other non-2xx status is an error.
func get(ctx context.Context, hc *http.Client, base, path string, query url.Values) ([]byte, error) {
	u := strings.TrimRight(base, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "al-bot/1.0")
	resp, err := httpClient(hc).Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %s", path, resp.Status)
	}
	return body, nil
}

// collapse trims s and folds internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
