package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// KnowledgeClient asks free-text questions of a Wolfram|Alpha-compatible
// query API.
type KnowledgeClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Ask returns the plaintext answer fragments for query in the order the API
// returns them. No answer is an empty slice, not an error.
func (k *KnowledgeClient) Ask(ctx context.Context, query, accessKey string) ([]string, error) {
	if accessKey == "" {
		return nil, errors.New("knowledge app id not configured")
	}
	q := url.Values{}
	q.Set("input", query)
	q.Set("appid", accessKey)
	q.Set("output", "json")
	q.Set("format", "plaintext")
	body, err := get(ctx, k.HTTPClient, k.BaseURL, "/v2/query", q)
	if err != nil {
		return nil, fmt.Errorf("knowledge lookup: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("knowledge response is not json")
	}
	result := gjson.GetBytes(body, "queryresult")
	if e := result.Get("error"); e.IsObject() || e.Bool() {
		return nil, fmt.Errorf("knowledge api: %s", e.Get("msg").String())
	}
	if !result.Get("success").Bool() {
		return nil, nil
	}
	var fragments []string
	result.Get("pods").ForEach(func(_, pod gjson.Result) bool {
		if pod.Get("id").String() == "Input" {
			return true
		}
		pod.Get("subpods").ForEach(func(_, sub gjson.Result) bool {
			text := strings.TrimSpace(sub.Get("plaintext").String())
			if text != "" {
				fragments = append(fragments, strings.Join(strings.Split(text, "\n"), " | "))
			}
			return true
		})
		return true
	})
	return fragments, nil
}
