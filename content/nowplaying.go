package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// NowPlayingClient reads a user's current track from a Last.fm-compatible
// API.
type NowPlayingClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

type lastfmTrack struct {
	Name   string `json:"name"`
	Artist struct {
		Text string `json:"#text"`
	} `json:"artist"`
	Attr *struct {
		NowPlaying string `json:"nowplaying"`
	} `json:"@attr"`
}

// NowPlaying returns "Artist - Track" for what username is playing right
// now. ok is false when nothing is playing.
func (n *NowPlayingClient) NowPlaying(ctx context.Context, username string) (track string, ok bool, err error) {
	if n.APIKey == "" {
		return "", false, errors.New("now-playing api key not configured")
	}
	if username == "" {
		return "", false, errors.New("username empty")
	}
	q := url.Values{}
	q.Set("method", "user.getrecenttracks")
	q.Set("user", username)
	q.Set("api_key", n.APIKey)
	q.Set("format", "json")
	q.Set("limit", "1")
	body, err := get(ctx, n.HTTPClient, n.BaseURL, "/2.0/", q)
	if err != nil {
		return "", false, fmt.Errorf("now-playing lookup: %w", err)
	}
	var resp struct {
		Error        int    `json:"error"`
		Message      string `json:"message"`
		RecentTracks struct {
			Track json.RawMessage `json:"track"`
		} `json:"recenttracks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false, fmt.Errorf("decode now-playing: %w", err)
	}
	if resp.Error != 0 {
		return "", false, fmt.Errorf("now-playing api error %d: %s", resp.Error, resp.Message)
	}
	tracks, err := decodeTracks(resp.RecentTracks.Track)
	if err != nil {
		return "", false, err
	}
	for _, t := range tracks {
		if t.Attr != nil && t.Attr.NowPlaying == "true" {
			return t.Artist.Text + " - " + t.Name, true, nil
		}
	}
	return "", false, nil
}

// decodeTracks accepts both a list of tracks and a lone track object; the API
// returns the latter when there is exactly one.
func decodeTracks(raw json.RawMessage) ([]lastfmTrack, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []lastfmTrack
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var one lastfmTrack
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("decode tracks: %w", err)
	}
	return []lastfmTrack{one}, nil
}
