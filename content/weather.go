package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"
)

// Location selects where to look up the weather. The zero value means the
// configured default.
type Location struct {
	Zip   string
	City  string
	State string
}

// IsZero reports whether no location was given.
func (l Location) IsZero() bool { return l == Location{} }

// ParseLocation turns the arguments of a weather command into a Location.
// A single five-digit token is a postal code. Otherwise, with two or more
// tokens and a two-letter last token, the last token is the state and the
// rest is the city; any other input is all city.
func ParseLocation(args []string) Location {
	switch {
	case len(args) == 0:
		return Location{}
	case len(args) == 1 && isZip(args[0]):
		return Location{Zip: args[0]}
	case len(args) >= 2 && isState(args[len(args)-1]):
		return Location{City: strings.Join(args[:len(args)-1], " "), State: args[len(args)-1]}
	default:
		return Location{City: strings.Join(args, " ")}
	}
}

func isZip(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isState(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Forecast is the current conditions at a place.
type Forecast struct {
	Place       string
	Status      string
	Temperature float64
	Humidity    int
}

// WeatherClient queries an OpenWeatherMap-compatible current weather API.
type WeatherClient struct {
	BaseURL    string
	APIKey     string
	DefaultZip string
	// Units is passed through as the units parameter; imperial when empty.
	Units      string
	HTTPClient *http.Client
}

// Current returns the current conditions for loc, or for DefaultZip when loc
// is zero.
func (w *WeatherClient) Current(ctx context.Context, loc Location) (Forecast, error) {
	if w.APIKey == "" {
		return Forecast{}, errors.New("weather api key not configured")
	}
	if loc.IsZero() {
		if w.DefaultZip == "" {
			return Forecast{}, errors.New("no location given and no default configured")
		}
		loc = Location{Zip: w.DefaultZip}
	}
	units := w.Units
	if units == "" {
		units = "imperial"
	}
	q := url.Values{}
	q.Set("appid", w.APIKey)
	q.Set("units", units)
	switch {
	case loc.Zip != "":
		q.Set("zip", loc.Zip+",us")
	case loc.State != "":
		q.Set("q", loc.City+","+loc.State+",us")
	default:
		q.Set("q", loc.City)
	}
	body, err := get(ctx, w.HTTPClient, w.BaseURL, "/data/2.5/weather", q)
	if err != nil {
		return Forecast{}, fmt.Errorf("weather lookup: %w", err)
	}
	var resp struct {
		Name    string `json:"name"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Forecast{}, fmt.Errorf("decode weather: %w", err)
	}
	if len(resp.Weather) == 0 {
		return Forecast{}, errors.New("weather response has no conditions")
	}
	place := resp.Name
	if place == "" {
		place = loc.City + loc.Zip
	}
	return Forecast{
		Place:       place,
		Status:      resp.Weather[0].Main,
		Temperature: resp.Main.Temp,
		Humidity:    resp.Main.Humidity,
	}, nil
}
