package content

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/onnwee/al/testutil"
)

const menuPage = `<html><body>
<div class="stations">
  <section data-station="soup"><h3>Steam 'n Turren</h3><p>Tomato
     bisque</p></section>
  <section data-station="greens">Kale Caesar</section>
  <section data-station="flavor">Pad Thai</section>
  <section data-station="grill">Smash burger</section>
  <section data-station="main">Roast chicken</section>
  <section data-station="dessert">Pie</section>
</div></body></html>`

func TestParseMenu(t *testing.T) {
	got, err := ParseMenu([]byte(menuPage))
	if err != nil {
		t.Fatalf("ParseMenu: %v", err)
	}
	want := Menu{
		Soup:   "Steam 'n Turren Tomato bisque",
		Greens: "Kale Caesar",
		Flavor: "Pad Thai",
		Grill:  "Smash burger",
		Main:   "Roast chicken",
	}
	if got != want {
		t.Errorf("ParseMenu() = %#v, want %#v", got, want)
	}
}

func TestParseMenuWithoutStations(t *testing.T) {
	_, err := ParseMenu([]byte(`<html><body><p>closed today</p></body></html>`))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ParseMenu() error = %v, want ErrNotFound", err)
	}
}

func TestMenuScraperToday(t *testing.T) {
	srv := testutil.NewMockContentServer(t)
	srv.Raw("/menu", http.StatusOK, "text/html", menuPage)
	m := &MenuScraper{URL: srv.URL + "/menu"}
	got, err := m.Today(context.Background())
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if got.Main != "Roast chicken" {
		t.Errorf("Main = %q", got.Main)
	}

	broken := &MenuScraper{URL: srv.URL + "/missing"}
	if _, err := broken.Today(context.Background()); err == nil {
		t.Error("expected error for missing menu page")
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		args []string
		want Location
	}{
		{nil, Location{}},
		{[]string{"94103"}, Location{Zip: "94103"}},
		{[]string{"Reno", "NV"}, Location{City: "Reno", State: "NV"}},
		{[]string{"San", "Francisco", "CA"}, Location{City: "San Francisco", State: "CA"}},
		{[]string{"Reno"}, Location{City: "Reno"}},
		{[]string{"New", "York", "City"}, Location{City: "New York City"}},
		{[]string{"9410"}, Location{City: "9410"}},
		{[]string{"94103", "CA"}, Location{City: "94103", State: "CA"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, "_"), func(t *testing.T) {
			if got := ParseLocation(tt.args); got != tt.want {
				t.Errorf("ParseLocation(%v) = %#v, want %#v", tt.args, got, tt.want)
			}
		})
	}
}

func TestWeatherCurrent(t *testing.T) {
	srv := testutil.NewMockContentServer(t)
	var gotQuery map[string]string
	srv.Handlers["/data/2.5/weather"] = func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"zip": r.URL.Query().Get("zip"),
			"q":   r.URL.Query().Get("q"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Reno","weather":[{"main":"Clear"}],"main":{"temp":71.5,"humidity":20}}`))
	}
	wc := &WeatherClient{BaseURL: srv.URL, APIKey: "k", DefaultZip: "89501"}

	tests := []struct {
		name    string
		loc     Location
		wantZip string
		wantQ   string
	}{
		{"zip", Location{Zip: "94103"}, "94103,us", ""},
		{"city state", Location{City: "Reno", State: "NV"}, "", "Reno,NV,us"},
		{"city", Location{City: "Paris"}, "", "Paris"},
		{"default", Location{}, "89501,us", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wc.Current(context.Background(), tt.loc)
			if err != nil {
				t.Fatalf("Current: %v", err)
			}
			if gotQuery["zip"] != tt.wantZip || gotQuery["q"] != tt.wantQ {
				t.Errorf("query = %v, want zip=%q q=%q", gotQuery, tt.wantZip, tt.wantQ)
			}
			want := Forecast{Place: "Reno", Status: "Clear", Temperature: 71.5, Humidity: 20}
			if got != want {
				t.Errorf("Current() = %#v, want %#v", got, want)
			}
		})
	}
}

func TestWeatherRequiresKey(t *testing.T) {
	wc := &WeatherClient{}
	if _, err := wc.Current(context.Background(), Location{Zip: "94103"}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestSlangDefine(t *testing.T) {
	srv := testutil.NewMockContentServer(t)
	srv.JSON("/v0/define", map[string]any{
		"list": []map[string]string{{
			"word":       "yeet",
			"definition": "to [throw]\r\nsomething",
			"example":    "he [yeeted] it",
			"permalink":  "http://yeet.urbanup.com/1",
		}},
	})
	sc := &SlangClient{BaseURL: srv.URL}
	got, err := sc.Define(context.Background(), "yeet")
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	want := Definition{Word: "yeet", Definition: "to throw something", Example: "he yeeted it", Permalink: "http://yeet.urbanup.com/1"}
	if got != want {
		t.Errorf("Define() = %#v, want %#v", got, want)
	}
}

func TestSlangNotFound(t *testing.T) {
	srv := testutil.NewMockContentServer(t)
	srv.JSON("/v0/define", map[string]any{"list": []any{}})
	sc := &SlangClient{BaseURL: srv.URL}
	if _, err := sc.Define(context.Background(), "zzzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Define() error = %v, want ErrNotFound", err)
	}
}

func TestMovieRate(t *testing.T) {
	srv := testutil.NewMockContentServer(t)
	srv.Handlers["/api/public/v1.0/movies.json"] = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "secret" {
			t.Errorf("apikey = %q", r.URL.Query().Get("apikey"))
		}
		switch r.URL.Query().Get("q") {
		case "Alien":
			_, _ = w.Write([]byte(`{"movies":[{"title":"Alien","ratings":{"critics_score":98,"audience_score":94},"links":{"alternate":"http://rt/alien"}}]}`))
		default:
			_, _ = w.Write([]byte(`{"total":0,"movies":[]}`))
		}
	}
	mc := &MovieClient{BaseURL: srv.URL}
	got, err := mc.Rate(context.Background(), "Alien", "secret")
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	want := Rating{Title: "Alien", CriticsScore: 98, AudienceScore: 94, Link: "http://rt/alien"}
	if got != want {
		t.Errorf("Rate() = %#v, want %#v", got, want)
	}
	if _, err := mc.Rate(context.Background(), "Nope", "secret"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rate(Nope) error = %v, want ErrNotFound", err)
	}
	if _, err := mc.Rate(context.Background(), "Alien", ""); err == nil {
		t.Error("expected error without access key")
	}
}

func TestNowPlaying(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTrack string
		wantOK    bool
		wantErr   bool
	}{
		{
			name:      "list with now playing",
			body:      `{"recenttracks":{"track":[{"name":"Song","artist":{"#text":"Band"},"@attr":{"nowplaying":"true"}},{"name":"Old","artist":{"#text":"Band"}}]}}`,
			wantTrack: "Band - Song",
			wantOK:    true,
		},
		{
			name:      "single object",
			body:      `{"recenttracks":{"track":{"name":"Solo","artist":{"#text":"Act"},"@attr":{"nowplaying":"true"}}}}`,
			wantTrack: "Act - Solo",
			wantOK:    true,
		},
		{
			name: "nothing playing",
			body: `{"recenttracks":{"track":[{"name":"Old","artist":{"#text":"Band"}}]}}`,
		},
		{
			name:    "api error",
			body:    `{"error":6,"message":"User not found"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewMockContentServer(t)
			srv.Raw("/2.0/", http.StatusOK, "application/json", tt.body)
			nc := &NowPlayingClient{BaseURL: srv.URL, APIKey: "k"}
			track, ok, err := nc.NowPlaying(context.Background(), "someone")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NowPlaying() err = %v, wantErr %v", err, tt.wantErr)
			}
			if track != tt.wantTrack || ok != tt.wantOK {
				t.Errorf("NowPlaying() = (%q, %v), want (%q, %v)", track, ok, tt.wantTrack, tt.wantOK)
			}
		})
	}
}

func TestKnowledgeAsk(t *testing.T) {
	srv := testutil.NewMockContentServer(t)
	srv.Handlers["/v2/query"] = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("input") {
		case "distance to the moon":
			_, _ = w.Write([]byte(`{"queryresult":{"success":true,"error":false,"pods":[
				{"id":"Input","subpods":[{"plaintext":"distance to the moon"}]},
				{"id":"Result","subpods":[{"plaintext":"384400 km"}]},
				{"id":"Comparison","subpods":[{"plaintext":"about 1.3 light seconds\nroughly 30 Earths"},{"plaintext":""}]},
				{"id":"Extra","subpods":[{"plaintext":"fact three"}]}
			]}}`))
		case "broken":
			_, _ = w.Write([]byte(`{"queryresult":{"success":false,"error":{"code":"1","msg":"Invalid appid"}}}`))
		default:
			_, _ = w.Write([]byte(`{"queryresult":{"success":false,"error":false}}`))
		}
	}
	kc := &KnowledgeClient{BaseURL: srv.URL}

	got, err := kc.Ask(context.Background(), "distance to the moon", "app")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	want := []string{"384400 km", "about 1.3 light seconds | roughly 30 Earths", "fact three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Ask() = %#v, want %#v", got, want)
	}

	none, err := kc.Ask(context.Background(), "asdfgh", "app")
	if err != nil || len(none) != 0 {
		t.Errorf("Ask(no answer) = (%v, %v), want (empty, nil)", none, err)
	}
	if _, err := kc.Ask(context.Background(), "broken", "app"); err == nil {
		t.Error("expected api error")
	}
	if _, err := kc.Ask(context.Background(), "x", ""); err == nil {
		t.Error("expected error without app id")
	}
}
