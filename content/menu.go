package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// Menu is the cafe's dish of the day per station.
type Menu struct {
	Soup   string
	Greens string
	Flavor string
	Grill  string
	Main   string
}

// MenuScraper reads the cafe menu page. Each station is an element carrying
// a data-station attribute (soup, greens, flavor, grill or main) whose text
// is the dish.
type MenuScraper struct {
	URL        string
	HTTPClient *http.Client
}

// Today fetches and parses the menu page.
func (m *MenuScraper) Today(ctx context.Context) (Menu, error) {
	if m.URL == "" {
		return Menu{}, errors.New("cafe menu url not configured")
	}
	body, err := get(ctx, m.HTTPClient, m.URL, "", nil)
	if err != nil {
		return Menu{}, fmt.Errorf("fetch menu: %w", err)
	}
	return ParseMenu(body)
}

// ParseMenu extracts the stations from a menu page.
func ParseMenu(page []byte) (Menu, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return Menu{}, fmt.Errorf("parse menu: %w", err)
	}
	var menu Menu
	found := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if station := attr(n, "data-station"); station != "" {
				dish := collapse(text(n))
				switch strings.ToLower(station) {
				case "soup":
					menu.Soup = dish
				case "greens":
					menu.Greens = dish
				case "flavor":
					menu.Flavor = dish
				case "grill":
					menu.Grill = dish
				case "main":
					menu.Main = dish
				default:
					return
				}
				found++
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if found == 0 {
		return Menu{}, fmt.Errorf("menu page has no stations: %w", ErrNotFound)
	}
	return menu, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
