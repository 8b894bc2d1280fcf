package domainlist

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/policycrawl/internal/fetcher"
)

// DefaultTopURL is the ahrefs top-sites page; the country is appended.
const DefaultTopURL = "https://ahrefs.com/top/"

// ErrNoTable is returned when the top-sites page has no ranking table.
var ErrNoTable = errors.New("no ranking table found")

// RankedSite is one row of a top-sites ranking.
type RankedSite struct {
	Rank          int
	URL           string
	Traffic       string
	TrafficChange string
}

// ScrapeTop downloads the top-sites ranking of country ("korea", "china",
// "japan", ...) from baseURL+country. An empty baseURL uses DefaultTopURL.
func ScrapeTop(ctx context.Context, f fetcher.Fetcher, baseURL, country string) ([]RankedSite, error) {
	if baseURL == "" {
		baseURL = DefaultTopURL
	}
	country = strings.ToLower(strings.TrimSpace(country))
	if country == "" {
		return nil, errors.New("country is required")
	}

	doc, err := f.Fetch(ctx, baseURL+country)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top sites for %s: %w", country, err)
	}

	sites, err := ParseTopTable(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse top sites for %s: %w", country, err)
	}
	return sites, nil
}

// ParseTopTable extracts the rows of the first <tbody> of a top-sites page.
// Each row holds rank, an icon cell, the site, its traffic and the traffic
// change; the icon cell is ignored.
func ParseTopTable(r io.Reader) ([]RankedSite, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	body := doc.Find("tbody").First()
	if body.Length() == 0 {
		return nil, ErrNoTable
	}

	sites := make([]RankedSite, 0)
	body.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return strings.TrimSpace(td.Text())
		})
		if len(cells) < 5 {
			return
		}

		site := RankedSite{
			Rank:          parseRank(cells[0], i+1),
			URL:           cells[2],
			Traffic:       cells[3],
			TrafficChange: cells[4],
		}
		if site.URL == "" {
			return
		}
		sites = append(sites, site)
	})

	if len(sites) == 0 {
		return nil, ErrNoTable
	}
	return sites, nil
}

// parseRank reads the digits of a rank cell ("#1", "1.") or returns fallback.
func parseRank(s string, fallback int) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if n, err := strconv.Atoi(digits); err == nil {
		return n
	}
	return fallback
}

// WriteCSV writes sites as rank,url,traffic,increase_traffic with a header.
// The output is accepted by Load.
func WriteCSV(w io.Writer, sites []RankedSite) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rank", "url", "traffic", "increase_traffic"}); err != nil {
		return err
	}
	for _, s := range sites {
		if err := cw.Write([]string{strconv.Itoa(s.Rank), s.URL, s.Traffic, s.TrafficChange}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
