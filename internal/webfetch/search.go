package webfetch

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/odysseus/internal/model"
)

// Result-page selectors. These track the search engine's rendered markup and
// are brittle by nature: a layout change upstream degrades to zero results,
// never a crash.
const (
	selResult  = "div.tF2Cxc"
	selTitle   = "h3"
	selSnippet = "div.VwiC3b"
)

// Search runs one query against the search engine via the proxy and parses
// the rendered results page into Source records. Search is best-effort
// evidence gathering: a transport failure is returned as an error, but a page
// that no longer matches the expected markup yields an empty slice.
func (c *Client) Search(ctx context.Context, query string) ([]model.Source, error) {
	searchURL := c.searchBaseURL + "?q=" + url.QueryEscape(query) + "&gl=us&hl=en"

	body, err := c.get(ctx, searchURL)
	if err != nil {
		return nil, eris.Wrapf(err, "webfetch: search %q", query)
	}

	sources := parseSearchResults(body)
	zap.L().Debug("search complete",
		zap.String("query", query),
		zap.Int("results", len(sources)),
	)
	return sources, nil
}

// parseSearchResults extracts sources from a rendered results page.
func parseSearchResults(body []byte) []model.Source {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var sources []model.Source
	doc.Find(selResult).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Find("a").First().Attr("href")
		if !ok || href == "" {
			return
		}

		title := strings.TrimSpace(s.Find(selTitle).First().Text())
		if title == "" {
			title = "No Title"
		}

		sources = append(sources, model.Source{
			Name:    title,
			URL:     href,
			Snippet: strings.TrimSpace(s.Find(selSnippet).First().Text()),
		})
	})

	return sources
}
