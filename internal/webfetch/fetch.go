package webfetch

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// chrome is the markup stripped before text extraction: anything that is
// page furniture rather than content.
const chrome = "script, style, noscript, header, footer, nav, aside, form"

// FetchText retrieves a page through the proxy, strips non-content markup,
// and returns plaintext truncated to the configured character budget.
func (c *Client) FetchText(ctx context.Context, pageURL string) (string, error) {
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return "", eris.Errorf("webfetch: invalid url %q", pageURL)
	}

	body, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	text, err := extractText(body)
	if err != nil {
		return "", eris.Wrapf(err, "webfetch: parse %s", pageURL)
	}

	text = truncate(text, c.truncateChars)

	zap.L().Debug("fetched page",
		zap.String("url", pageURL),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

// truncate cuts text to at most max bytes without splitting a multi-byte
// rune at the boundary.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// extractText parses HTML, removes page chrome, and joins the remaining
// text nodes with single spaces.
func extractText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	doc.Find(chrome).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return strings.Join(strings.Fields(root.Text()), " "), nil
}
