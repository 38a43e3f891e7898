package scrape

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ParseIndex parses the enforcement actions page and extracts one Entry per
// table row. Rows with no facility link or an unparseable date are skipped
// with a warning; a malformed row never aborts the crawl.
func ParseIndex(page []byte, baseURL string) ([]Entry, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse html")
	}

	table := findFirst(doc, "table")
	if table == nil {
		zap.L().Warn("scrape: no table found on index page")
		return nil, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: parse base url %s", baseURL)
	}

	var entries []Entry
	for _, row := range findAll(table, "tr") {
		cells := findAll(row, "td")
		if len(cells) < 3 {
			// Header row or spacer.
			continue
		}

		dateStr := textContent(cells[0])
		date, err := time.Parse("1/2/2006", dateStr)
		if err != nil {
			zap.L().Warn("scrape: skipping row with unparseable date",
				zap.String("date", dateStr),
			)
			continue
		}

		link := findFirst(cells[1], "a")
		if link == nil {
			zap.L().Warn("scrape: skipping row with no document link",
				zap.String("date", dateStr),
			)
			continue
		}

		entries = append(entries, Entry{
			Date:         date,
			FacilityName: textContent(link),
			ActionType:   textContent(cells[2]),
			PDFURL:       resolveURL(base, attr(link, "href")),
		})
	}
	return entries, nil
}

// resolveURL makes a possibly-relative href absolute against the index page.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// findFirst returns the first descendant element with the given tag.
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns all descendant elements with the given tag, in document
// order, without descending into matches.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
			continue
		}
		out = append(out, findAll(c, tag)...)
	}
	return out
}

// textContent returns the concatenated, whitespace-collapsed text under a
// node.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
