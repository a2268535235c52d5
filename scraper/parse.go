package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Kell-C/amazon-scraper/models"
)

// searchURL builds the percent-encoded search results URL for a keyword.
func searchURL(base *url.URL, keyword string) string {
	u := *base
	u.Path = "/s"
	u.RawQuery = "k=" + url.QueryEscape(keyword)
	return u.String()
}

// resolveLink canonicalizes a product link: a relative anchor href resolves
// against the site origin; with no anchor at all, a product path is
// constructed from the item identifier. Returns "" when neither is derivable.
func resolveLink(base *url.URL, href, asin string) string {
	if href != "" {
		ref, err := url.Parse(href)
		if err == nil {
			return base.ResolveReference(ref).String()
		}
	}
	if asin != "" {
		u := *base
		u.Path = "/dp/" + asin
		u.RawQuery = ""
		return u.String()
	}
	return ""
}

// parseResults extracts product records from a parsed search-results
// document. Only valid records (non-empty title and price) are returned.
func parseResults(doc *goquery.Document, base *url.URL) []models.Product {
	var out []models.Product

	doc.FindMatcher(selResultItem).Each(func(_ int, item *goquery.Selection) {
		p := models.Product{
			Title:  strings.TrimSpace(item.FindMatcher(selTitle).First().Text()),
			Price:  strings.TrimSpace(item.FindMatcher(selPrice).First().Text()),
			Rating: strings.TrimSpace(item.FindMatcher(selRating).First().Text()),
		}
		p.ImageURL, _ = item.FindMatcher(selImage).First().Attr("src")

		href, _ := item.FindMatcher(selLink).First().Attr("href")
		asin, _ := item.Attr("data-asin")
		p.Link = resolveLink(base, href, asin)

		if p.Valid() {
			out = append(out, p)
		}
	})

	return out
}
