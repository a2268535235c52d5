package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// fixtureItem renders one search-result card. Empty title or price leaves
// the corresponding element out entirely.
func fixtureItem(asin, title, price, rating, img, href string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div data-component-type="s-search-result" data-asin=%q>`, asin)
	b.WriteString(`<h2>`)
	if href != "" {
		fmt.Fprintf(&b, `<a href=%q>`, href)
	}
	if title != "" {
		fmt.Fprintf(&b, `<span>%s</span>`, title)
	}
	if href != "" {
		b.WriteString(`</a>`)
	}
	b.WriteString(`</h2>`)
	if price != "" {
		fmt.Fprintf(&b, `<span class="a-price"><span class="a-offscreen">%s</span></span>`, price)
	}
	if rating != "" {
		fmt.Fprintf(&b, `<span class="a-icon-alt">%s</span>`, rating)
	}
	if img != "" {
		fmt.Fprintf(&b, `<img class="s-image" src=%q>`, img)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func fixturePage(items ...string) string {
	return `<html><body><div class="s-main-slot">` + strings.Join(items, "\n") + `</div></body></html>`
}

func mustParse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

var testBase = &url.URL{Scheme: "https", Host: "www.amazon.com"}

func TestParseResults_FiltersInvalidRecords(t *testing.T) {
	var items []string
	for i := 0; i < 17; i++ {
		items = append(items, fixtureItem(fmt.Sprintf("B%09d", i), fmt.Sprintf("Laptop %d", i), "$499.99", "4.5 out of 5 stars", "https://img.example/x.jpg", "/dp/B000000001"))
	}
	// 3 invalid: missing price.
	for i := 0; i < 3; i++ {
		items = append(items, fixtureItem("B0INVALID0", fmt.Sprintf("Ghost %d", i), "", "", "", ""))
	}

	got := parseResults(mustParse(t, fixturePage(items...)), testBase)
	if len(got) != 17 {
		t.Fatalf("expected 17 valid records, got %d", len(got))
	}
	for _, p := range got {
		if p.Title == "" || p.Price == "" {
			t.Errorf("invalid record leaked: %+v", p)
		}
	}
}

func TestParseResults_MissingTitleFiltered(t *testing.T) {
	page := fixturePage(fixtureItem("B000000001", "", "$19.99", "", "", ""))
	if got := parseResults(mustParse(t, page), testBase); len(got) != 0 {
		t.Errorf("record without title should be filtered, got %+v", got)
	}
}

func TestParseResults_Fields(t *testing.T) {
	page := fixturePage(fixtureItem(
		"B0TEST12345", "Mechanical Keyboard", "$89.00",
		"4.7 out of 5 stars", "https://img.example/kb.jpg",
		"/Mechanical-Keyboard/dp/B0TEST12345/ref=sr_1_1",
	))

	got := parseResults(mustParse(t, page), testBase)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	p := got[0]
	if p.Title != "Mechanical Keyboard" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Price != "$89.00" {
		t.Errorf("price = %q", p.Price)
	}
	if p.Rating != "4.7 out of 5 stars" {
		t.Errorf("rating = %q", p.Rating)
	}
	if p.ImageURL != "https://img.example/kb.jpg" {
		t.Errorf("image = %q", p.ImageURL)
	}
	if p.Link != "https://www.amazon.com/Mechanical-Keyboard/dp/B0TEST12345/ref=sr_1_1" {
		t.Errorf("link = %q", p.Link)
	}
}

func TestParseResults_LinkFallsBackToASIN(t *testing.T) {
	page := fixturePage(fixtureItem("B0NOANCHOR1", "Desk Lamp", "$25.49", "", "", ""))

	got := parseResults(mustParse(t, page), testBase)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Link != "https://www.amazon.com/dp/B0NOANCHOR1" {
		t.Errorf("link should be constructed from the item identifier, got %q", got[0].Link)
	}
}

func TestResolveLink(t *testing.T) {
	tests := []struct {
		name string
		href string
		asin string
		want string
	}{
		{"relative href", "/dp/B01/ref=1", "B01", "https://www.amazon.com/dp/B01/ref=1"},
		{"absolute href kept", "https://www.amazon.com/dp/B02", "", "https://www.amazon.com/dp/B02"},
		{"asin fallback", "", "B03", "https://www.amazon.com/dp/B03"},
		{"nothing derivable", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveLink(testBase, tt.href, tt.asin); got != tt.want {
				t.Errorf("resolveLink(%q, %q) = %q, want %q", tt.href, tt.asin, got, tt.want)
			}
		})
	}
}

func TestSearchURL_PercentEncodesKeyword(t *testing.T) {
	got := searchURL(testBase, "usb c hub 4k")
	if got != "https://www.amazon.com/s?k=usb+c+hub+4k" {
		t.Errorf("searchURL = %q", got)
	}
}
