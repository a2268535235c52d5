package scraper

import "github.com/andybalholm/cascadia"

// CSS selectors and page markers used by both backends.
// Centralising them makes selector churn on the target site a one-file fix.
const (
	// Search results page
	resultItemSelector = `div[data-component-type="s-search-result"]`
	titleSelector      = `h2 a span, h2 span`
	priceSelector      = `span.a-price > span.a-offscreen`
	ratingSelector     = `span.a-icon-alt`
	imageSelector      = `img.s-image`
	linkSelector       = `h2 a, a.a-link-normal.s-no-outline`

	// Challenge (bot-check) page
	challengeSelector    = `form[action="/errors/validateCaptcha"]`
	captchaImageSelector = challengeSelector + ` img`
	captchaInputSelector = `#captchacharacters`
	captchaSubmitSel     = challengeSelector + ` button[type="submit"]`
)

// blockMarkers are textual signatures of a raw block/challenge response.
// A challenge served to the raw-fetch backend is indistinguishable from a
// block, so both map to the same markers.
var blockMarkers = []string{
	"To discuss automated access to Amazon data",
	"api-services-support@amazon.com",
	"Enter the characters you see below",
}

// Precompiled matchers for the goquery parsing path.
var (
	selResultItem = cascadia.MustCompile(resultItemSelector)
	selTitle      = cascadia.MustCompile(titleSelector)
	selPrice      = cascadia.MustCompile(priceSelector)
	selRating     = cascadia.MustCompile(ratingSelector)
	selImage      = cascadia.MustCompile(imageSelector)
	selLink       = cascadia.MustCompile(linkSelector)
)
