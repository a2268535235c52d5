// Package identity produces randomized, internally consistent browser
// identity profiles. The Chrome version embedded in the User-Agent string
// always matches the version asserted in the client-hint headers, so the
// emitted header set stays plausible under server-side consistency checks.
package identity

import (
	"fmt"
	"math/rand/v2"
)

// Chrome major versions are drawn from a bounded recent range. Versions far
// outside what Chrome actually ships are an easy automation tell.
const (
	minChromeMajor = 124
	maxChromeMajor = 131
)

// Profile is the set of request-identifying headers presented to the target.
type Profile struct {
	UserAgent      string
	AcceptLanguage string

	// ClientHints holds the sec-ch-ua* headers keyed by header name.
	ClientHints map[string]string
}

// Generate returns a fresh randomized profile. Pure function of the
// process-wide random source; no state is retained between calls.
func Generate() Profile {
	major := minChromeMajor + rand.IntN(maxChromeMajor-minChromeMajor+1)
	build := 6300 + rand.IntN(300)
	patch := rand.IntN(200)
	fullVersion := fmt.Sprintf("%d.0.%d.%d", major, build, patch)

	return Profile{
		UserAgent: fmt.Sprintf(
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36",
			major,
		),
		AcceptLanguage: "en-US,en;q=0.9",
		ClientHints: map[string]string{
			"sec-ch-ua": fmt.Sprintf(
				`"Chromium";v="%d", "Google Chrome";v="%d", "Not=A?Brand";v="24"`,
				major, major,
			),
			"sec-ch-ua-full-version-list": fmt.Sprintf(
				`"Chromium";v="%s", "Google Chrome";v="%s", "Not=A?Brand";v="24.0.0.0"`,
				fullVersion, fullVersion,
			),
			"sec-ch-ua-mobile":   "?0",
			"sec-ch-ua-platform": `"Windows"`,
		},
	}
}

// Headers returns the full outbound header set for a raw HTTP request.
func (p Profile) Headers() map[string]string {
	h := map[string]string{
		"User-Agent":      p.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": p.AcceptLanguage,
		"Cache-Control":   "no-cache",
	}
	for k, v := range p.ClientHints {
		h[k] = v
	}
	return h
}
