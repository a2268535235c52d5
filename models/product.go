package models

// Backend identifies which extraction backend produced a result.
type Backend string

const (
	BackendRendering Backend = "rendering"
	BackendRawFetch  Backend = "raw_fetch"
)

// Product is a single search-result listing.
//
// Price is kept as displayed text (e.g. "$1,299.99") — source formatting
// varies too much to normalize to a numeric type safely.
type Product struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Rating   string `json:"rating,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Link     string `json:"link,omitempty"`
}

// Valid reports whether the record carries the required fields.
// Backends must filter invalid records before returning.
func (p Product) Valid() bool {
	return p.Title != "" && p.Price != ""
}
