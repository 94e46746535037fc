package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoListings is returned when a page carries no recognizable listing data.
var ErrNoListings = errors.New("no listings found")

// resultKeys name the arrays listing sites use for search results.
var resultKeys = map[string]bool{
	"listResults": true,
	"properties":  true,
	"results":     true,
	"homes":       true,
}

// ExtractPage pulls listings out of a saved listing-site search page. Sites
// embed their search results as JSON in script tags (Next.js __NEXT_DATA__ or
// application/json blocks); the first script holding a result array wins.
// Entries that cannot be normalized, such as those without a price, are
// skipped.
func ExtractPage(source string, r io.Reader) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	var scripts []string
	doc.Find(`script#__NEXT_DATA__, script[type="application/json"]`).Each(func(_ int, s *goquery.Selection) {
		scripts = append(scripts, s.Text())
	})

	for _, text := range scripts {
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			continue
		}
		items := findResults(v)
		if items == nil {
			continue
		}

		var listings []Listing
		for _, item := range items {
			raw, err := json.Marshal(item)
			if err != nil {
				continue
			}
			l, err := Normalize(source, raw)
			if err != nil {
				slog.Debug("skipping page entry", "source", source, "error", err)
				continue
			}
			listings = append(listings, l)
		}
		if len(listings) > 0 {
			return listings, nil
		}
	}

	return nil, ErrNoListings
}

// findResults walks decoded JSON depth-first, in sorted key order, for the
// first result array of objects.
func findResults(v any) []any {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if !resultKeys[k] {
				continue
			}
			if arr, ok := x[k].([]any); ok && len(arr) > 0 {
				if _, ok := arr[0].(map[string]any); ok {
					return arr
				}
			}
		}
		for _, k := range keys {
			if found := findResults(x[k]); found != nil {
				return found
			}
		}
	case []any:
		for _, item := range x {
			if found := findResults(item); found != nil {
				return found
			}
		}
	}
	return nil
}
