package harvest

import (
	"fmt"
	"strings"
)

// DefaultPageSuffix is appended to the base URL for every page after the first.
const DefaultPageSuffix = "quran/page:%d"

type Page struct {
	Number int
	URL    string
}

// PageURL returns the listing URL for page n. Page 1 is base unchanged.
func PageURL(base, suffix string, n int) string {
	if n <= 1 {
		return base
	}
	if suffix == "" {
		suffix = DefaultPageSuffix
	}

	return strings.TrimSuffix(base, "/") + "/" + fmt.Sprintf(suffix, n)
}
