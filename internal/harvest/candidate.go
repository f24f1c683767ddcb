package harvest

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultPathPrefix marks portrait images on the listing pages.
const DefaultPathPrefix = "/media/person/"

// Candidate is a portrait <img> found on a listing page.
type Candidate struct {
	Page   int
	Index  int // 1-based position on the page
	Source string
	Alt    string
}

// ExtractCandidates returns, in document order, the img tags whose src starts
// with prefix.
func ExtractCandidates(doc *goquery.Document, prefix string, page int) []Candidate {
	var out []Candidate

	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if src == "" || !strings.HasPrefix(src, prefix) {
			return
		}

		alt, _ := img.Attr("alt")
		out = append(out, Candidate{
			Page:   page,
			Index:  len(out) + 1,
			Source: src,
			Alt:    alt,
		})
	})

	return out
}

func (c Candidate) fallbackLabel() string {
	return fmt.Sprintf("reciter_%d_%d", c.Page, c.Index)
}

// Label is the sanitized alt text, or reciter_<page>_<index> when nothing
// usable is left.
func (c Candidate) Label() string {
	if l := SanitizeLabel(c.Alt); l != "" {
		return l
	}

	return c.fallbackLabel()
}

// Filename joins the label with the extension inferred from imageURL.
func (c Candidate) Filename(imageURL string, allowed []string) string {
	return c.Label() + InferExtension(imageURL, allowed)
}
