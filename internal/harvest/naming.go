package harvest

import (
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"
)

// DefaultExtension is used when the image URL carries no usable extension.
const DefaultExtension = ".jpg"

// DefaultAllowExt lists the extensions kept verbatim in file names.
var DefaultAllowExt = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// RE2's \s is ASCII only; \v and \p{Z} add the vertical tab and the
// Unicode spaces (no-break, em, ideographic...).
var (
	reLabelStrip = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s\v\p{Z}-]`)
	reLabelSpace = regexp.MustCompile(`[\s\v\p{Z}]+`)
)

// SanitizeLabel turns free text into a file-system safe name: everything but
// letters, digits, underscores, hyphens and whitespace is dropped, and each
// whitespace run (Unicode spaces included) becomes a single underscore.
func SanitizeLabel(s string) string {
	s = reLabelStrip.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	return reLabelSpace.ReplaceAllString(s, "_")
}

// NormalizeExtList lower-cases the list and makes sure every entry has a
// leading dot. Empty entries are dropped.
func NormalizeExtList(list []string) []string {
	out := []string{}
	for _, ext := range list {
		ext = strings.ToLower(strings.TrimSpace(ext))
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" {
			out = append(out, "."+ext)
		}
	}

	return out
}

// InferExtension returns the lower-cased extension of the URL path when it is
// in allowed, DefaultExtension otherwise. Matching ignores case.
func InferExtension(rawURL string, allowed []string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	ext := strings.ToLower(path.Ext(p))
	if ext != "" && slices.Contains(allowed, ext) {
		return ext
	}

	return DefaultExtension
}

func resolve(pageURL, raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u == nil {
		return raw
	}

	if u.IsAbs() {
		return u.String()
	}

	base, err := url.Parse(pageURL)
	if err != nil || base == nil {
		return raw
	}

	return base.ResolveReference(u).String()
}
