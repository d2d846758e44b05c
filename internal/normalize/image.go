package normalize

import (
	"regexp"

	"presse/internal/model"
)

var imgSrcPattern = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)

// ImageURL derives a representative image for one raw item, trying the
// structured media attachment first, then the enclosure, then a best-effort
// scan of the HTML body. Returns "" when nothing matches. The URL is not
// fetched or validated here.
func ImageURL(item model.Item) string {
	if item.MediaURL != "" {
		return item.MediaURL
	}

	if item.EnclosureURL != "" {
		return item.EnclosureURL
	}

	for _, body := range []string{item.Content, item.Description} {
		if body == "" {
			continue
		}

		if match := imgSrcPattern.FindStringSubmatch(body); match != nil {
			return match[1]
		}
	}

	return ""
}
