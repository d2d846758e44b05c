package normalize

import (
	"errors"
	"strings"
	"time"

	"presse/internal/model"

	"github.com/araddon/dateparse"
)

// ErrNoDate means no field of the item yielded a valid publication instant.
var ErrNoDate = errors.New("no usable publication date")

// Textual timezone abbreviations are rewritten to fixed UTC offsets before
// parsing, since date parsers cannot resolve them unambiguously.
var tzOffsets = map[string]string{
	"UT":   "+0000",
	"GMT":  "+0000",
	"EST":  "-0500",
	"EDT":  "-0400",
	"CST":  "-0600",
	"CDT":  "-0500",
	"MST":  "-0700",
	"MDT":  "-0600",
	"PST":  "-0800",
	"PDT":  "-0700",
	"CET":  "+0100",
	"CEST": "+0200",
}

// PublishedAt resolves the publication instant of one raw item. Resolution
// order: the parser's structured date, then the Dublin Core date, then the
// display date string after timezone-abbreviation substitution. When none of
// them parse to a valid instant, ErrNoDate is returned; the caller decides
// whether that rejects the item.
func PublishedAt(item model.Item) (time.Time, error) {
	if item.StructuredDate != nil && !item.StructuredDate.IsZero() {
		return *item.StructuredDate, nil
	}

	if item.DublinCoreDate != "" {
		if t, err := dateparse.ParseAny(item.DublinCoreDate); err == nil && !t.IsZero() {
			return t, nil
		}
	}

	if item.DisplayDate != "" {
		if t, err := dateparse.ParseAny(substituteTimezone(item.DisplayDate)); err == nil && !t.IsZero() {
			return t, nil
		}
	}

	return time.Time{}, ErrNoDate
}

// PublishedAtOrNow is the lenient variant used only by non-persisting paths
// such as the feed preview. The ingestion path must never fabricate a
// timestamp, so it calls PublishedAt instead.
func PublishedAtOrNow(item model.Item) time.Time {
	t, err := PublishedAt(item)

	if err != nil {
		return time.Now()
	}

	return t
}

func substituteTimezone(raw string) string {
	fields := strings.Fields(raw)

	for i, field := range fields {
		if offset, ok := tzOffsets[field]; ok {
			fields[i] = offset
		}
	}

	return strings.Join(fields, " ")
}
