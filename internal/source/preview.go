package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"presse/internal/model"
)

// FeedPreview is a non-persisting snapshot of a candidate feed, used when
// onboarding a new source.
type FeedPreview struct {
	Title       string
	Description string
	Link        string
	SampleItems []model.Item
	TotalItems  int
}

const sampleItemCount = 5

// Preview fetches a candidate feed once and returns a small sample of its
// items. Nothing is written anywhere. Transport errors are translated into
// messages fit for an operator instead of raw client internals.
func (c *Client) Preview(ctx context.Context, feedURL string) (*FeedPreview, error) {
	feed, err := c.Fetch(ctx, feedURL)

	if err != nil {
		return nil, previewError(err)
	}

	sample := feed.Items

	if len(sample) > sampleItemCount {
		sample = sample[:sampleItemCount]
	}

	return &FeedPreview{
		Title:       feed.Title,
		Description: feed.Description,
		Link:        feed.Link,
		SampleItems: sample,
		TotalItems:  len(feed.Items),
	}, nil
}

func previewError(err error) error {
	var fetchErr *FetchError

	if errors.As(err, &fetchErr) {
		switch fetchErr.Status {
		case http.StatusNotFound:
			return fmt.Errorf("no feed exists at this address (404)")
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("the feed refused access (%d)", fetchErr.Status)
		case 0:
			return fmt.Errorf("the address could not be reached")
		default:
			return fmt.Errorf("the feed could not be retrieved (status %d)", fetchErr.Status)
		}
	}

	var parseErr *ParseError

	if errors.As(err, &parseErr) {
		if parseErr.ContentType != "" && !feedContentType(parseErr.ContentType) {
			return fmt.Errorf("the address serves %s, not a feed document (wrong content type)", parseErr.ContentType)
		}

		return fmt.Errorf("the address did not return a valid RSS or Atom feed")
	}

	return err
}

func feedContentType(contentType string) bool {
	for _, marker := range []string{"xml", "rss", "atom"} {
		if strings.Contains(contentType, marker) {
			return true
		}
	}

	return false
}
