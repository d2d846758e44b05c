package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"presse/internal/model"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
)

const acceptHeader = "application/rss+xml, application/atom+xml, application/xml, text/xml, */*"

const userAgent = "presse/1.0 (+https://github.com/presse)"

// FetchError covers network failures, timeouts and non-2xx responses.
// Status is zero when the request never produced a response.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}

	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError means the body was retrieved but is not a usable feed.
// ContentType carries what the server claimed to be serving.
type ParseError struct {
	URL         string
	ContentType string
	Err         error
}

func (e *ParseError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("parse %s (content-type %q): %v", e.URL, e.ContentType, e.Err)
	}

	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Client fetches and parses one remote feed per call. A single attempt is
// made per call; retrying is left to the next scheduled cycle.
type Client struct {
	http   *http.Client
	parser *gofeed.Parser
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		http:   &http.Client{Timeout: timeout},
		parser: gofeed.NewParser(),
	}
}

func (c *Client) Fetch(ctx context.Context, feedURL string) (model.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)

	if err != nil {
		return model.Feed{}, &FetchError{URL: feedURL, Err: err}
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)

	if err != nil {
		return model.Feed{}, &FetchError{URL: feedURL, Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Feed{}, &FetchError{URL: feedURL, Status: resp.StatusCode}
	}

	parsed, err := c.parser.Parse(resp.Body)

	if err != nil {
		return model.Feed{}, &ParseError{URL: feedURL, ContentType: resp.Header.Get("Content-Type"), Err: err}
	}

	return model.Feed{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Items: lo.Map(parsed.Items, func(item *gofeed.Item, _ int) model.Item {
			out := itemFromFeed(item)
			out.Language = parsed.Language
			return out
		}),
	}, nil
}

// itemFromFeed flattens gofeed's loosely shaped item into explicit
// optional fields. Everything absent stays the zero value.
func itemFromFeed(item *gofeed.Item) model.Item {
	out := model.Item{
		Title:       item.Title,
		Link:        item.Link,
		DisplayDate: item.Published,
		Content:     item.Content,
		Description: item.Description,
		Categories:  item.Categories,
	}

	if item.PublishedParsed != nil {
		out.StructuredDate = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		out.StructuredDate = item.UpdatedParsed
	}

	if dc := item.DublinCoreExt; dc != nil {
		if len(dc.Date) > 0 {
			out.DublinCoreDate = dc.Date[0]
		}

		if out.Creator == "" && len(dc.Creator) > 0 {
			out.Creator = dc.Creator[0]
		}
	}

	if out.Creator == "" && item.Author != nil {
		out.Creator = item.Author.Name
	}

	if media, ok := item.Extensions["media"]; ok {
		if contents, ok := media["content"]; ok && len(contents) > 0 {
			out.MediaURL = contents[0].Attrs["url"]
		}

		if out.MediaURL == "" {
			if thumbs, ok := media["thumbnail"]; ok && len(thumbs) > 0 {
				out.MediaURL = thumbs[0].Attrs["url"]
			}
		}
	}

	if len(item.Enclosures) > 0 {
		out.EnclosureURL = item.Enclosures[0].URL
	}

	return out
}
