package normalize

import (
	"fmt"
	"strings"
	"time"

	"presse/internal/model"

	"github.com/go-shiori/go-readability"
)

// ItemError is the rejection of a single raw item. It never aborts the rest
// of the batch the item came from.
type ItemError struct {
	Title string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("normalize item %q: %v", e.Title, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

const snippetLength = 300

// Normalizer turns raw feed items into Article candidates.
type Normalizer struct {
	defaultLanguage string
	defaultCreator  string
}

func New(defaultLanguage, defaultCreator string) *Normalizer {
	return &Normalizer{
		defaultLanguage: defaultLanguage,
		defaultCreator:  defaultCreator,
	}
}

// Candidate builds an Article candidate from one raw item and its owning
// source, or rejects the item. Rejections are per-item: whatever goes wrong
// here, including a panic in a parsing library, only this item is dropped.
func (n *Normalizer) Candidate(item model.Item, src model.Source) (article model.Article, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ItemError{Title: item.Title, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	if item.Link == "" {
		return model.Article{}, &ItemError{Title: item.Title, Err: fmt.Errorf("item has no link")}
	}

	publishedAt, dateErr := PublishedAt(item)

	if dateErr != nil {
		return model.Article{}, &ItemError{Title: item.Title, Err: dateErr}
	}

	content := item.Content

	if content == "" {
		content = item.Description
	}

	snippet := item.Description

	if snippet == "" && item.Content != "" {
		snippet = snippetFromHTML(item.Content)
	}

	creator := item.Creator

	if creator == "" {
		creator = n.defaultCreator
	}

	language := item.Language

	if language == "" {
		language = n.defaultLanguage
	}

	return model.Article{
		SourceID:      src.ID,
		Title:         item.Title,
		Link:          item.Link,
		Description:   truncate(snippet, snippetLength),
		Content:       content,
		Image:         ImageURL(item),
		Tags:          item.Categories,
		Language:      language,
		Creator:       creator,
		Categories:    src.Categories,
		SourceName:    src.Name,
		SourceFavicon: src.Favicon,
		Orientation:   src.Orientation,
		PublishedAt:   publishedAt,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// snippetFromHTML extracts readable text from an HTML fragment. Readability
// failures degrade to the raw fragment; the caller truncates either way.
func snippetFromHTML(html string) string {
	text, err := readability.FromReader(strings.NewReader(html), nil)

	if err != nil || text.TextContent == "" {
		return strings.Join(strings.Fields(html), " ")
	}

	return strings.Join(strings.Fields(text.TextContent), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)

	if len(runes) <= n {
		return s
	}

	return string(runes[:n-3]) + "..."
}
