package model

import (
	"time"
)

// FetchStatus is the outcome of the most recent fetch attempt for a source.
type FetchStatus struct {
	Success   bool
	Message   string
	Timestamp time.Time
}

type Source struct {
	ID            int64
	Name          string
	FeedURL       string
	Favicon       string
	Orientation   []string
	Categories    []string
	LastFetchedAt *time.Time // nil until the first fetch attempt
	FetchStatus   FetchStatus
	CreatedAt     time.Time
}

// Item is one raw feed entry with every optional field made explicit.
// Absence is the zero value; nothing is read back out of a loose key map.
type Item struct {
	Title          string
	Link           string
	StructuredDate *time.Time // parser-resolved publication instant
	DublinCoreDate string     // dc:date, unparsed
	DisplayDate    string     // pubDate display string, unparsed
	MediaURL       string     // media:content url attribute
	EnclosureURL   string
	Content        string // content:encoded, richer than Description
	Description    string
	Creator        string
	Categories     []string
	Language       string // feed-level language, when the feed declares one
}

// Feed is the parsed representation of one remote feed document.
type Feed struct {
	Title       string
	Link        string
	Description string
	Items       []Item
}

type Article struct {
	ID            int64
	SourceID      int64
	Title         string
	Link          string
	Description   string // short snippet
	Content       string
	Image         string // empty when no image could be extracted
	Tags          []string
	Language      string
	Creator       string
	Categories    []string // copied from the source at ingestion time
	SourceName    string
	SourceFavicon string
	Orientation   []string
	PublishedAt   time.Time
	CreatedAt     time.Time
}

// UpsertResult reports what a bulk write physically did.
type UpsertResult struct {
	Inserted int64
	Modified int64
}

// CycleSummary aggregates one full pass over all configured sources.
// It is never persisted.
type CycleSummary struct {
	Success       bool
	Message       string
	TotalSources  int
	TotalArticles int
}
