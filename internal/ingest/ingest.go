package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"presse/internal/model"
	"presse/internal/normalize"
)

type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) (model.Feed, error)
}

type SourceRegistry interface {
	Sources(ctx context.Context) ([]model.Source, error)
	UpdateHealth(ctx context.Context, id int64, status model.FetchStatus) error
}

type ArticleStore interface {
	Exists(ctx context.Context, title string, sourceID int64) (bool, error)
	UpsertBatch(ctx context.Context, articles []model.Article) (model.UpsertResult, error)
}

// Service drives one fetch-normalize-persist cycle per source. Sources are
// visited strictly one after another; only the items inside one source are
// normalized concurrently.
type Service struct {
	fetcher    Fetcher
	sources    SourceRegistry
	articles   ArticleStore
	normalizer *normalize.Normalizer
}

func New(fetcher Fetcher, sources SourceRegistry, articles ArticleStore, normalizer *normalize.Normalizer) *Service {
	return &Service{
		fetcher:    fetcher,
		sources:    sources,
		articles:   articles,
		normalizer: normalizer,
	}
}

// IngestAll runs one full cycle over every configured source. It never
// returns an error: a failure to enumerate the sources is captured in the
// summary, and any single source's failure is isolated to that source.
func (s *Service) IngestAll(ctx context.Context) model.CycleSummary {
	sources, err := s.sources.Sources(ctx)

	if err != nil {
		log.Printf("ERROR: list sources: %v", err)

		return model.CycleSummary{
			Success: false,
			Message: fmt.Sprintf("list sources: %v", err),
		}
	}

	total := 0

	for _, src := range sources {
		added, err := s.IngestSource(ctx, src)

		if err != nil {
			log.Printf("ERROR: ingest source %q: %v", src.Name, err)
			continue
		}

		total += added
	}

	return model.CycleSummary{
		Success:       true,
		Message:       fmt.Sprintf("%d articles récupérés sur %d sources", total, len(sources)),
		TotalSources:  len(sources),
		TotalArticles: total,
	}
}

// IngestSource runs the pipeline for exactly one source and records the
// outcome on the source's health fields whatever happens. The returned error
// is the source-level failure (fetch, parse or persistence); single-item
// normalization failures never surface here.
func (s *Service) IngestSource(ctx context.Context, src model.Source) (int, error) {
	added, err := s.ingest(ctx, src)

	status := model.FetchStatus{
		Success:   err == nil,
		Timestamp: time.Now().UTC(),
	}

	if err != nil {
		status.Message = err.Error()
	} else {
		status.Message = fmt.Sprintf("%d articles récupérés", added)
	}

	if healthErr := s.sources.UpdateHealth(ctx, src.ID, status); healthErr != nil {
		log.Printf("ERROR: update health of source %q: %v", src.Name, healthErr)
	}

	return added, err
}

func (s *Service) ingest(ctx context.Context, src model.Source) (int, error) {
	feed, err := s.fetcher.Fetch(ctx, src.FeedURL)

	if err != nil {
		return 0, err
	}

	candidates := collapseByLink(s.normalizeAll(feed.Items, src))

	fresh := make([]model.Article, 0, len(candidates))

	for _, candidate := range candidates {
		duplicate, err := s.articles.Exists(ctx, candidate.Title, candidate.SourceID)

		if err != nil {
			return 0, err
		}

		if duplicate {
			continue
		}

		fresh = append(fresh, candidate)
	}

	if len(fresh) == 0 {
		return 0, nil
	}

	if _, err := s.articles.UpsertBatch(ctx, fresh); err != nil {
		return 0, err
	}

	return len(fresh), nil
}

// normalizeAll fans out the items of one feed and waits for the group. A
// rejected item is logged and dropped; the rest of the batch is unaffected.
func (s *Service) normalizeAll(items []model.Item, src model.Source) []model.Article {
	results := make([]model.Article, len(items))
	kept := make([]bool, len(items))

	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)

		go func(i int, item model.Item) {
			defer wg.Done()

			article, err := s.normalizer.Candidate(item, src)

			if err != nil {
				log.Printf("WARN: drop item %q from %q: %v", item.Title, src.Name, err)
				return
			}

			results[i] = article
			kept[i] = true
		}(i, item)
	}

	wg.Wait()

	candidates := make([]model.Article, 0, len(items))

	for i := range results {
		if kept[i] {
			candidates = append(candidates, results[i])
		}
	}

	return candidates
}

// collapseByLink keeps the last candidate per link, so the added-count
// reported for a source matches what the upsert-by-link can actually
// persist. Two items sharing a link overwrite each other anyway.
func collapseByLink(candidates []model.Article) []model.Article {
	seen := make(map[string]int, len(candidates))
	out := make([]model.Article, 0, len(candidates))

	for _, candidate := range candidates {
		if i, ok := seen[candidate.Link]; ok {
			out[i] = candidate
			continue
		}

		seen[candidate.Link] = len(out)
		out = append(out, candidate)
	}

	return out
}

// ReportHealth logs a read-only summary of source health. It writes nothing.
func (s *Service) ReportHealth(ctx context.Context) error {
	sources, err := s.sources.Sources(ctx)

	if err != nil {
		return err
	}

	var healthy, failing, neverFetched int

	for _, src := range sources {
		switch {
		case src.LastFetchedAt == nil:
			neverFetched++
		case src.FetchStatus.Success:
			healthy++
		default:
			failing++
			log.Printf("source %q failing: %s", src.Name, src.FetchStatus.Message)
		}
	}

	log.Printf("source health: %d healthy, %d failing, %d never fetched (of %d)",
		healthy, failing, neverFetched, len(sources))

	return nil
}
