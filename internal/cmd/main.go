package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"presse/internal/config"
	"presse/internal/ingest"
	"presse/internal/model"
	"presse/internal/normalize"
	"presse/internal/scheduler"
	"presse/internal/source"
	"presse/internal/storage"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	var (
		once       = flag.Bool("once", false, "run a single ingestion cycle and exit")
		health     = flag.Bool("health", false, "print the source health report and exit")
		previewURL = flag.String("preview", "", "preview a candidate feed URL and exit")
		articlesOf = flag.Int64("articles", 0, "print the recent articles of one source id and exit")
	)

	flag.Parse()

	cfg := config.Get()

	if *previewURL != "" {
		if err := runPreview(cfg, *previewURL); err != nil {
			log.Printf("ERROR: %v", err)
			os.Exit(1)
		}

		return
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
	if err != nil {
		log.Printf("ERROR: failed to connect to db %v", err)
		return
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := storage.Ensure(ctx, db); err != nil {
		log.Printf("ERROR: failed to ensure schema: %v", err)
		return
	}

	var (
		articleStorage = storage.NewArticleStorage(db)
		sourceStorage  = storage.NewSourceStorage(db)
		feedClient     = source.NewClient(cfg.FetchTimeout)
		normalizer     = normalize.New(cfg.DefaultLanguage, cfg.DefaultCreator)
		service        = ingest.New(feedClient, sourceStorage, articleStorage, normalizer)
	)

	if *health {
		if err := service.ReportHealth(ctx); err != nil {
			log.Printf("ERROR: %v", err)
			os.Exit(1)
		}

		return
	}

	if *articlesOf != 0 {
		if err := printArticles(ctx, os.Stdout, articleStorage, *articlesOf); err != nil {
			log.Printf("ERROR: %v", err)
			os.Exit(1)
		}

		return
	}

	if *once {
		summary := service.IngestAll(ctx)
		log.Printf("cycle: %s", summary.Message)

		if !summary.Success {
			os.Exit(1)
		}

		return
	}

	sched := scheduler.New(service, cfg.FetchInterval)

	if err := sched.Run(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Println("ERROR: failed to run scheduler")
			return
		}

		log.Println("Scheduler has stopped")
	}
}

type articleLister interface {
	BySource(ctx context.Context, sourceID int64, limit uint64) ([]model.Article, error)
}

const recentArticleLimit = 10

func printArticles(ctx context.Context, w io.Writer, store articleLister, sourceID int64) error {
	articles, err := store.BySource(ctx, sourceID, recentArticleLimit)

	if err != nil {
		return err
	}

	if len(articles) == 0 {
		fmt.Fprintf(w, "No articles for source %d\n", sourceID)
		return nil
	}

	for i, article := range articles {
		fmt.Fprintf(w, "%d. [%s] %s\n   %s\n",
			i+1,
			article.PublishedAt.Format("2006-01-02"),
			article.Title,
			article.Link,
		)
	}

	return nil
}

func runPreview(cfg config.Config, feedURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.FetchTimeout)
	defer cancel()

	preview, err := source.NewClient(cfg.FetchTimeout).Preview(ctx, feedURL)

	if err != nil {
		return err
	}

	fmt.Printf("%s — %s\n%s\n%d items, showing %d:\n",
		preview.Title, preview.Link, preview.Description, preview.TotalItems, len(preview.SampleItems))

	for _, item := range preview.SampleItems {
		fmt.Printf("  [%s] %s\n      %s\n",
			normalize.PublishedAtOrNow(item).Format(time.RFC3339), item.Title, item.Link)
	}

	return nil
}
