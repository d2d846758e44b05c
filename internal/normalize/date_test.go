package normalize

import (
	"errors"
	"testing"
	"time"

	"presse/internal/model"
)

func TestPublishedAtPrefersStructuredDate(t *testing.T) {
	structured := time.Date(2023, 5, 10, 8, 30, 0, 0, time.UTC)

	item := model.Item{
		StructuredDate: &structured,
		DisplayDate:    "not a date at all",
	}

	got, err := PublishedAt(item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(structured) {
		t.Errorf("got %v, want %v", got, structured)
	}
}

func TestPublishedAtDublinCoreFallback(t *testing.T) {
	item := model.Item{
		DublinCoreDate: "2023-05-10T08:30:00Z",
		DisplayDate:    "garbage",
	}

	got, err := PublishedAt(item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2023, 5, 10, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPublishedAtDisplayDateWithTimezoneAbbreviation(t *testing.T) {
	tests := []struct {
		name    string
		display string
		want    time.Time
	}{
		{
			name:    "EST rewritten to fixed offset",
			display: "Mon, 02 Jan 2023 10:00:00 EST",
			want:    time.Date(2023, 1, 2, 15, 0, 0, 0, time.UTC),
		},
		{
			name:    "GMT rewritten to zero offset",
			display: "Mon, 02 Jan 2023 10:00:00 GMT",
			want:    time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC),
		},
		{
			name:    "CEST rewritten to +0200",
			display: "Tue, 15 Aug 2023 12:00:00 CEST",
			want:    time.Date(2023, 8, 15, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PublishedAt(model.Item{DisplayDate: tt.display})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.UTC().Equal(tt.want) {
				t.Errorf("got %v, want %v", got.UTC(), tt.want)
			}
		})
	}
}

func TestPublishedAtRejectsWhenNothingParses(t *testing.T) {
	tests := []struct {
		name string
		item model.Item
	}{
		{name: "no date fields", item: model.Item{Title: "x"}},
		{name: "malformed display date only", item: model.Item{DisplayDate: "gibberish"}},
		{name: "malformed dublin core only", item: model.Item{DublinCoreDate: "???"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PublishedAt(tt.item)
			if !errors.Is(err, ErrNoDate) {
				t.Errorf("got %v, want ErrNoDate", err)
			}
		})
	}
}

func TestPublishedAtOrNowNeverFails(t *testing.T) {
	before := time.Now()
	got := PublishedAtOrNow(model.Item{DisplayDate: "gibberish"})
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("expected a current timestamp, got %v", got)
	}
}
