package storage

import (
	"database/sql"
	"testing"

	"presse/internal/model"
)

func TestCollapseByLinkLastWins(t *testing.T) {
	in := []model.Article{
		{Link: "https://x/1", Title: "A"},
		{Link: "https://x/2", Title: "B"},
		{Link: "https://x/1", Title: "C"},
	}

	out := collapseByLink(in)

	if len(out) != 2 {
		t.Fatalf("got %d articles, want 2", len(out))
	}
	if out[0].Link != "https://x/1" || out[0].Title != "C" {
		t.Errorf("first slot = %+v, want the later candidate for the shared link", out[0])
	}
	if out[1].Link != "https://x/2" {
		t.Errorf("order of first appearance not kept: %+v", out[1])
	}
}

func TestCollapseByLinkNoDuplicates(t *testing.T) {
	in := []model.Article{
		{Link: "https://x/1"},
		{Link: "https://x/2"},
	}

	out := collapseByLink(in)

	if len(out) != len(in) {
		t.Errorf("got %d articles, want %d", len(out), len(in))
	}
}

func TestNullable(t *testing.T) {
	if v := nullable(""); v.Valid {
		t.Error("empty string must map to NULL")
	}
	if v := nullable("x"); !v.Valid || v.String != "x" {
		t.Errorf("got %+v", v)
	}
}

func TestArticleArgsOptionalFieldsMapToNull(t *testing.T) {
	args := articleArgs(model.Article{
		SourceID: 1,
		Title:    "t",
		Link:     "https://x/1",
	})

	if len(args) != 15 {
		t.Fatalf("got %d args, want 15 per row", len(args))
	}

	// description, content, image, source_favicon in articleColumns order
	for _, i := range []int{3, 4, 5, 11} {
		v, ok := args[i].(sql.NullString)
		if !ok {
			t.Errorf("arg %d is %T, want sql.NullString", i, args[i])
			continue
		}
		if v.Valid {
			t.Errorf("arg %d should be NULL when the field is empty", i)
		}
	}
}

func TestArticleArgsKeepsValues(t *testing.T) {
	args := articleArgs(model.Article{
		Description:   "d",
		Content:       "c",
		Image:         "i",
		SourceFavicon: "f",
	})

	want := map[int]string{3: "d", 4: "c", 5: "i", 11: "f"}

	for i, s := range want {
		v, ok := args[i].(sql.NullString)
		if !ok || !v.Valid || v.String != s {
			t.Errorf("arg %d = %+v, want valid %q", i, args[i], s)
		}
	}
}
