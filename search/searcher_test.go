package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/store"
)

func newCatalog(t *testing.T, docs ...*core.Document) *store.DocumentCatalog {
	t.Helper()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })
	c := store.NewDocumentCatalog(kv, "search")
	if err := c.Put(context.Background(), docs...); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	return c
}

func TestSearcher_Search(t *testing.T) {
	catalog := newCatalog(t,
		&core.Document{ID: "a", Title: "Bản tin", Description: "canada news", Category: "news", Published: true},
		&core.Document{ID: "b", Title: "Hướng dẫn Canada", Category: "study", Published: true,
			Analysis: &core.Analysis{Keywords: []string{"canada", "visa"}}},
		&core.Document{ID: "c", Title: "Canada draft", Category: "study", Published: false},
		&core.Document{ID: "d", Title: "Germany", Category: "study", Published: true},
	)
	s := New(catalog, DefaultConfig())

	res, err := s.Search(context.Background(), Query{Text: "  canada  "})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Query != "canada" {
		t.Errorf("Query = %q", res.Query)
	}
	if len(res.Hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(res.Hits))
	}
	if res.Hits[0].Doc.ID != "b" || res.Hits[0].RelevanceScore != 18 {
		t.Errorf("top hit = %s (%d), want b (18)", res.Hits[0].Doc.ID, res.Hits[0].RelevanceScore)
	}
	if res.Hits[1].Doc.ID != "a" || res.Hits[1].RelevanceScore != 5 {
		t.Errorf("second hit = %s (%d), want a (5)", res.Hits[1].Doc.ID, res.Hits[1].RelevanceScore)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0] != "canada" {
		t.Errorf("suggestions = %v", res.Suggestions)
	}
	want := Pagination{Page: 1, Limit: 10, Total: 2, Pages: 1}
	if res.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", res.Pagination, want)
	}

	byCategory, err := s.Search(context.Background(), Query{Text: "canada", Category: "study"})
	if err != nil {
		t.Fatalf("Search(category) error = %v", err)
	}
	if len(byCategory.Hits) != 1 || byCategory.Hits[0].Doc.ID != "b" {
		t.Errorf("category hits = %+v", byCategory.Hits)
	}

	all, err := s.Search(context.Background(), Query{Text: "canada", Category: AllCategories})
	if err != nil || len(all.Hits) != 2 {
		t.Errorf("category all = %v, %v", all, err)
	}
}

func TestSearcher_Pagination(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var docs []*core.Document
	for i := 0; i < 25; i++ {
		docs = append(docs, &core.Document{
			ID:        fmt.Sprintf("d%02d", i),
			Title:     fmt.Sprintf("Visa guide %02d", i),
			Published: true,
			CreatedAt: t0,
		})
	}
	s := New(newCatalog(t, docs...), DefaultConfig())

	tests := []struct {
		name      string
		page      int
		limit     int
		wantHits  int
		wantPages int
		firstID   string
	}{
		{"first page", 1, 10, 10, 3, "d00"},
		{"last page", 3, 10, 5, 3, "d20"},
		{"past end", 4, 10, 0, 3, ""},
		{"page zero defaults", 0, 0, 10, 3, "d00"},
		{"single page", 1, 100, 25, 1, "d00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Search(context.Background(), Query{Text: "visa", Page: tt.page, Limit: tt.limit})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(res.Hits) != tt.wantHits {
				t.Errorf("hits = %d, want %d", len(res.Hits), tt.wantHits)
			}
			if res.Pagination.Pages != tt.wantPages || res.Pagination.Total != 25 {
				t.Errorf("pagination = %+v", res.Pagination)
			}
			if tt.firstID != "" && res.Hits[0].Doc.ID != tt.firstID {
				t.Errorf("first = %s, want %s", res.Hits[0].Doc.ID, tt.firstID)
			}
		})
	}
}

func TestSearcher_SuggestionsCapped(t *testing.T) {
	var docs []*core.Document
	for i := 0; i < 4; i++ {
		docs = append(docs, &core.Document{
			ID:        fmt.Sprintf("d%d", i),
			Title:     fmt.Sprintf("Visa %d", i),
			Published: true,
			Analysis:  &core.Analysis{Keywords: []string{"visa", "student visa", "canada"}},
		})
	}
	s := New(newCatalog(t, docs...), DefaultConfig())
	res, err := s.Search(context.Background(), Query{Text: "visa"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Suggestions) != 5 {
		t.Errorf("suggestions = %v, want 5 entries", res.Suggestions)
	}
}

func TestSearcher_InvalidInput(t *testing.T) {
	s := New(newCatalog(t), DefaultConfig())
	tests := []struct {
		name  string
		query Query
	}{
		{"short query", Query{Text: " a "}},
		{"empty query", Query{Text: ""}},
		{"negative page", Query{Text: "visa", Page: -1}},
		{"negative limit", Query{Text: "visa", Limit: -1}},
		{"limit over max", Query{Text: "visa", Limit: 101}},
		{"page offset overflows", Query{Text: "visa", Page: math.MaxInt/2 + 2, Limit: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Search(context.Background(), tt.query); !core.IsInvalidInput(err) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

type brokenCatalog struct{ err error }

func (c brokenCatalog) FindByID(context.Context, string) (*core.Document, error) { return nil, c.err }
func (c brokenCatalog) FindMany(context.Context, core.CatalogFilter, int) ([]*core.Document, error) {
	return nil, c.err
}
func (c brokenCatalog) Count(context.Context, core.CatalogFilter) (int, error) { return 0, c.err }

func TestSearcher_CatalogError(t *testing.T) {
	down := core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "down")
	s := New(brokenCatalog{err: down}, DefaultConfig())
	_, err := s.Search(context.Background(), Query{Text: "visa"})
	if !errors.Is(err, down) || !core.IsUnavailable(err) {
		t.Errorf("error = %v, want wrapped UNAVAILABLE", err)
	}
}
