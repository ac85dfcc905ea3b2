package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/docrank/core"
)

func newTestCatalog(t *testing.T) *DocumentCatalog {
	t.Helper()
	s := NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewDocumentCatalog(s, "test")
	err := c.Put(context.Background(),
		&core.Document{ID: "d1", Title: "Canada study permit", Category: "study", Tags: []string{"visa"}, Published: true, DownloadCount: 3, CreatedAt: t0},
		&core.Document{ID: "d2", Title: "Work in Germany", Category: "work", Published: true, DownloadCount: 9, CreatedAt: t0.Add(time.Hour)},
		&core.Document{ID: "d3", Title: "Draft", Category: "study", Published: false, CreatedAt: t0.Add(2 * time.Hour)},
	)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	return c
}

func TestDocumentCatalog_FindByID(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	doc, err := c.FindByID(ctx, "d1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if doc.Title != "Canada study permit" || doc.Tags[0] != "visa" {
		t.Errorf("doc = %+v", doc)
	}

	_, err = c.FindByID(ctx, "nope")
	if !core.IsNotFound(err) {
		t.Fatalf("FindByID(nope) error = %v, want NOT_FOUND", err)
	}
	if de := core.GetDomainError(err); de.Module != core.ModuleCatalog {
		t.Errorf("module = %s, want catalog", de.Module)
	}
}

func TestDocumentCatalog_FindMany(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter core.CatalogFilter
		limit  int
		want   []string
	}{
		{"created desc", core.CatalogFilter{}, 0, []string{"d3", "d2", "d1"}},
		{"published only", core.CatalogFilter{PublishedOnly: true}, 0, []string{"d2", "d1"}},
		{"popularity", core.CatalogFilter{PublishedOnly: true, Order: core.SortPopularity}, 1, []string{"d2"}},
		{"title asc", core.CatalogFilter{Order: core.SortTitleAsc}, 0, []string{"d1", "d3", "d2"}},
		{"ids", core.CatalogFilter{IDs: []string{"d1", "d3"}}, 0, []string{"d3", "d1"}},
		{"ids skip missing and repeats", core.CatalogFilter{IDs: []string{"d2", "nope", "d2"}}, 0, []string{"d2"}},
		{"text", core.CatalogFilter{Text: "germany"}, 0, []string{"d2"}},
		{"offset", core.CatalogFilter{Offset: 1}, 1, []string{"d2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := c.FindMany(ctx, tt.filter, tt.limit)
			if err != nil {
				t.Fatalf("FindMany() error = %v", err)
			}
			if len(docs) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(docs), len(tt.want))
			}
			for i, d := range docs {
				if d.ID != tt.want[i] {
					t.Errorf("docs[%d] = %s, want %s", i, d.ID, tt.want[i])
				}
			}
		})
	}

	n, err := c.Count(ctx, core.CatalogFilter{Category: "study"})
	if err != nil || n != 2 {
		t.Errorf("Count() = %d, %v; want 2", n, err)
	}
}

// scanFailStore 模拟整表读取不可用的后端。
type scanFailStore struct{ *MemoryStore }

func (s scanFailStore) HGetAll(context.Context, string) (map[string][]byte, error) {
	return nil, errors.New("scan disabled")
}

func TestDocumentCatalog_FindManyByIDsSkipsScan(t *testing.T) {
	mem := NewMemoryStore()
	t.Cleanup(func() { _ = mem.Close() })
	c := NewDocumentCatalog(scanFailStore{mem}, "test")
	ctx := context.Background()
	if err := c.Put(ctx, &core.Document{ID: "a", Published: true}, &core.Document{ID: "b"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	docs, err := c.FindMany(ctx, core.CatalogFilter{IDs: []string{"a", "b"}, PublishedOnly: true}, 0)
	if err != nil {
		t.Fatalf("FindMany(ids) error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "a" {
		t.Errorf("docs = %+v, want [a]", docs)
	}
	if _, err := c.FindMany(ctx, core.CatalogFilter{}, 0); err == nil {
		t.Error("FindMany() without ids should use the full scan")
	}
}

func TestDocumentCatalog_PutRequiresID(t *testing.T) {
	c := newTestCatalog(t)
	if err := c.Put(context.Background(), &core.Document{Title: "x"}); !core.IsInvalidInput(err) {
		t.Errorf("Put() error = %v, want INVALID_INPUT", err)
	}
}

func TestEventHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()
	h := NewEventHistory(s, "test")

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "a", "c"} {
		ev := core.InteractionEvent{UserID: "u1", ItemID: id, Timestamp: t0.Add(time.Duration(i) * time.Minute)}
		if err := h.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	events, err := h.RecentForUser(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("RecentForUser() error = %v", err)
	}
	var got []string
	for _, ev := range events {
		got = append(got, ev.ItemID)
	}
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	if !events[0].Timestamp.Equal(t0.Add(3 * time.Minute)) {
		t.Errorf("timestamp = %v", events[0].Timestamp)
	}

	none, err := h.RecentForUser(ctx, "nobody", 5)
	if err != nil || len(none) != 0 {
		t.Errorf("unknown user = %v, %v", none, err)
	}
	if _, err := h.RecentForUser(ctx, "", 5); !core.IsInvalidInput(err) {
		t.Errorf("empty user error = %v", err)
	}
}
