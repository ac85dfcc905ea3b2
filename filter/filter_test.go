package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/store"
)

func item(id string, published bool) *core.Item {
	return core.NewItem(&core.Document{ID: id, Published: published, Category: "study"})
}

func TestExcludeFilter(t *testing.T) {
	rctx := &core.RecommendContext{
		Source:     &core.Document{ID: "src"},
		ExcludeIDs: []string{"seen"},
	}
	tests := []struct {
		name string
		item *core.Item
		want bool
	}{
		{"source removed", item("src", true), true},
		{"history removed", item("seen", true), true},
		{"unpublished removed", item("draft", false), true},
		{"nil removed", nil, true},
		{"kept", item("ok", true), false},
	}
	f := &ExcludeFilter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(context.Background(), rctx, tt.item)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlocklistFilter(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	adapter := NewStoreAdapter(kv)
	if err := adapter.SetBlocklist(ctx, "blocked", []string{"b2"}); err != nil {
		t.Fatalf("SetBlocklist() error = %v", err)
	}

	tests := []struct {
		name   string
		filter *BlocklistFilter
		id     string
		want   bool
	}{
		{"memory list", NewBlocklistFilter([]string{"b1"}, nil, ""), "b1", true},
		{"store list", NewBlocklistFilter(nil, adapter, "blocked"), "b2", true},
		{"store key missing keeps item", NewBlocklistFilter(nil, adapter, "missing"), "b2", false},
		{"not blocked", NewBlocklistFilter([]string{"b1"}, adapter, "blocked"), "ok", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.ShouldFilter(ctx, nil, item(tt.id, true))
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestExprFilter(t *testing.T) {
	free := core.NewItem(&core.Document{ID: "f", IsFree: true, Published: true, Analysis: &core.Analysis{Language: "vi"}})
	paid := core.NewItem(&core.Document{ID: "p", Price: 9, Published: true})

	tests := []struct {
		name     string
		expr     string
		item     *core.Item
		filtered bool
	}{
		{"free kept", "item.doc.is_free", free, false},
		{"paid removed", "item.doc.is_free", paid, true},
		{"language", `item.doc.language == "vi"`, paid, true},
		{"empty expression keeps", "", paid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewExprFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewExprFilter() error = %v", err)
			}
			got, err := f.ShouldFilter(context.Background(), nil, tt.item)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.filtered {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.filtered)
			}
		})
	}

	if _, err := NewExprFilter("item.doc.is_free &&"); err == nil {
		t.Error("invalid expression should fail to compile")
	}
}

type failingFilter struct{ err error }

func (f failingFilter) Name() string { return "filter.failing" }
func (f failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, f.err
}

func TestFilterNode_Process(t *testing.T) {
	boom := errors.New("boom")
	rctx := &core.RecommendContext{ExcludeIDs: []string{"seen"}}

	lenient := &FilterNode{Filters: []Filter{failingFilter{boom}, &ExcludeFilter{}}}
	out, err := lenient.Process(context.Background(), rctx, []*core.Item{item("seen", true), item("ok", true), nil})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "ok" {
		t.Fatalf("out = %v, want [ok]", out)
	}

	strict := &FilterNode{Filters: []Filter{failingFilter{boom}}, Strict: true}
	if _, err := strict.Process(context.Background(), rctx, []*core.Item{item("ok", true)}); !errors.Is(err, boom) {
		t.Errorf("strict error = %v, want %v", err, boom)
	}
}
