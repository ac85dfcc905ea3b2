package rank

import (
	"context"
	"testing"

	"github.com/rushteam/docrank/core"
)

func TestPopularityNode_Process(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  float64
	}{
		{"default score", 0, DefaultPopularityScore},
		{"configured score", 0.8, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := core.NewItems([]*core.Document{{ID: "a"}, {ID: "b"}})
			out, err := (&PopularityNode{Score: tt.score}).Process(context.Background(), nil, items)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if out[0].ID != "a" || out[1].ID != "b" {
				t.Errorf("order changed: [%s %s]", out[0].ID, out[1].ID)
			}
			for _, it := range out {
				if it.Score != tt.want {
					t.Errorf("score = %v, want %v", it.Score, tt.want)
				}
				if got := it.Reason(core.SimilarContent()); got != "popular document" {
					t.Errorf("reason = %q", got)
				}
			}
		})
	}
}
