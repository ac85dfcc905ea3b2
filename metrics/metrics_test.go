package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/pipeline"
)

type stubNode struct{}

func (stubNode) Name() string        { return "stub" }
func (stubNode) Kind() pipeline.Kind { return pipeline.KindRank }
func (stubNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return items, nil
}

func TestRecordRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"ok", nil, "ok"},
		{"error", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Recommendations.WithLabelValues("test", tt.outcome)
			before := testutil.ToFloat64(c)
			RecordRecommendation("test", tt.err)
			if got := testutil.ToFloat64(c); got != before+1 {
				t.Errorf("counter = %v, want %v", got, before+1)
			}
		})
	}
}

func TestObserveNode(t *testing.T) {
	errs := NodeErrors.WithLabelValues("metrics-test", "stub")
	before := testutil.ToFloat64(errs)

	ObserveNode("metrics-test", stubNode{}, time.Millisecond, 3, nil)
	ObserveNode("metrics-test", stubNode{}, time.Millisecond, 0, errors.New("boom"))

	if got := testutil.ToFloat64(errs); got != before+1 {
		t.Errorf("node errors = %v, want %v", got, before+1)
	}
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("catalog-test", 2)
	if got := testutil.ToFloat64(BreakerState.WithLabelValues("catalog-test")); got != 2 {
		t.Errorf("breaker state = %v, want 2", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}
