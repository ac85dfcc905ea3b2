package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rushteam/docrank/core"
)

// EventHistory 是基于 KeyValueStore 有序集合的 History 实现。
// 每个用户一个时间线 {prefix}:history:{userID}，score 为毫秒时间戳，
// member 为 "{unixNano}:{itemID}"，允许同一文档被多次消费。
type EventHistory struct {
	kv     core.KeyValueStore
	prefix string
}

func NewEventHistory(kv core.KeyValueStore, prefix string) *EventHistory {
	if prefix == "" {
		prefix = "docrank"
	}
	return &EventHistory{kv: kv, prefix: prefix}
}

func (h *EventHistory) key(userID string) string {
	return h.prefix + ":history:" + userID
}

// Record 追加一条交互事件（导入/测试使用，引擎本身只读）。
func (h *EventHistory) Record(ctx context.Context, ev core.InteractionEvent) error {
	if ev.UserID == "" || ev.ItemID == "" {
		return core.InvalidInput(core.ModuleHistory, "history: user id and item id are required")
	}
	member := strconv.FormatInt(ev.Timestamp.UnixNano(), 10) + ":" + ev.ItemID
	return h.kv.ZAdd(ctx, h.key(ev.UserID), float64(ev.Timestamp.UnixMilli()), member)
}

func (h *EventHistory) RecentForUser(ctx context.Context, userID string, n int) ([]core.InteractionEvent, error) {
	if userID == "" {
		return nil, core.InvalidInput(core.ModuleHistory, "history: user id is required")
	}
	if n <= 0 {
		return nil, nil
	}
	members, err := h.kv.ZRange(ctx, h.key(userID), 0, int64(n-1))
	if err != nil {
		return nil, err
	}
	events := make([]core.InteractionEvent, 0, len(members))
	for _, m := range members {
		nanos, itemID, ok := strings.Cut(m, ":")
		if !ok {
			return nil, fmt.Errorf("history: malformed member %q", m)
		}
		ns, err := strconv.ParseInt(nanos, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("history: malformed member %q: %w", m, err)
		}
		events = append(events, core.InteractionEvent{
			UserID:    userID,
			ItemID:    itemID,
			Timestamp: time.Unix(0, ns).UTC(),
		})
	}
	return events, nil
}

var _ core.History = (*EventHistory)(nil)
