package filter

import (
	"context"

	"github.com/rushteam/docrank/core"
)

// BlocklistFilter 过滤掉被下架/屏蔽的文档。
type BlocklistFilter struct {
	// ItemIDs 是内存中的屏蔽文档 ID 列表
	ItemIDs []string

	// Store 用于从存储中读取屏蔽列表（可选）
	Store BlocklistStore

	// Key 是 Store 中的屏蔽列表 key（可选）
	Key string
}

// BlocklistStore 是屏蔽列表存储接口。
type BlocklistStore interface {
	GetBlocklist(ctx context.Context, key string) ([]string, error)
}

// NewBlocklistFilter 创建一个屏蔽列表过滤器；store 为 nil 时只使用内存列表。
func NewBlocklistFilter(itemIDs []string, store BlocklistStore, key string) *BlocklistFilter {
	return &BlocklistFilter{
		ItemIDs: itemIDs,
		Store:   store,
		Key:     key,
	}
}

func (f *BlocklistFilter) Name() string {
	return "filter.blocklist"
}

func (f *BlocklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	for _, id := range f.ItemIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		blocked, err := f.Store.GetBlocklist(ctx, f.Key)
		if err != nil {
			if core.IsStoreNotFound(err) {
				return false, nil
			}
			return false, err
		}
		for _, id := range blocked {
			if item.ID == id {
				return true, nil
			}
		}
	}
	return false, nil
}
