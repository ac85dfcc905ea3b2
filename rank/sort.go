package rank

import (
	"sort"

	"github.com/rushteam/docrank/core"
)

// SortByScore 按分数降序稳定排序；分数相同保持召回顺序，nil 排在最后。
func SortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
}
