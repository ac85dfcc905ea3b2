package core

import "sort"

// WeightMap 是按插入顺序保存的 label -> 计数 映射。
// TopN 在计数相同时按首次出现顺序返回，保证结果可复现。
type WeightMap struct {
	keys   []string
	counts map[string]int
}

func NewWeightMap() *WeightMap {
	return &WeightMap{counts: make(map[string]int)}
}

// Inc 计数加一。
func (w *WeightMap) Inc(label string) {
	w.Add(label, 1)
}

// Add 计数增加 n；首次出现的 label 追加到顺序表末尾。
func (w *WeightMap) Add(label string, n int) {
	if w.counts == nil {
		w.counts = make(map[string]int)
	}
	if _, ok := w.counts[label]; !ok {
		w.keys = append(w.keys, label)
	}
	w.counts[label] += n
}

// Get 返回 label 的计数，不存在时为 0。
func (w *WeightMap) Get(label string) int {
	if w == nil {
		return 0
	}
	return w.counts[label]
}

func (w *WeightMap) Len() int {
	if w == nil {
		return 0
	}
	return len(w.keys)
}

// Keys 返回按首次出现顺序排列的 label。
func (w *WeightMap) Keys() []string {
	if w == nil {
		return nil
	}
	out := make([]string, len(w.keys))
	copy(out, w.keys)
	return out
}

// TopN 返回计数最高的至多 n 个 label（降序，稳定排序）。
func (w *WeightMap) TopN(n int) []string {
	if w == nil || n <= 0 || len(w.keys) == 0 {
		return nil
	}
	keys := w.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return w.counts[keys[i]] > w.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// PreferenceProfile 是由用户最近交互聚合出的偏好画像，每次请求临时构建。
type PreferenceProfile struct {
	Categories *WeightMap
	Tags       *WeightMap
	Keywords   *WeightMap
}

func NewPreferenceProfile() *PreferenceProfile {
	return &PreferenceProfile{
		Categories: NewWeightMap(),
		Tags:       NewWeightMap(),
		Keywords:   NewWeightMap(),
	}
}

// Empty 表示没有任何信号（冷启动）。
func (p *PreferenceProfile) Empty() bool {
	return p == nil || (p.Categories.Len() == 0 && p.Tags.Len() == 0 && p.Keywords.Len() == 0)
}
