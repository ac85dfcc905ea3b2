package core

import "github.com/rushteam/docrank/pkg/utils"

// RecommendContext 承载单次请求的信息，贯穿整个 Pipeline 透传。
// 由 engine 在请求开始时构建，请求结束后丢弃。
type RecommendContext struct {
	UserID string
	Scene  string // item / user / popular

	// Limit 是请求的返回数量
	Limit int

	// Source 是基于物品推荐时的源文档
	Source *Document

	// Profile 是基于用户推荐时的偏好画像
	Profile *PreferenceProfile

	// TopCategories / TopTags / TopKeywords 是画像的 TopN，用于粗过滤与打分
	TopCategories []string
	TopTags       []string
	TopKeywords   []string

	// ExcludeIDs 是必须排除的文档（源文档、用户历史）
	ExcludeIDs []string

	// Labels 是请求级标签
	Labels map[string]utils.Label

	// Params 请求级参数
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Excluded 判断文档是否在排除列表中。
func (rctx *RecommendContext) Excluded(id string) bool {
	if rctx == nil {
		return false
	}
	if rctx.Source != nil && rctx.Source.ID == id {
		return true
	}
	return contains(rctx.ExcludeIDs, id)
}
