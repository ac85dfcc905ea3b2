package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/logging"
	"github.com/rushteam/docrank/metrics"
	"github.com/rushteam/docrank/search"
)

type recommendRequest struct {
	DocumentID string `validate:"omitempty,max=128"`
	UserID     string `validate:"omitempty,max=128"`
	Limit      int    `validate:"min=0"`
}

type searchRequest struct {
	Query    string `validate:"required,max=256"`
	Category string `validate:"omitempty,max=64"`
	Page     int    `validate:"min=0"`
	Limit    int    `validate:"min=0"`
}

type documentView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags"`
	IsFree        bool      `json:"isFree"`
	DownloadCount int64     `json:"downloadCount"`
	ViewCount     int64     `json:"viewCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type recommendationView struct {
	documentView
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
}

type searchHitView struct {
	documentView
	RelevanceScore  int            `json:"relevanceScore"`
	MatchedKeywords []string       `json:"matchedKeywords"`
	Analysis        *core.Analysis `json:"analysis,omitempty"`
}

type recommendationsResponse struct {
	Recommendations []recommendationView `json:"recommendations"`
}

type searchResponse struct {
	Documents   []searchHitView   `json:"documents"`
	Suggestions []string          `json:"suggestions"`
	Pagination  search.Pagination `json:"pagination"`
	SearchQuery string            `json:"searchQuery"`
}

func newDocumentView(d *core.Document) documentView {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return documentView{
		ID:            d.ID,
		Title:         d.Title,
		Description:   d.Description,
		Price:         d.Price,
		Category:      d.Category,
		Tags:          tags,
		IsFree:        d.IsFree,
		DownloadCount: d.DownloadCount,
		ViewCount:     d.ViewCount,
		CreatedAt:     d.CreatedAt,
	}
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := queryInt(w, q.Get("limit"), "limit")
	if !ok {
		return
	}
	req := recommendRequest{
		DocumentID: strings.TrimSpace(q.Get("documentId")),
		UserID:     strings.TrimSpace(r.Header.Get(UserIDHeader)),
		Limit:      limit,
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, err.Error())
		return
	}

	var (
		items    []*core.Item
		err      error
		fallback core.Reason
	)
	switch {
	case req.DocumentID != "":
		fallback = core.SimilarContent()
		items, err = s.recommender.RecommendForItem(r.Context(), req.DocumentID, req.Limit)
	case req.UserID != "":
		fallback = core.PopularContent()
		items, err = s.recommender.RecommendForUser(r.Context(), req.UserID, req.Limit)
	default:
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+UserIDHeader+" header")
		return
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	out := make([]recommendationView, 0, len(items))
	for _, it := range items {
		if it == nil || it.Doc == nil {
			continue
		}
		out = append(out, recommendationView{
			documentView: newDocumentView(it.Doc),
			Similarity:   it.Score,
			Reason:       it.Reason(fallback),
		})
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{Recommendations: out})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, ok := queryInt(w, q.Get("page"), "page")
	if !ok {
		return
	}
	limit, ok := queryInt(w, q.Get("limit"), "limit")
	if !ok {
		return
	}
	req := searchRequest{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Page:     page,
		Limit:    limit,
	}
	if err := s.validate.Struct(req); err != nil {
		metrics.RecordSearch(err)
		writeError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, err.Error())
		return
	}

	res, err := s.searcher.Search(r.Context(), search.Query{
		Text:     req.Query,
		Category: req.Category,
		Page:     req.Page,
		Limit:    req.Limit,
	})
	metrics.RecordSearch(err)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	docs := make([]searchHitView, 0, len(res.Hits))
	for _, h := range res.Hits {
		matched := h.MatchedKeywords
		if matched == nil {
			matched = []string{}
		}
		docs = append(docs, searchHitView{
			documentView:    newDocumentView(h.Doc),
			RelevanceScore:  h.RelevanceScore,
			MatchedKeywords: matched,
			Analysis:        h.Doc.Analysis,
		})
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Documents:   docs,
		Suggestions: res.Suggestions,
		Pagination:  res.Pagination,
		SearchQuery: res.Query,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			logging.Ctx(r.Context(), s.logger).Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryInt 解析可选的整数参数；空字符串返回 0。解析失败时直接写 400。
func queryInt(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, name+" must be an integer")
		return 0, false
	}
	return n, true
}
