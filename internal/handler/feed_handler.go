package handler

import (
	"net/http"

	"github.com/hitoshi/paperdeck/internal/feed"
	"github.com/hitoshi/paperdeck/internal/recommend"
)

// defaultRecommendationCount はレコメンド一覧のデフォルト件数。
const defaultRecommendationCount = 10

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	BuildFeed() *feed.Result
}

// RecommendServiceInterface はレコメンドハンドラーが必要とするサービスインターフェース。
type RecommendServiceInterface interface {
	Recommend(req *recommend.Request, limit int) []recommend.ScoredPaper
	GenerateAlerts() int
}

// FeedHandler はフィードとレコメンドのHTTPハンドラー。
type FeedHandler struct {
	feedService      FeedServiceInterface
	recommendService RecommendServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(feedService FeedServiceInterface, recommendService RecommendServiceInterface) *FeedHandler {
	return &FeedHandler{
		feedService:      feedService,
		recommendService: recommendService,
	}
}

// GetFeed はパーソナライズドフィードを取得する。
// GET /api/feed
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.feedService.BuildFeed())
}

// recommendationsResponse はレコメンド一覧のレスポンス。
type recommendationsResponse struct {
	Recommendations []recommend.ScoredPaper `json:"recommendations"`
}

// Recommendations はレコメンド一覧を取得する。
// POST /api/recommendations?limit=n
// ボディでタグ・レベル・除外IDを上書き指定できる（省略可）。
// 取得に合わせて通知生成も走らせる。
func (h *FeedHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req *recommend.Request
	var body recommend.Request
	found, ok := decodeOptionalJSONBody(w, r, &body)
	if !ok {
		return
	}
	if found {
		req = &body
	}

	limit := queryLimit(r)
	if req != nil && req.DailyCount > 0 {
		limit = req.DailyCount
	}
	if limit == 0 {
		limit = defaultRecommendationCount
	}

	scored := h.recommendService.Recommend(req, limit)
	h.recommendService.GenerateAlerts()

	respondJSON(w, http.StatusOK, recommendationsResponse{Recommendations: scored})
}
