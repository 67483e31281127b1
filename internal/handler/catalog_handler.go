// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/paperdeck/internal/middleware"
	"github.com/hitoshi/paperdeck/internal/model"
)

// CatalogServiceInterface はカタログハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	ListPapers(tag string, mode model.SortMode, limit int) []model.Paper
	GetPaper(id string) (model.Paper, bool)
	GetSummary(paperID string) (model.Summary, bool)
	ListReports(tag string, limit int) []model.Report
	GetReport(id string) (model.Report, bool)
	ListAuthors(recommendedOnly bool, limit int) []model.Author
	GetAuthor(id string) (model.Author, bool)
	ListAuthorPapers(authorID string) ([]model.Paper, bool)
	ListTags() []model.TagInfo
	TrendingTags(limit int) []model.TagInfo
}

// CatalogHandler はカタログ参照のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// papersResponse は論文一覧のレスポンス。
type papersResponse struct {
	Papers []model.Paper `json:"papers"`
	Total  int           `json:"total"`
}

// ListPapers は論文一覧を取得する。
// GET /api/papers?tag=xxx&sort=trending|recent|citations&limit=n
func (h *CatalogHandler) ListPapers(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	sortStr := r.URL.Query().Get("sort")

	mode := model.SortMode(sortStr)
	if !model.ValidSortMode(mode) {
		writeAPIError(w, model.NewInvalidSortModeError(sortStr))
		return
	}

	papers := h.service.ListPapers(tag, mode, queryLimit(r))
	respondJSON(w, http.StatusOK, papersResponse{Papers: papers, Total: len(papers)})
}

// GetPaper は論文詳細を取得する。
// GET /api/papers/{id}
func (h *CatalogHandler) GetPaper(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	paper, ok := h.service.GetPaper(id)
	if !ok {
		writeAPIError(w, model.NewPaperNotFoundError(id))
		return
	}
	respondJSON(w, http.StatusOK, paper)
}

// GetSummary は論文のAI風要約を取得する。
// GET /api/summaries/{paperID}
func (h *CatalogHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")

	summary, ok := h.service.GetSummary(paperID)
	if !ok {
		writeAPIError(w, model.NewSummaryNotFoundError(paperID))
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// reportsResponse はリポート一覧のレスポンス。
type reportsResponse struct {
	Reports []model.Report `json:"reports"`
	Total   int            `json:"total"`
}

// ListReports は技術リポート一覧を取得する。
// GET /api/reports?tag=xxx&limit=n
func (h *CatalogHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports := h.service.ListReports(r.URL.Query().Get("tag"), queryLimit(r))
	respondJSON(w, http.StatusOK, reportsResponse{Reports: reports, Total: len(reports)})
}

// GetReport は技術リポート詳細を取得する。
// GET /api/reports/{id}
func (h *CatalogHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, ok := h.service.GetReport(id)
	if !ok {
		writeAPIError(w, model.NewReportNotFoundError(id))
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// authorsResponse は著者一覧のレスポンス。
type authorsResponse struct {
	Authors []model.Author `json:"authors"`
	Total   int            `json:"total"`
}

// ListAuthors は著者一覧を取得する。
// GET /api/authors?recommended=true&limit=n
func (h *CatalogHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	recommendedOnly := r.URL.Query().Get("recommended") == "true"
	authors := h.service.ListAuthors(recommendedOnly, queryLimit(r))
	respondJSON(w, http.StatusOK, authorsResponse{Authors: authors, Total: len(authors)})
}

// GetAuthor は著者プロフィールを取得する。
// GET /api/authors/{id}
func (h *CatalogHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	author, ok := h.service.GetAuthor(id)
	if !ok {
		writeAPIError(w, model.NewAuthorNotFoundError(id))
		return
	}
	respondJSON(w, http.StatusOK, author)
}

// ListAuthorPapers は著者の論文一覧を取得する。
// GET /api/authors/{id}/papers
func (h *CatalogHandler) ListAuthorPapers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	papers, ok := h.service.ListAuthorPapers(id)
	if !ok {
		writeAPIError(w, model.NewAuthorNotFoundError(id))
		return
	}
	respondJSON(w, http.StatusOK, papersResponse{Papers: papers, Total: len(papers)})
}

// tagsResponse はタグ一覧のレスポンス。
type tagsResponse struct {
	Tags []model.TagInfo `json:"tags"`
}

// ListTags は定義済みタグ一覧を取得する。
// GET /api/tags
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, tagsResponse{Tags: h.service.ListTags()})
}

// TrendingTags は論文数の多い順のタグ一覧を取得する。
// GET /api/tags/trending?limit=n
func (h *CatalogHandler) TrendingTags(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, tagsResponse{Tags: h.service.TrendingTags(queryLimit(r))})
}

// --- 共通ヘルパー ---

// respondJSON はJSONレスポンスを書き込む。
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeAPIError は統一フォーマットでAPIエラーを書き込む。
func writeAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	middleware.WriteAPIError(w, apiErr)
}

// queryLimit はlimitクエリパラメータを解析する。未指定・不正の場合は0（無制限）。
func queryLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// decodeJSONBody はリクエストボディをJSONとして解析する。
// 失敗時はバリデーションエラーを書き込みfalseを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeInvalidBodyError(w)
		return false
	}
	return true
}

// decodeOptionalJSONBody は省略可能なリクエストボディを解析する。
// ボディが空なら(false, true)、不正なJSONならエラーを書き込み(false, false)を返す。
func decodeOptionalJSONBody(w http.ResponseWriter, r *http.Request, v any) (found, ok bool) {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return false, true
	}
	if err != nil {
		writeInvalidBodyError(w)
		return false, false
	}
	return true, true
}

func writeInvalidBodyError(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}
