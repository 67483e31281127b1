package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/paperdeck/internal/model"
)

// --- モック定義 ---

// mockCatalogService はCatalogServiceInterfaceのモック実装。
type mockCatalogService struct {
	listPapersFn       func(tag string, mode model.SortMode, limit int) []model.Paper
	getPaperFn         func(id string) (model.Paper, bool)
	getSummaryFn       func(paperID string) (model.Summary, bool)
	listReportsFn      func(tag string, limit int) []model.Report
	getReportFn        func(id string) (model.Report, bool)
	listAuthorsFn      func(recommendedOnly bool, limit int) []model.Author
	getAuthorFn        func(id string) (model.Author, bool)
	listAuthorPapersFn func(authorID string) ([]model.Paper, bool)
	listTagsFn         func() []model.TagInfo
	trendingTagsFn     func(limit int) []model.TagInfo
}

func (m *mockCatalogService) ListPapers(tag string, mode model.SortMode, limit int) []model.Paper {
	if m.listPapersFn != nil {
		return m.listPapersFn(tag, mode, limit)
	}
	return nil
}

func (m *mockCatalogService) GetPaper(id string) (model.Paper, bool) {
	if m.getPaperFn != nil {
		return m.getPaperFn(id)
	}
	return model.Paper{}, false
}

func (m *mockCatalogService) GetSummary(paperID string) (model.Summary, bool) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(paperID)
	}
	return model.Summary{}, false
}

func (m *mockCatalogService) ListReports(tag string, limit int) []model.Report {
	if m.listReportsFn != nil {
		return m.listReportsFn(tag, limit)
	}
	return nil
}

func (m *mockCatalogService) GetReport(id string) (model.Report, bool) {
	if m.getReportFn != nil {
		return m.getReportFn(id)
	}
	return model.Report{}, false
}

func (m *mockCatalogService) ListAuthors(recommendedOnly bool, limit int) []model.Author {
	if m.listAuthorsFn != nil {
		return m.listAuthorsFn(recommendedOnly, limit)
	}
	return nil
}

func (m *mockCatalogService) GetAuthor(id string) (model.Author, bool) {
	if m.getAuthorFn != nil {
		return m.getAuthorFn(id)
	}
	return model.Author{}, false
}

func (m *mockCatalogService) ListAuthorPapers(authorID string) ([]model.Paper, bool) {
	if m.listAuthorPapersFn != nil {
		return m.listAuthorPapersFn(authorID)
	}
	return nil, false
}

func (m *mockCatalogService) ListTags() []model.TagInfo {
	if m.listTagsFn != nil {
		return m.listTagsFn()
	}
	return nil
}

func (m *mockCatalogService) TrendingTags(limit int) []model.TagInfo {
	if m.trendingTagsFn != nil {
		return m.trendingTagsFn(limit)
	}
	return nil
}

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseErrorResponse はレスポンスボディからエラーレスポンスをパースするヘルパー。
func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// --- GET /api/papers テスト ---

func TestCatalogHandler_ListPapers_Success(t *testing.T) {
	svc := &mockCatalogService{
		listPapersFn: func(tag string, mode model.SortMode, limit int) []model.Paper {
			if tag != "nlp" {
				t.Errorf("tag = %q, want %q", tag, "nlp")
			}
			if mode != model.SortTrending {
				t.Errorf("mode = %q, want %q", mode, model.SortTrending)
			}
			if limit != 5 {
				t.Errorf("limit = %d, want %d", limit, 5)
			}
			return []model.Paper{{ID: "p001", Title: "Attention Is All You Need"}}
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/papers?tag=nlp&sort=trending&limit=5", nil)
	w := httptest.NewRecorder()
	h.ListPapers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp papersResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
	if len(resp.Papers) != 1 || resp.Papers[0].ID != "p001" {
		t.Errorf("papers = %+v, want p001", resp.Papers)
	}
}

func TestCatalogHandler_ListPapers_InvalidSort(t *testing.T) {
	h := NewCatalogHandler(&mockCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/api/papers?sort=hottest", nil)
	w := httptest.NewRecorder()
	h.ListPapers(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	resp := parseErrorResponse(t, w)
	if resp["code"] != model.ErrCodeInvalidSortMode {
		t.Errorf("code = %q, want %q", resp["code"], model.ErrCodeInvalidSortMode)
	}
}

func TestCatalogHandler_ListPapers_DefaultSortAndLimit(t *testing.T) {
	svc := &mockCatalogService{
		listPapersFn: func(tag string, mode model.SortMode, limit int) []model.Paper {
			if mode != model.SortDefault {
				t.Errorf("mode = %q, want default", mode)
			}
			if limit != 0 {
				t.Errorf("limit = %d, want 0", limit)
			}
			return nil
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/papers", nil)
	w := httptest.NewRecorder()
	h.ListPapers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// --- GET /api/papers/{id} テスト ---

func TestCatalogHandler_GetPaper_NotFound(t *testing.T) {
	h := NewCatalogHandler(&mockCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/api/papers/nope", nil)
	req = withChiURLParam(req, "id", "nope")
	w := httptest.NewRecorder()
	h.GetPaper(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	resp := parseErrorResponse(t, w)
	if resp["code"] != model.ErrCodePaperNotFound {
		t.Errorf("code = %q, want %q", resp["code"], model.ErrCodePaperNotFound)
	}
}

// --- GET /api/summaries/{paperID} テスト ---

func TestCatalogHandler_GetSummary_Success(t *testing.T) {
	svc := &mockCatalogService{
		getSummaryFn: func(paperID string) (model.Summary, bool) {
			if paperID != "p001" {
				t.Errorf("paperID = %q, want %q", paperID, "p001")
			}
			return model.Summary{PaperID: "p001", HookOneLiner: "一行フック"}, true
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/summaries/p001", nil)
	req = withChiURLParam(req, "paperID", "p001")
	w := httptest.NewRecorder()
	h.GetSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var summary model.Summary
	if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.PaperID != "p001" {
		t.Errorf("paper_id = %q, want %q", summary.PaperID, "p001")
	}
}

func TestCatalogHandler_GetSummary_NotFound(t *testing.T) {
	h := NewCatalogHandler(&mockCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/api/summaries/p004", nil)
	req = withChiURLParam(req, "paperID", "p004")
	w := httptest.NewRecorder()
	h.GetSummary(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- GET /api/authors テスト ---

func TestCatalogHandler_ListAuthors_RecommendedFilter(t *testing.T) {
	svc := &mockCatalogService{
		listAuthorsFn: func(recommendedOnly bool, limit int) []model.Author {
			if !recommendedOnly {
				t.Error("recommendedOnly = false, want true")
			}
			return []model.Author{{ID: "a001", Name: "Ashish Vaswani"}}
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/authors?recommended=true", nil)
	w := httptest.NewRecorder()
	h.ListAuthors(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp authorsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
}

// --- GET /api/authors/{id}/papers テスト ---

func TestCatalogHandler_ListAuthorPapers_UnknownAuthor(t *testing.T) {
	h := NewCatalogHandler(&mockCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/api/authors/a999/papers", nil)
	req = withChiURLParam(req, "id", "a999")
	w := httptest.NewRecorder()
	h.ListAuthorPapers(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	resp := parseErrorResponse(t, w)
	if resp["code"] != model.ErrCodeAuthorNotFound {
		t.Errorf("code = %q, want %q", resp["code"], model.ErrCodeAuthorNotFound)
	}
}

// --- GET /api/tags/trending テスト ---

func TestCatalogHandler_TrendingTags_PassesLimit(t *testing.T) {
	svc := &mockCatalogService{
		trendingTagsFn: func(limit int) []model.TagInfo {
			if limit != 3 {
				t.Errorf("limit = %d, want 3", limit)
			}
			return []model.TagInfo{{Name: "llm"}, {Name: "nlp"}, {Name: "vision"}}
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/tags/trending?limit=3", nil)
	w := httptest.NewRecorder()
	h.TrendingTags(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp tagsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Tags) != 3 {
		t.Errorf("tags = %d, want 3", len(resp.Tags))
	}
}

// --- queryLimit テスト ---

func TestQueryLimit_InvalidValuesFallBackToZero(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", 0},
		{"limit=10", 10},
		{"limit=abc", 0},
		{"limit=-5", 0},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/papers?"+tc.query, nil)
		if got := queryLimit(req); got != tc.want {
			t.Errorf("queryLimit(%q) = %d, want %d", tc.query, got, tc.want)
		}
	}
}
