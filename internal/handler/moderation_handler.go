package handler

import (
	"net/http"
	"sort"

	"github.com/hitoshi/paperdeck/internal/model"
)

// ModerationStoreInterface はModerationHandlerが利用するストアのインターフェース。
type ModerationStoreInterface interface {
	HidePaper(paperID string)
	UndoHidePaper(paperID string)
	BlockAuthor(name string)
	ExcludeTag(tag string)
	Moderation() model.ModerationFilters
}

// ModerationHandler はモデレーションフィルタのHTTPハンドラー。
type ModerationHandler struct {
	store ModerationStoreInterface
}

// NewModerationHandler は新しいModerationHandlerを作成する。
func NewModerationHandler(store ModerationStoreInterface) *ModerationHandler {
	return &ModerationHandler{store: store}
}

type moderationResponse struct {
	HiddenPaperIDs []string `json:"hidden_paper_ids"`
	BlockedAuthors []string `json:"blocked_authors"`
	ExcludedTags   []string `json:"excluded_tags"`
}

// GetModeration は3種類のブロックリストをソート済み配列で返す。
func (h *ModerationHandler) GetModeration(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.currentModeration())
}

type hidePaperRequest struct {
	PaperID string `json:"paper_id"`
}

// HidePaper は論文をフィードから非表示にする。
func (h *ModerationHandler) HidePaper(w http.ResponseWriter, r *http.Request) {
	var req hidePaperRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.PaperID == "" {
		writeAPIError(w, model.NewInvalidPreferencesError("paper_idを指定してください"))
		return
	}
	h.store.HidePaper(req.PaperID)
	respondJSON(w, http.StatusOK, h.currentModeration())
}

// UnhidePaper は論文の非表示を取り消す。
func (h *ModerationHandler) UnhidePaper(w http.ResponseWriter, r *http.Request) {
	var req hidePaperRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.PaperID == "" {
		writeAPIError(w, model.NewInvalidPreferencesError("paper_idを指定してください"))
		return
	}
	h.store.UndoHidePaper(req.PaperID)
	respondJSON(w, http.StatusOK, h.currentModeration())
}

type blockAuthorRequest struct {
	Author string `json:"author"`
}

// BlockAuthor は著者をブロックする。
func (h *ModerationHandler) BlockAuthor(w http.ResponseWriter, r *http.Request) {
	var req blockAuthorRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Author == "" {
		writeAPIError(w, model.NewInvalidPreferencesError("authorを指定してください"))
		return
	}
	h.store.BlockAuthor(req.Author)
	respondJSON(w, http.StatusOK, h.currentModeration())
}

type excludeTagRequest struct {
	Tag string `json:"tag"`
}

// ExcludeTag はタグをフィードから除外する。
func (h *ModerationHandler) ExcludeTag(w http.ResponseWriter, r *http.Request) {
	var req excludeTagRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Tag == "" {
		writeAPIError(w, model.NewInvalidPreferencesError("tagを指定してください"))
		return
	}
	h.store.ExcludeTag(req.Tag)
	respondJSON(w, http.StatusOK, h.currentModeration())
}

func (h *ModerationHandler) currentModeration() moderationResponse {
	filters := h.store.Moderation()
	return moderationResponse{
		HiddenPaperIDs: sortedKeys(filters.HiddenPaperIDs),
		BlockedAuthors: sortedKeys(filters.BlockedAuthors),
		ExcludedTags:   sortedKeys(filters.ExcludedTags),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
