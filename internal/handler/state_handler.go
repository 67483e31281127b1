package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/paperdeck/internal/model"
	"github.com/hitoshi/paperdeck/internal/state"
)

// StateStoreInterface はStateHandlerが利用する状態ストアのインターフェース。
type StateStoreInterface interface {
	ToggleLiked(paperID string) bool
	ToggleSaved(paperID string) bool
	MarkRead(paperID string) bool
	Interaction(paperID string) *model.Interaction
	LikedPaperIDs() []string
	SavedPaperIDs() []string
	ReadHistoryByDay() []state.DayGroup
	SetPreferences(p *model.PreferenceProfile)
	Preferences() *model.PreferenceProfile
	SetNotificationSettings(ns model.NotificationSettings)
	NotificationSettings() model.NotificationSettings
	SetTheme(t model.Theme)
	Theme() model.Theme
	SetLastViewedIndex(i int)
	LastViewedIndex() int
	Identity() *model.User
	UpdateProfile(displayName, avatarURL string)
}

// StateCatalogInterface はライブラリ表示に必要な論文解決のインターフェース。
type StateCatalogInterface interface {
	GetPaper(id string) (model.Paper, bool)
}

// StateHandler は論文の操作状態・ライブラリ・選好・設定のHTTPハンドラー。
type StateHandler struct {
	store   StateStoreInterface
	catalog StateCatalogInterface
}

// NewStateHandler は新しいStateHandlerを作成する。
func NewStateHandler(store StateStoreInterface, catalog StateCatalogInterface) *StateHandler {
	return &StateHandler{store: store, catalog: catalog}
}

type paperStateRequest struct {
	Liked *bool `json:"liked,omitempty"`
	Saved *bool `json:"saved,omitempty"`
	Read  *bool `json:"read,omitempty"`
}

type paperStateResponse struct {
	Interaction *model.Interaction `json:"interaction"`
}

// UpdatePaperState は論文の操作状態を部分更新する。
// liked/savedは指定値と現在値が異なる場合のみ反転し、read=trueは既読時刻を上書きする。
func (h *StateHandler) UpdatePaperState(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "id")
	if _, ok := h.catalog.GetPaper(paperID); !ok {
		writeAPIError(w, model.NewPaperNotFoundError(paperID))
		return
	}

	var req paperStateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	current := h.store.Interaction(paperID)
	if req.Liked != nil {
		liked := current != nil && current.Liked
		if *req.Liked != liked {
			if !h.store.ToggleLiked(paperID) {
				writeAPIError(w, model.NewIdentityRequiredError())
				return
			}
		}
	}
	if req.Saved != nil {
		saved := current != nil && current.Saved
		if *req.Saved != saved {
			if !h.store.ToggleSaved(paperID) {
				writeAPIError(w, model.NewIdentityRequiredError())
				return
			}
		}
	}
	if req.Read != nil && *req.Read {
		if !h.store.MarkRead(paperID) {
			writeAPIError(w, model.NewIdentityRequiredError())
			return
		}
	}

	respondJSON(w, http.StatusOK, paperStateResponse{Interaction: h.store.Interaction(paperID)})
}

type libraryResponse struct {
	Liked       []model.Paper    `json:"liked"`
	Saved       []model.Paper    `json:"saved"`
	ReadHistory []state.DayGroup `json:"read_history"`
}

// GetLibrary はいいね済み・保存済み論文と暦日別の既読履歴を返す。
// カタログに存在しない論文IDは黙って読み飛ばす。
func (h *StateHandler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	resp := libraryResponse{
		Liked:       h.resolvePapers(h.store.LikedPaperIDs()),
		Saved:       h.resolvePapers(h.store.SavedPaperIDs()),
		ReadHistory: h.store.ReadHistoryByDay(),
	}
	if resp.Liked == nil {
		resp.Liked = []model.Paper{}
	}
	if resp.Saved == nil {
		resp.Saved = []model.Paper{}
	}
	if resp.ReadHistory == nil {
		resp.ReadHistory = []state.DayGroup{}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *StateHandler) resolvePapers(ids []string) []model.Paper {
	var papers []model.Paper
	for _, id := range ids {
		if p, ok := h.catalog.GetPaper(id); ok {
			papers = append(papers, p)
		}
	}
	return papers
}

type preferencesResponse struct {
	Preferences *model.PreferenceProfile `json:"preferences"`
}

// GetPreferences は現在の選好プロファイルを返す。未設定の場合はnull。
func (h *StateHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, preferencesResponse{Preferences: h.store.Preferences()})
}

// UpdatePreferences は選好プロファイルを検証のうえ全置換する。
func (h *StateHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var profile model.PreferenceProfile
	if !decodeJSONBody(w, r, &profile) {
		return
	}
	if apiErr := profile.Validate(); apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}
	h.store.SetPreferences(&profile)
	respondJSON(w, http.StatusOK, preferencesResponse{Preferences: h.store.Preferences()})
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type profileResponse struct {
	User *model.User `json:"user"`
}

// UpdateProfile は表示名とアバターURLを更新する。空のフィールドは現在値を保つ。
func (h *StateHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if h.store.Identity() == nil {
		writeAPIError(w, model.NewIdentityRequiredError())
		return
	}
	h.store.UpdateProfile(req.DisplayName, req.AvatarURL)
	respondJSON(w, http.StatusOK, profileResponse{User: h.store.Identity()})
}

type settingsResponse struct {
	Notifications   model.NotificationSettings `json:"notifications"`
	Theme           model.Theme                `json:"theme"`
	LastViewedIndex int                        `json:"last_viewed_index"`
}

type settingsRequest struct {
	Notifications   *model.NotificationSettings `json:"notifications,omitempty"`
	Theme           *model.Theme                `json:"theme,omitempty"`
	LastViewedIndex *int                        `json:"last_viewed_index,omitempty"`
}

// GetSettings は通知設定・テーマ・UI状態をまとめて返す。
func (h *StateHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.currentSettings())
}

// UpdateSettings は指定されたフィールドのみを更新する部分更新。
func (h *StateHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Theme != nil {
		switch *req.Theme {
		case model.ThemeLight, model.ThemeDark, model.ThemeSystem:
		default:
			writeAPIError(w, model.NewInvalidPreferencesError("無効なテーマ指定です: "+string(*req.Theme)))
			return
		}
	}
	if req.Notifications != nil {
		h.store.SetNotificationSettings(*req.Notifications)
	}
	if req.Theme != nil {
		h.store.SetTheme(*req.Theme)
	}
	if req.LastViewedIndex != nil {
		idx := *req.LastViewedIndex
		if idx < 0 {
			idx = 0
		}
		h.store.SetLastViewedIndex(idx)
	}
	respondJSON(w, http.StatusOK, h.currentSettings())
}

func (h *StateHandler) currentSettings() settingsResponse {
	return settingsResponse{
		Notifications:   h.store.NotificationSettings(),
		Theme:           h.store.Theme(),
		LastViewedIndex: h.store.LastViewedIndex(),
	}
}
