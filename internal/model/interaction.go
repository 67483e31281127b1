// Package model はドメインモデルを定義する。
package model

import "time"

// Interaction はアイデンティティごとの論文1件に対する操作状態を表す。
// 初回操作時に遅延生成され、以降は同じレコードにマージされる。
type Interaction struct {
	PaperID string     `json:"paper_id"`
	Liked   bool       `json:"liked"`
	Saved   bool       `json:"saved"`
	ReadAt  *time.Time `json:"read_at,omitempty"`
}

// NotificationType は通知の種別を表す。
type NotificationType string

const (
	// NotifyNewRecommendation は新着おすすめ通知。
	NotifyNewRecommendation NotificationType = "new_recommendation"
	// NotifyTagMatch は選好タグ一致通知。
	NotifyTagMatch NotificationType = "tag_match"
	// NotifySavedUpdate は保存済み論文の更新通知。
	NotifySavedUpdate NotificationType = "saved_update"
)

// MaxNotificationsPerUser はアイデンティティごとの通知保持上限。
// 超過時は古いものから破棄される。
const MaxNotificationsPerUser = 50

// Notification はアイデンティティごとの通知1件を表す。
// readはマークリードでのみ変更され、falseへは戻らない。
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	PaperID   string           `json:"paper_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
}

// ModerationFilters はフィード表示から除外するための3つの独立したブロックリスト。
// デバイス（ストレージ）単位のグローバル設定であり、アイデンティティごとではない。
type ModerationFilters struct {
	HiddenPaperIDs map[string]bool `json:"hidden_paper_ids"`
	BlockedAuthors map[string]bool `json:"blocked_authors"`
	ExcludedTags   map[string]bool `json:"excluded_tags"`
}

// NewModerationFilters は空のModerationFiltersを生成する。
func NewModerationFilters() ModerationFilters {
	return ModerationFilters{
		HiddenPaperIDs: make(map[string]bool),
		BlockedAuthors: make(map[string]bool),
		ExcludedTags:   make(map[string]bool),
	}
}
