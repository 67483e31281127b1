// Package model はドメインモデルを定義する。
package model

import "time"

// AuthProvider はモック認証プロバイダーの種別を表す。
type AuthProvider string

const (
	// AuthProviderGoogle はGoogleアカウントによるログインを表す。
	AuthProviderGoogle AuthProvider = "google"
	// AuthProviderKakao はKakaoアカウントによるログインを表す。
	AuthProviderKakao AuthProvider = "kakao"
	// AuthProviderGuest はゲストログインを表す。
	// ゲストはアイデンティティキーを持たないため、ユーザーごとの状態を永続化できない。
	AuthProviderGuest AuthProvider = "guest"
)

// ValidAuthProvider はプロバイダー値が定義済みのいずれかであるかを返す。
func ValidAuthProvider(p AuthProvider) bool {
	switch p {
	case AuthProviderGoogle, AuthProviderKakao, AuthProviderGuest:
		return true
	}
	return false
}

// User は認証済みアイデンティティを表す。
// ログイン完了時に生成され、ログアウトで破棄される。
type User struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	Provider    AuthProvider `json:"provider"`
	CreatedAt   time.Time    `json:"created_at"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
}

// IdentityKey はユーザーごとの状態マップを引くためのキーを返す。
// provider + ":" + id の形式。ゲストおよびnilユーザーは空文字を返し、
// 呼び出し側はユーザーごとの永続化をスキップする。
func (u *User) IdentityKey() string {
	if u == nil || u.Provider == AuthProviderGuest {
		return ""
	}
	return string(u.Provider) + ":" + u.ID
}

// Session はログインセッションを表す。
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ExpertiseLevel はユーザーの専門性レベルを表す。
type ExpertiseLevel string

const (
	// LevelUndergraduate は学部生レベル。
	LevelUndergraduate ExpertiseLevel = "undergraduate"
	// LevelGraduate は大学院生レベル。
	LevelGraduate ExpertiseLevel = "graduate"
	// LevelResearcher は研究者レベル。
	LevelResearcher ExpertiseLevel = "researcher"
	// LevelPractitioner は実務者レベル。
	LevelPractitioner ExpertiseLevel = "practitioner"
)

// ValidExpertiseLevel はレベル値が定義済みのいずれかであるかを返す。
func ValidExpertiseLevel(l ExpertiseLevel) bool {
	switch l {
	case LevelUndergraduate, LevelGraduate, LevelResearcher, LevelPractitioner:
		return true
	}
	return false
}

// LayoutMode は表示レイアウトの指定を表す。
type LayoutMode string

const (
	// LayoutAuto は画面幅による自動判定。
	LayoutAuto LayoutMode = "auto"
	// LayoutMobile はモバイルレイアウト固定。
	LayoutMobile LayoutMode = "mobile"
	// LayoutDesktop はデスクトップレイアウト固定。
	LayoutDesktop LayoutMode = "desktop"
)

// オンボーディング制約。
const (
	// MinPreferenceTopics はオンボーディング完了に必要な最小トピック数。
	MinPreferenceTopics = 3
	// MinTopicWeight はトピック重みの下限。
	MinTopicWeight = 1
	// MaxTopicWeight はトピック重みの上限。
	MaxTopicWeight = 5
	// DefaultTopicWeight は重み未指定時のデフォルト値。
	DefaultTopicWeight = 3
	// MinDailyFeedTarget は1日のフィード件数目標の下限。
	MinDailyFeedTarget = 5
	// MaxDailyFeedTarget は1日のフィード件数目標の上限。
	MaxDailyFeedTarget = 30
	// DefaultDailyFeedTarget はフィード件数目標のデフォルト値。
	DefaultDailyFeedTarget = 10
)

// TopicWeight はトピック名と興味の重み（1〜5）の組を表す。
type TopicWeight struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// PreferenceProfile はオンボーディングで設定されるユーザーの選好プロファイル。
// 再設定時は全置換される。
type PreferenceProfile struct {
	Topics          []TopicWeight  `json:"topics"`
	Level           ExpertiseLevel `json:"level"`
	DailyFeedTarget int            `json:"daily_feed_target"`
	Layout          LayoutMode     `json:"layout,omitempty"`
}

// Validate はプロファイルの制約を検証する。
// トピック3件以上、トピック名の重複なし、重み1〜5、フィード目標5〜30。
func (p *PreferenceProfile) Validate() *APIError {
	if len(p.Topics) < MinPreferenceTopics {
		return NewInvalidPreferencesError("トピックは3件以上選択してください")
	}
	seen := make(map[string]bool, len(p.Topics))
	for _, t := range p.Topics {
		if t.Name == "" {
			return NewInvalidPreferencesError("トピック名が空です")
		}
		if seen[t.Name] {
			return NewInvalidPreferencesError("トピック名が重複しています: " + t.Name)
		}
		seen[t.Name] = true
		if t.Weight < MinTopicWeight || t.Weight > MaxTopicWeight {
			return NewInvalidPreferencesError("トピック重みは1〜5で指定してください")
		}
	}
	if !ValidExpertiseLevel(p.Level) {
		return NewInvalidPreferencesError("無効な専門性レベルです: " + string(p.Level))
	}
	if p.DailyFeedTarget < MinDailyFeedTarget || p.DailyFeedTarget > MaxDailyFeedTarget {
		return NewInvalidPreferencesError("フィード件数目標は5〜30で指定してください")
	}
	switch p.Layout {
	case "", LayoutAuto, LayoutMobile, LayoutDesktop:
	default:
		return NewInvalidPreferencesError("無効なレイアウト指定です: " + string(p.Layout))
	}
	return nil
}

// NotificationSettings は通知種別ごとの有効/無効を表す。
type NotificationSettings struct {
	NewRecommendation bool `json:"new_recommendation"`
	TagMatch          bool `json:"tag_match"`
	SavedUpdate       bool `json:"saved_update"`
}

// DefaultNotificationSettings は全種別有効のデフォルト設定を返す。
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		NewRecommendation: true,
		TagMatch:          true,
		SavedUpdate:       true,
	}
}

// Theme は表示テーマを表す。
type Theme string

const (
	// ThemeLight はライトテーマ。
	ThemeLight Theme = "light"
	// ThemeDark はダークテーマ。
	ThemeDark Theme = "dark"
	// ThemeSystem はOS設定に追従するテーマ。
	ThemeSystem Theme = "system"
)
