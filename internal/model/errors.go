// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodePaperNotFound        = "PAPER_NOT_FOUND"
	ErrCodeSummaryNotFound      = "SUMMARY_NOT_FOUND"
	ErrCodeReportNotFound       = "REPORT_NOT_FOUND"
	ErrCodeAuthorNotFound       = "AUTHOR_NOT_FOUND"
	ErrCodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
	ErrCodeInvalidSortMode      = "INVALID_SORT_MODE"
	ErrCodeInvalidPreferences   = "INVALID_PREFERENCES"
	ErrCodeInvalidProvider      = "INVALID_PROVIDER"
	ErrCodeIdentityRequired     = "IDENTITY_REQUIRED"
	ErrCodeLoginSuperseded      = "LOGIN_SUPERSEDED"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
)

// NewPaperNotFoundError は論文未検出エラーを生成する。
func NewPaperNotFoundError(paperID string) *APIError {
	return &APIError{
		Code:     ErrCodePaperNotFound,
		Message:  fmt.Sprintf("指定された論文が見つかりません: %s", paperID),
		Category: "content",
		Action:   "論文IDを確認してください。",
	}
}

// NewSummaryNotFoundError は要約未検出エラーを生成する。
func NewSummaryNotFoundError(paperID string) *APIError {
	return &APIError{
		Code:     ErrCodeSummaryNotFound,
		Message:  fmt.Sprintf("指定された論文の要約が見つかりません: %s", paperID),
		Category: "content",
		Action:   "論文IDを確認してください。",
	}
}

// NewReportNotFoundError はリポート未検出エラーを生成する。
func NewReportNotFoundError(reportID string) *APIError {
	return &APIError{
		Code:     ErrCodeReportNotFound,
		Message:  fmt.Sprintf("指定されたリポートが見つかりません: %s", reportID),
		Category: "content",
		Action:   "リポートIDを確認してください。",
	}
}

// NewAuthorNotFoundError は著者未検出エラーを生成する。
func NewAuthorNotFoundError(authorID string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthorNotFound,
		Message:  fmt.Sprintf("指定された著者が見つかりません: %s", authorID),
		Category: "content",
		Action:   "著者IDを確認してください。",
	}
}

// NewNotificationNotFoundError は通知未検出エラーを生成する。
func NewNotificationNotFoundError(notificationID string) *APIError {
	return &APIError{
		Code:     ErrCodeNotificationNotFound,
		Message:  fmt.Sprintf("指定された通知が見つかりません: %s", notificationID),
		Category: "content",
		Action:   "通知IDを確認してください。",
	}
}

// NewInvalidSortModeError は無効なソート種別エラーを生成する。
func NewInvalidSortModeError(mode string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSortMode,
		Message:  fmt.Sprintf("無効なソート種別です: %s", mode),
		Category: "validation",
		Action:   "sortには trending、recent、citations のいずれかを指定してください。",
	}
}

// NewInvalidPreferencesError は選好プロファイル検証エラーを生成する。
func NewInvalidPreferencesError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPreferences,
		Message:  fmt.Sprintf("選好プロファイルが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidProviderError は無効な認証プロバイダーエラーを生成する。
func NewInvalidProviderError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidProvider,
		Message:  fmt.Sprintf("無効な認証プロバイダーです: %s", provider),
		Category: "validation",
		Action:   "providerには google、kakao、guest のいずれかを指定してください。",
	}
}

// NewIdentityRequiredError は認証必須操作に対するエラーを生成する。
// ゲストセッションにはアイデンティティキーがないため、状態の永続化操作を実行できない。
func NewIdentityRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeIdentityRequired,
		Message:  "この操作にはアカウントでのログインが必要です。",
		Category: "auth",
		Action:   "GoogleまたはKakaoアカウントでログインしてください。",
	}
}

// NewLoginSupersededError は後続の試行に追い越されたログインのエラーを生成する。
// 古い試行の応答は適用されず破棄される。
func NewLoginSupersededError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginSuperseded,
		Message:  "このログイン試行はより新しい試行に置き換えられました。",
		Category: "auth",
		Action:   "そのまま最新のログイン結果をお待ちください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
