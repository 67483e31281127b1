package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/paperdeck/internal/auth"
	"github.com/hitoshi/paperdeck/internal/middleware"
	"github.com/hitoshi/paperdeck/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, provider model.AuthProvider, rememberMe bool) (*auth.LoginResult, *model.APIError)
	Logout(sessionID string)
	CurrentUser(sessionID string) (*model.User, *model.APIError)
}

// LoginMetrics はログイン成功のメトリクス記録の窓口。
type LoginMetrics interface {
	RecordLogin(provider string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain     string
	CookieSecure     bool
	SessionMaxAge    time.Duration
	RememberMeMaxAge time.Duration
}

// AuthHandler はモック認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics LoginMetrics
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, metrics LoginMetrics, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
		config:  config,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Provider   string `json:"provider"`
	RememberMe bool   `json:"remember_me"`
}

// loginResponse はログイン成功のレスポンス。
type loginResponse struct {
	User *model.User `json:"user"`
}

// Login はモックプロバイダーでログインする。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, apiErr := h.service.Login(r.Context(), model.AuthProvider(req.Provider), req.RememberMe)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	maxAge := h.config.SessionMaxAge
	if req.RememberMe {
		maxAge = h.config.RememberMeMaxAge
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName(),
		Value:    result.Session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	if h.metrics != nil {
		h.metrics.RecordLogin(string(result.User.Provider))
	}

	respondJSON(w, http.StatusOK, loginResponse{User: result.User})
}

// Logout はログアウトする。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if cookie, err := r.Cookie(middleware.SessionCookieName()); err == nil {
		sessionID = cookie.Value
	}

	h.service.Logout(sessionID)

	// セッションCookieを削除
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName(),
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザーを返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName())
	if err != nil || cookie.Value == "" {
		writeAPIError(w, model.NewUnauthorizedError())
		return
	}

	user, apiErr := h.service.CurrentUser(cookie.Value)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{User: user})
}
