// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/paperdeck/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// SessionResolver はセッションCookieからユーザーを解決するインターフェース。
// カタログ系の公開エンドポイントも通過するため、解決失敗はエラーにしない。
type SessionResolver interface {
	FindSession(id string) *model.Session
	Identity() *model.User
}

// NewSessionMiddleware はCookieからセッションを読み取り、有効であれば
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// セッションがない・期限切れ・アイデンティティ不一致の場合は未認証のまま通す。
// 認証必須のエンドポイントはRequireAuthを重ねて使う。
func NewSessionMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess := resolver.FindSession(cookie.Value)
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			user := resolver.Identity()
			if user == nil || user.ID != sess.UserID {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth は認証済みユーザーがコンテキストにない場合に401を返すミドルウェア。
// SessionMiddlewareの後に配置する。
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := UserFromContext(r.Context()); err != nil {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// SessionCookieName はセッションCookieの名前を返す。ハンドラーのCookie発行用。
func SessionCookieName() string {
	return sessionCookieName
}
