// Package auth はモックプロバイダーによるログインフローとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hitoshi/paperdeck/internal/model"
)

// StateStore は認証サービスが利用する状態ストアの窓口。
type StateStore interface {
	SetIdentity(u *model.User)
	Identity() *model.User
	PutSession(sess *model.Session)
	FindSession(id string) *model.Session
	DeleteSession(id string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// LoginDelay はモックプロバイダーの応答遅延。実プロバイダーの
	// ラウンドトリップを模擬するための待ち時間。
	LoginDelay time.Duration
	// SessionMaxAge は通常ログインのセッション有効期間。
	SessionMaxAge time.Duration
	// RememberMeMaxAge はログイン保持を選んだ場合のセッション有効期間。
	RememberMeMaxAge time.Duration
}

// Service はモック認証のビジネスロジックを提供する。
type Service struct {
	store  StateStore
	config ServiceConfig

	// 最後に開始されたログイン試行の番号。遅延中に新しい試行が
	// 始まった場合、古い試行の結果は破棄される。
	attempts atomic.Int64
}

// NewService はServiceを生成する。
func NewService(store StateStore, config ServiceConfig) *Service {
	return &Service{store: store, config: config}
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	User    *model.User
	Session *model.Session
}

// mockProfiles はプロバイダーごとの固定モックプロフィール。
var mockProfiles = map[model.AuthProvider]model.User{
	model.AuthProviderGoogle: {
		ID:          "google-1001",
		DisplayName: "佐藤 明里",
		Provider:    model.AuthProviderGoogle,
		AvatarURL:   "https://i.pravatar.cc/150?u=google-1001",
	},
	model.AuthProviderKakao: {
		ID:          "kakao-2001",
		DisplayName: "김도윤",
		Provider:    model.AuthProviderKakao,
		AvatarURL:   "https://i.pravatar.cc/150?u=kakao-2001",
	},
	model.AuthProviderGuest: {
		ID:          "guest",
		DisplayName: "ゲスト",
		Provider:    model.AuthProviderGuest,
	},
}

// Login はモックプロバイダーでログインする。
// プロバイダーの応答遅延を模擬した後、遅延中により新しい試行が開始されて
// いた場合は結果を破棄しエラーを返す。成功時はアイデンティティを設定し
// セッションを発行する。
func (s *Service) Login(ctx context.Context, provider model.AuthProvider, rememberMe bool) (*LoginResult, *model.APIError) {
	if !model.ValidAuthProvider(provider) {
		return nil, model.NewInvalidProviderError(string(provider))
	}

	attemptID := s.attempts.Add(1)

	if s.config.LoginDelay > 0 {
		timer := time.NewTimer(s.config.LoginDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, model.NewLoginSupersededError()
		case <-timer.C:
		}
	}

	if s.attempts.Load() != attemptID {
		slog.Info("stale login attempt discarded",
			slog.Int64("attempt_id", attemptID),
			slog.String("provider", string(provider)),
		)
		return nil, model.NewLoginSupersededError()
	}

	profile := mockProfiles[provider]
	user := profile
	user.CreatedAt = time.Now()

	sessionID, err := generateSessionID()
	if err != nil {
		slog.Error("failed to generate session id", slog.String("error", err.Error()))
		return nil, model.NewUnauthorizedError()
	}

	maxAge := s.config.SessionMaxAge
	if rememberMe {
		maxAge = s.config.RememberMeMaxAge
	}
	session := &model.Session{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(maxAge),
		CreatedAt: time.Now(),
	}

	s.store.SetIdentity(&user)
	s.store.PutSession(session)

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("provider", string(provider)),
		slog.Bool("remember_me", rememberMe),
	)
	return &LoginResult{User: &user, Session: session}, nil
}

// Logout はセッションを破棄し、アイデンティティを解除する。
// ユーザーごとの状態（いいね・保存・通知など）はストアに残る。
func (s *Service) Logout(sessionID string) {
	if sessionID != "" {
		s.store.DeleteSession(sessionID)
	}
	s.store.SetIdentity(nil)
	slog.Info("user logged out", slog.String("session_id", sessionID))
}

// CurrentUser はセッションIDから現在のユーザーを返す。
// セッションが無効・期限切れ、またはアイデンティティ未設定の場合はエラー。
func (s *Service) CurrentUser(sessionID string) (*model.User, *model.APIError) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}
	sess := s.store.FindSession(sessionID)
	if sess == nil {
		return nil, model.NewUnauthorizedError()
	}
	user := s.store.Identity()
	if user == nil || user.ID != sess.UserID {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
