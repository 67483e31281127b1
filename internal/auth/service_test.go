package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/paperdeck/internal/model"
)

type fakeStore struct {
	mu       sync.Mutex
	identity *model.User
	sessions map[string]*model.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*model.Session)}
}

func (f *fakeStore) SetIdentity(u *model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity = u
}

func (f *fakeStore) Identity() *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identity
}

func (f *fakeStore) PutSession(sess *model.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sess.ID] = sess
}

func (f *fakeStore) FindSession(id string) *model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return nil
	}
	return sess
}

func (f *fakeStore) DeleteSession(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
}

func newTestService(store *fakeStore) *Service {
	return NewService(store, ServiceConfig{
		LoginDelay:       0,
		SessionMaxAge:    time.Hour,
		RememberMeMaxAge: 30 * 24 * time.Hour,
	})
}

func TestLogin_Success(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	result, apiErr := svc.Login(context.Background(), model.AuthProviderGoogle, false)
	if apiErr != nil {
		t.Fatalf("Login() error = %v", apiErr)
	}
	if result.User.Provider != model.AuthProviderGoogle {
		t.Errorf("Provider = %q, want google", result.User.Provider)
	}
	if result.Session.ID == "" {
		t.Error("Session.ID is empty")
	}
	if store.Identity() == nil {
		t.Error("identity not set in store")
	}
	if store.FindSession(result.Session.ID) == nil {
		t.Error("session not persisted in store")
	}
}

func TestLogin_InvalidProvider(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, apiErr := svc.Login(context.Background(), model.AuthProvider("naver"), false)
	if apiErr == nil {
		t.Fatal("Login() with unknown provider should fail")
	}
	if apiErr.Code != "INVALID_PROVIDER" {
		t.Errorf("Code = %q, want INVALID_PROVIDER", apiErr.Code)
	}
}

func TestLogin_RememberMeExtendsSession(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	short, _ := svc.Login(context.Background(), model.AuthProviderGoogle, false)
	long, _ := svc.Login(context.Background(), model.AuthProviderGoogle, true)

	if !long.Session.ExpiresAt.After(short.Session.ExpiresAt.Add(24 * time.Hour)) {
		t.Errorf("remember-me session should expire much later: %v vs %v",
			long.Session.ExpiresAt, short.Session.ExpiresAt)
	}
}

func TestLogin_StaleAttemptDiscarded(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, ServiceConfig{
		LoginDelay:    50 * time.Millisecond,
		SessionMaxAge: time.Hour,
	})

	type outcome struct {
		result *LoginResult
		apiErr *model.APIError
	}
	firstDone := make(chan outcome, 1)
	go func() {
		r, e := svc.Login(context.Background(), model.AuthProviderGoogle, false)
		firstDone <- outcome{r, e}
	}()

	// 最初の試行の遅延中に2回目を開始する
	time.Sleep(10 * time.Millisecond)
	second, secondErr := svc.Login(context.Background(), model.AuthProviderKakao, false)
	if secondErr != nil {
		t.Fatalf("second Login() error = %v", secondErr)
	}

	first := <-firstDone
	if first.apiErr == nil {
		t.Fatal("first Login() should be superseded")
	}
	if first.apiErr.Code != "LOGIN_SUPERSEDED" {
		t.Errorf("Code = %q, want LOGIN_SUPERSEDED", first.apiErr.Code)
	}

	// 勝ち残った試行のアイデンティティが設定されている
	if got := store.Identity(); got == nil || got.Provider != model.AuthProviderKakao {
		t.Errorf("identity = %+v, want kakao profile", got)
	}
	_ = second
}

func TestLogin_ContextCancelled(t *testing.T) {
	svc := NewService(newFakeStore(), ServiceConfig{
		LoginDelay:    time.Second,
		SessionMaxAge: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, apiErr := svc.Login(ctx, model.AuthProviderGoogle, false)
	if apiErr == nil {
		t.Fatal("Login() with cancelled context should fail")
	}
}

func TestLogout_ClearsIdentityKeepsNothingElse(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	result, _ := svc.Login(context.Background(), model.AuthProviderGoogle, false)
	svc.Logout(result.Session.ID)

	if store.Identity() != nil {
		t.Error("identity should be cleared after logout")
	}
	if store.FindSession(result.Session.ID) != nil {
		t.Error("session should be deleted after logout")
	}
}

func TestCurrentUser(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	result, _ := svc.Login(context.Background(), model.AuthProviderGoogle, false)

	user, apiErr := svc.CurrentUser(result.Session.ID)
	if apiErr != nil {
		t.Fatalf("CurrentUser() error = %v", apiErr)
	}
	if user.ID != result.User.ID {
		t.Errorf("ID = %q, want %q", user.ID, result.User.ID)
	}

	if _, apiErr := svc.CurrentUser(""); apiErr == nil {
		t.Error("CurrentUser(empty) should fail")
	}
	if _, apiErr := svc.CurrentUser("missing"); apiErr == nil {
		t.Error("CurrentUser(missing) should fail")
	}
}

func TestCurrentUser_ExpiredSession(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	result, _ := svc.Login(context.Background(), model.AuthProviderGoogle, false)
	store.sessions[result.Session.ID].ExpiresAt = time.Now().Add(-time.Minute)

	if _, apiErr := svc.CurrentUser(result.Session.ID); apiErr == nil {
		t.Error("CurrentUser() with expired session should fail")
	}
}
