// Package state はクライアント状態ストアを提供する。
//
// ストアは現在のアイデンティティ、選好プロファイル、アイデンティティごとの
// 操作台帳・通知、グローバルなモデレーションフィルタを保持する唯一の書き手であり、
// すべてのミューテーション後にスナップショットをストレージブリッジへ書き出す。
// 永続化の失敗はログに記録するのみで、メモリ上の状態更新は成立させる。
package state

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/paperdeck/internal/model"
	"github.com/hitoshi/paperdeck/internal/storage"
)

// Persister はスナップショット永続化の結果を記録するインターフェース。
// metricsパッケージのCollectorが実装する。
type Persister interface {
	RecordSnapshotPersist(duration time.Duration, err error)
}

// Store はクライアント状態のコンテナ。
// 並行アクセスに対して安全。各ミューテーションは状態更新と永続化を
// 呼び出し側から見てひとつのステップとして実行する（ロールバックはしない）。
type Store struct {
	mu      sync.RWMutex
	bridge  storage.Bridge
	logger  *slog.Logger
	metrics Persister
	now     func() time.Time

	identity            *model.User
	sessions            map[string]*model.Session
	prefs               *model.PreferenceProfile
	actionsByUser       map[string][]model.Interaction
	notificationsByUser map[string][]model.Notification
	moderation          model.ModerationFilters
	notifySettings      model.NotificationSettings
	theme               model.Theme
	lastViewedIndex     int
}

// Option はStoreの生成オプション。
type Option func(*Store)

// WithLogger はストアのロガーを指定する。
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics はスナップショット永続化メトリクスの記録先を指定する。
func WithMetrics(p Persister) Option {
	return func(s *Store) { s.metrics = p }
}

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore は空のStoreを生成する。内容を復元する場合はLoadを呼ぶ。
func NewStore(bridge storage.Bridge, opts ...Option) *Store {
	s := &Store{
		bridge:              bridge,
		logger:              slog.Default(),
		now:                 time.Now,
		sessions:            make(map[string]*model.Session),
		actionsByUser:       make(map[string][]model.Interaction),
		notificationsByUser: make(map[string][]model.Notification),
		moderation:          model.NewModerationFilters(),
		notifySettings:      model.DefaultNotificationSettings(),
		theme:               model.ThemeSystem,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load はブリッジからスナップショットを読み込み、状態を復元する。
// スナップショットが存在しない・壊れている場合はデフォルト状態のまま続行する。
func (s *Store) Load() error {
	raw, ok, err := s.bridge.Read(snapshotKey)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info("no persisted snapshot found, starting fresh")
		return nil
	}

	snap := decodeSnapshot([]byte(raw), s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = snap.Identity
	s.sessions = snap.Sessions
	s.prefs = snap.Prefs
	s.actionsByUser = snap.ActionsByUser
	s.notificationsByUser = snap.NotificationsByUser
	s.moderation = snap.Moderation
	s.notifySettings = snap.NotificationSettings
	s.theme = snap.Theme
	s.lastViewedIndex = snap.LastViewedIndex

	s.logger.Info("snapshot restored",
		slog.Int("version", snap.Version),
		slog.Int("identities", len(snap.ActionsByUser)),
	)
	return nil
}

// persistLocked は現在の状態をスナップショットとして書き出す。
// 呼び出し元がロックを保持していること。
func (s *Store) persistLocked() {
	start := s.now()
	raw, err := encodeSnapshot(s.snapshotLocked())
	if err == nil {
		err = s.bridge.Write(snapshotKey, string(raw))
	}
	if s.metrics != nil {
		s.metrics.RecordSnapshotPersist(s.now().Sub(start), err)
	}
	if err != nil {
		// 永続化失敗は飲み込む。メモリ上の状態は更新済みのまま運用を続ける。
		s.logger.Error("failed to persist snapshot", slog.String("error", err.Error()))
	}
}

// snapshotLocked は現在の状態からスナップショットを構築する。
func (s *Store) snapshotLocked() *snapshot {
	return &snapshot{
		Version:              snapshotVersion,
		Identity:             s.identity,
		Sessions:             s.sessions,
		Prefs:                s.prefs,
		ActionsByUser:        s.actionsByUser,
		NotificationsByUser:  s.notificationsByUser,
		Moderation:           s.moderation,
		NotificationSettings: s.notifySettings,
		Theme:                s.theme,
		LastViewedIndex:      s.lastViewedIndex,
	}
}

// identityKeyLocked は現在のアイデンティティのキーを返す。
// 未ログインおよびゲストの場合は空文字。
func (s *Store) identityKeyLocked() string {
	return s.identity.IdentityKey()
}

// --- アイデンティティ ---

// SetIdentity は現在のアイデンティティを置き換える。nilでログアウト。
// 旧アイデンティティの台帳・通知は削除されず、キー単位で保持されたまま
// アクセス不能になる。同じキーで再ログインすれば元のデータが再び見える。
func (s *Store) SetIdentity(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = u
	s.persistLocked()
}

// Identity は現在のアイデンティティを返す。未ログインの場合はnil。
func (s *Store) Identity() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// UpdateProfile は現在のアイデンティティの表示名とアバターURLを更新する。
// 未ログインの場合は何もしない。
func (s *Store) UpdateProfile(displayName, avatarURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return
	}
	if displayName != "" {
		s.identity.DisplayName = displayName
	}
	if avatarURL != "" {
		s.identity.AvatarURL = avatarURL
	}
	s.persistLocked()
}

// --- セッション ---

// PutSession はセッションを登録する。
func (s *Store) PutSession(sess *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.persistLocked()
}

// FindSession は指定IDの有効なセッションを返す。
// 期限切れセッションはその場で破棄してnilを返す。
func (s *Store) FindSession(id string) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, id)
		s.persistLocked()
		return nil
	}
	return sess
}

// DeleteSession は指定IDのセッションを削除する。
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	s.persistLocked()
}

// --- 選好プロファイル ---

// SetPreferences は選好プロファイルを全置換する。
// アイデンティティの有無は前提条件としない（ルーティング側でログインを要求する）。
func (s *Store) SetPreferences(p *model.PreferenceProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
	s.persistLocked()
}

// Preferences は現在の選好プロファイルを返す。未設定の場合はnil。
func (s *Store) Preferences() *model.PreferenceProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// --- 操作台帳 ---

// ToggleLiked は論文のlikedフラグを反転する。
// レコードがなければ liked=true で遅延生成する。savedとreadAtには触れない。
// アイデンティティがない場合は何もせずfalseを返す。
func (s *Store) ToggleLiked(paperID string) bool {
	return s.mutateInteraction(paperID, func(rec *model.Interaction) {
		rec.Liked = !rec.Liked
	}, func() model.Interaction {
		return model.Interaction{PaperID: paperID, Liked: true}
	})
}

// ToggleSaved は論文のsavedフラグを反転する。ToggleLikedと対称。
func (s *Store) ToggleSaved(paperID string) bool {
	return s.mutateInteraction(paperID, func(rec *model.Interaction) {
		rec.Saved = !rec.Saved
	}, func() model.Interaction {
		return model.Interaction{PaperID: paperID, Saved: true}
	})
}

// MarkRead は論文の既読時刻を現在時刻に設定する。
// 既に既読の場合も呼び出しごとに時刻を上書きする。
func (s *Store) MarkRead(paperID string) bool {
	now := s.now()
	return s.mutateInteraction(paperID, func(rec *model.Interaction) {
		rec.ReadAt = &now
	}, func() model.Interaction {
		return model.Interaction{PaperID: paperID, ReadAt: &now}
	})
}

// mutateInteraction は現在のアイデンティティの既存レコードをupdateで更新するか、
// 存在しなければcreateで遅延生成する。同一論文IDのレコードは常に1件にマージされる。
func (s *Store) mutateInteraction(paperID string, update func(*model.Interaction), create func() model.Interaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.identityKeyLocked()
	if key == "" {
		return false
	}

	actions := s.actionsByUser[key]
	found := false
	for i := range actions {
		if actions[i].PaperID == paperID {
			update(&actions[i])
			found = true
			break
		}
	}
	if !found {
		actions = append(actions, create())
	}
	s.actionsByUser[key] = actions
	s.persistLocked()
	return true
}

// Interaction は現在のアイデンティティの指定論文に対するレコードを返す。
// レコードまたはアイデンティティがない場合はnil。
func (s *Store) Interaction(paperID string) *model.Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := s.identityKeyLocked()
	if key == "" {
		return nil
	}
	for _, rec := range s.actionsByUser[key] {
		if rec.PaperID == paperID {
			c := rec
			return &c
		}
	}
	return nil
}

// Interactions は現在のアイデンティティの全レコードのコピーを返す。
func (s *Store) Interactions() []model.Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := s.identityKeyLocked()
	if key == "" {
		return nil
	}
	out := make([]model.Interaction, len(s.actionsByUser[key]))
	copy(out, s.actionsByUser[key])
	return out
}

// LikedPaperIDs はliked=trueの論文ID集合を操作順で返す。
func (s *Store) LikedPaperIDs() []string {
	return s.filterPaperIDs(func(rec model.Interaction) bool { return rec.Liked })
}

// SavedPaperIDs はsaved=trueの論文ID集合を操作順で返す。
func (s *Store) SavedPaperIDs() []string {
	return s.filterPaperIDs(func(rec model.Interaction) bool { return rec.Saved })
}

func (s *Store) filterPaperIDs(keep func(model.Interaction) bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := s.identityKeyLocked()
	if key == "" {
		return nil
	}
	var ids []string
	for _, rec := range s.actionsByUser[key] {
		if keep(rec) {
			ids = append(ids, rec.PaperID)
		}
	}
	return ids
}

// ReadEntry は既読履歴の1件を表す。
type ReadEntry struct {
	PaperID string    `json:"paper_id"`
	ReadAt  time.Time `json:"read_at"`
}

// ReadHistory は既読レコードをreadAt降順で返す。
func (s *Store) ReadHistory() []ReadEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := s.identityKeyLocked()
	if key == "" {
		return nil
	}
	var entries []ReadEntry
	for _, rec := range s.actionsByUser[key] {
		if rec.ReadAt != nil {
			entries = append(entries, ReadEntry{PaperID: rec.PaperID, ReadAt: *rec.ReadAt})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ReadAt.After(entries[j].ReadAt)
	})
	return entries
}

// DayGroup は暦日ごとの既読履歴を表す。
type DayGroup struct {
	Date    string      `json:"date"` // YYYY-MM-DD
	Entries []ReadEntry `json:"entries"`
}

// ReadHistoryByDay は既読履歴を暦日単位でグループ化し、新しい日から順に返す。
// グループ内はreadAt降順。
func (s *Store) ReadHistoryByDay() []DayGroup {
	history := s.ReadHistory()
	var groups []DayGroup
	for _, e := range history {
		day := e.ReadAt.Format("2006-01-02")
		if len(groups) > 0 && groups[len(groups)-1].Date == day {
			last := &groups[len(groups)-1]
			last.Entries = append(last.Entries, e)
			continue
		}
		groups = append(groups, DayGroup{Date: day, Entries: []ReadEntry{e}})
	}
	return groups
}

// --- モデレーションフィルタ ---

// HidePaper は論文を非表示集合に追加する。
func (s *Store) HidePaper(paperID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moderation.HiddenPaperIDs[paperID] = true
	s.persistLocked()
}

// UndoHidePaper は論文を非表示集合から外す。存在しない場合は何もしない。
func (s *Store) UndoHidePaper(paperID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.moderation.HiddenPaperIDs[paperID] {
		return
	}
	delete(s.moderation.HiddenPaperIDs, paperID)
	s.persistLocked()
}

// BlockAuthor は著者名をブロック集合に追加する。
func (s *Store) BlockAuthor(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moderation.BlockedAuthors[name] = true
	s.persistLocked()
}

// ExcludeTag はタグ名を除外集合に追加する。
func (s *Store) ExcludeTag(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moderation.ExcludedTags[tag] = true
	s.persistLocked()
}

// IsHidden は論文が非表示かを返す。
func (s *Store) IsHidden(paperID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moderation.HiddenPaperIDs[paperID]
}

// IsAuthorBlocked は著者がブロック済みかを返す。
func (s *Store) IsAuthorBlocked(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moderation.BlockedAuthors[name]
}

// IsTagExcluded はタグが除外済みかを返す。
func (s *Store) IsTagExcluded(tag string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moderation.ExcludedTags[tag]
}

// Moderation は3つのブロックリストのコピーを返す。
func (s *Store) Moderation() model.ModerationFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := model.NewModerationFilters()
	for k := range s.moderation.HiddenPaperIDs {
		out.HiddenPaperIDs[k] = true
	}
	for k := range s.moderation.BlockedAuthors {
		out.BlockedAuthors[k] = true
	}
	for k := range s.moderation.ExcludedTags {
		out.ExcludedTags[k] = true
	}
	return out
}

// --- 通知 ---

// AddNotification は現在のアイデンティティへ通知を追加する。
// 同じ論文IDの通知（既読・未読問わず）が既に存在する場合は追加しない。
// リスト先頭に挿入し、上限超過時は最も古いものを破棄する。
// 追加された通知を返す。追加されなかった場合はnil。
func (s *Store) AddNotification(typ model.NotificationType, paperID, title, message string) *model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.identityKeyLocked()
	if key == "" {
		return nil
	}

	for _, n := range s.notificationsByUser[key] {
		if n.PaperID == paperID {
			return nil
		}
	}

	n := model.Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		PaperID:   paperID,
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
	}

	list := append([]model.Notification{n}, s.notificationsByUser[key]...)
	if len(list) > model.MaxNotificationsPerUser {
		list = list[:model.MaxNotificationsPerUser]
	}
	s.notificationsByUser[key] = list
	s.persistLocked()
	return &n
}

// MarkNotificationRead は指定IDの通知を既読にする。
// 見つからない場合は何もしない。既読から未読へ戻すことはない。
func (s *Store) MarkNotificationRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.identityKeyLocked()
	if key == "" {
		return false
	}
	list := s.notificationsByUser[key]
	for i := range list {
		if list[i].ID == id {
			if !list[i].Read {
				list[i].Read = true
				s.persistLocked()
			}
			return true
		}
	}
	return false
}

// Notifications は現在のアイデンティティの通知一覧のコピーを返す。
// 未読を先頭に寄せ、未読・既読それぞれの中では新着順を保つ。
func (s *Store) Notifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := s.identityKeyLocked()
	if key == "" {
		return nil
	}
	out := make([]model.Notification, len(s.notificationsByUser[key]))
	copy(out, s.notificationsByUser[key])
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].Read && out[j].Read
	})
	return out
}

// HasNotificationFor は現在のアイデンティティに指定論文の通知が存在するかを返す。
func (s *Store) HasNotificationFor(paperID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := s.identityKeyLocked()
	if key == "" {
		return false
	}
	for _, n := range s.notificationsByUser[key] {
		if n.PaperID == paperID {
			return true
		}
	}
	return false
}

// UnreadCount は未読通知数を返す。
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := s.identityKeyLocked()
	if key == "" {
		return 0
	}
	count := 0
	for _, n := range s.notificationsByUser[key] {
		if !n.Read {
			count++
		}
	}
	return count
}

// --- 通知設定・テーマ・UI状態 ---

// SetNotificationSettings は通知種別ごとの有効/無効を更新する。
func (s *Store) SetNotificationSettings(ns model.NotificationSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifySettings = ns
	s.persistLocked()
}

// NotificationSettings は現在の通知設定を返す。
func (s *Store) NotificationSettings() model.NotificationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifySettings
}

// SetTheme は表示テーマを設定する。
func (s *Store) SetTheme(t model.Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = t
	s.persistLocked()
}

// Theme は現在の表示テーマを返す。
func (s *Store) Theme() model.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetLastViewedIndex は最後に表示したカルーセル位置を記録する。
func (s *Store) SetLastViewedIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastViewedIndex = i
	s.persistLocked()
}

// LastViewedIndex は最後に表示したカルーセル位置を返す。
func (s *Store) LastViewedIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastViewedIndex
}
