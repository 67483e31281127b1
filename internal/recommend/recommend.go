// Package recommend は選好プロファイルと操作履歴に基づく論文レコメンドを提供する。
package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hitoshi/paperdeck/internal/model"
)

// スコアリング係数。フィードの単純ランキングよりも操作履歴を重く扱う。
const (
	citationWeight = 0.1
	trendingWeight = 0.3
	recencyWeight  = 0.2
	topicBonus     = 10.0
	// 専門性レベルによる補正
	researcherCitationBoost  = 0.2
	practitionerRecencyBoost = 0.3
	// モデレーション除外タグに触れる論文のペナルティ
	excludedTagPenalty = 0.1
	// リクエストで閲覧済みと指定された論文のペナルティ
	excludedIDPenalty = 0.1
	// 操作履歴ボーナス
	likedBonus = 50.0
	savedBonus = 30.0
)

// 1回の通知生成で積むおすすめ通知・タグ一致通知の上限。
const (
	maxRecommendationAlerts = 3
	maxTagMatchAlerts       = 5
)

// StateStore はレコメンド計算が参照するアプリケーション状態の窓口。
type StateStore interface {
	Identity() *model.User
	Preferences() *model.PreferenceProfile
	Interaction(paperID string) *model.Interaction
	IsTagExcluded(tag string) bool
	SavedPaperIDs() []string
	NotificationSettings() model.NotificationSettings
	AddNotification(typ model.NotificationType, paperID, title, message string) *model.Notification
}

// Catalog はレコメンド母集合を供給するカタログの窓口。
type Catalog interface {
	Papers() []model.Paper
	ListReports(tag string, limit int) []model.Report
}

// Request はレコメンド要求ごとに保存済み選好を上書きするパラメータ。
// Topicsが空なら保存済みトピック、Levelが空なら保存済みレベルを使う。
// ExcludeIDsに含まれる論文はスコアを大きく下げて沈める。
type Request struct {
	Topics     []model.TopicWeight  `json:"tags,omitempty"`
	Level      model.ExpertiseLevel `json:"level,omitempty"`
	DailyCount int                  `json:"daily_count,omitempty"`
	ExcludeIDs []string             `json:"exclude_ids,omitempty"`
}

// ScoredPaper はスコア付きのレコメンド結果1件。
type ScoredPaper struct {
	Paper model.Paper `json:"paper"`
	Score float64     `json:"score"`
}

// Metrics は通知生成のメトリクス記録の窓口。
type Metrics interface {
	RecordNotificationAdded(notificationType string)
}

// Service はレコメンド計算と通知生成を行う。
type Service struct {
	store   StateStore
	catalog Catalog
	metrics Metrics

	mu sync.Mutex
	// アイデンティティごとの最終通知生成フィンガープリント。
	// 同じ選好のまま再訪しても通知を積み直さないためのゲート。
	alerted map[string]string
}

// Option はServiceの生成オプション。
type Option func(*Service)

// WithMetrics は通知生成メトリクスの記録先を指定する。
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store StateStore, catalog Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		alerted: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// notify は通知を積み、積めた場合はメトリクスに記録してtrueを返す。
func (s *Service) notify(typ model.NotificationType, paperID, title, message string) bool {
	n := s.store.AddNotification(typ, paperID, title, message)
	if n == nil {
		return false
	}
	if s.metrics != nil {
		s.metrics.RecordNotificationAdded(string(typ))
	}
	return true
}

// Score は選好・専門性レベル・操作履歴・モデレーションを反映した
// レコメンドスコアを計算する。フィードの基礎ランキングとは独立した指標。
// reqが非nilの場合、トピック・レベルは保存済み選好よりリクエスト指定を優先する。
func (s *Service) Score(p *model.Paper, prefs *model.PreferenceProfile, req *Request) float64 {
	score := float64(p.Metrics.Citations)*citationWeight +
		p.Metrics.TrendingScore*trendingWeight +
		p.Metrics.RecencyScore*recencyWeight

	var topics []model.TopicWeight
	var level model.ExpertiseLevel
	if prefs != nil {
		topics = prefs.Topics
		level = prefs.Level
	}
	if req != nil {
		if len(req.Topics) > 0 {
			topics = req.Topics
		}
		if req.Level != "" {
			level = req.Level
		}
	}

	for _, topic := range topics {
		if p.HasTag(topic.Name) {
			weight := topic.Weight
			if weight == 0 {
				weight = model.DefaultTopicWeight
			}
			score += float64(weight) * topicBonus
		}
	}
	switch level {
	case model.LevelResearcher:
		score += float64(p.Metrics.Citations) * researcherCitationBoost
	case model.LevelPractitioner:
		score += p.Metrics.RecencyScore * practitionerRecencyBoost
	}

	if req != nil {
		for _, id := range req.ExcludeIDs {
			if id == p.ID {
				score *= excludedIDPenalty
				break
			}
		}
	}

	for _, tag := range p.Tags {
		if s.store.IsTagExcluded(tag) {
			score *= excludedTagPenalty
			break
		}
	}

	if inter := s.store.Interaction(p.ID); inter != nil {
		if inter.Liked {
			score += likedBonus
		}
		if inter.Saved {
			score += savedBonus
		}
	}
	return score
}

// Recommend はカタログ全体をスコアリングし、降順でlimit件返す。
// limitが0以下の場合は全件。同点は入力順を保つ。reqはnilでもよい。
func (s *Service) Recommend(req *Request, limit int) []ScoredPaper {
	prefs := s.store.Preferences()
	papers := s.catalog.Papers()

	scored := make([]ScoredPaper, 0, len(papers))
	for i := range papers {
		scored = append(scored, ScoredPaper{
			Paper: papers[i],
			Score: s.Score(&papers[i], prefs, req),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	return scored
}

// GenerateAlerts は現在のアイデンティティと選好に対する通知を生成し、
// 積んだ件数を返す。同じ(アイデンティティ, 選好)の組には一度しか生成しない。
// 通知ストア側の論文単位の重複排除と設定トグルも尊重する。
func (s *Service) GenerateAlerts() int {
	user := s.store.Identity()
	prefs := s.store.Preferences()
	if user == nil || user.IdentityKey() == "" || prefs == nil {
		return 0
	}

	fp := alertFingerprint(user.IdentityKey(), prefs)
	s.mu.Lock()
	if s.alerted[user.IdentityKey()] == fp {
		s.mu.Unlock()
		return 0
	}
	s.alerted[user.IdentityKey()] = fp
	s.mu.Unlock()

	settings := s.store.NotificationSettings()
	added := 0

	if settings.NewRecommendation {
		for _, sp := range s.Recommend(nil, maxRecommendationAlerts) {
			if s.notify(
				model.NotifyNewRecommendation,
				sp.Paper.ID,
				sp.Paper.Title,
				"あなたの選好に基づくおすすめ論文です",
			) {
				added++
			}
		}
	}

	if settings.TagMatch {
		added += s.generateTagMatchAlerts(prefs)
	}

	if settings.SavedUpdate {
		added += s.generateSavedUpdateAlerts()
	}
	return added
}

// generateTagMatchAlerts は選好トピックに一致する論文の通知を積む。
// カタログの並び順ではなくスコア降順で走査し、上位の一致論文から通知する。
func (s *Service) generateTagMatchAlerts(prefs *model.PreferenceProfile) int {
	added := 0
	for _, sp := range s.Recommend(nil, 0) {
		if added >= maxTagMatchAlerts {
			break
		}
		matched := ""
		for _, topic := range prefs.Topics {
			if sp.Paper.HasTag(topic.Name) {
				matched = topic.Name
				break
			}
		}
		if matched == "" {
			continue
		}
		if s.notify(
			model.NotifyTagMatch,
			sp.Paper.ID,
			sp.Paper.Title,
			fmt.Sprintf("タグ「%s」に一致する論文があります", matched),
		) {
			added++
		}
	}
	return added
}

// generateSavedUpdateAlerts は保存済み論文を参照する技術リポートの通知を積む。
func (s *Service) generateSavedUpdateAlerts() int {
	saved := make(map[string]bool)
	for _, id := range s.store.SavedPaperIDs() {
		saved[id] = true
	}
	if len(saved) == 0 {
		return 0
	}
	added := 0
	for _, r := range s.catalog.ListReports("", 0) {
		for _, pid := range r.RelatedPaperIDs {
			if !saved[pid] {
				continue
			}
			if s.notify(
				model.NotifySavedUpdate,
				pid,
				r.Title,
				"保存済み論文を扱うリポートが公開されています",
			) {
				added++
			}
			break
		}
	}
	return added
}

// alertFingerprint はアイデンティティと選好内容のダイジェストを返す。
// トピックは名前順に正規化し、順序の違いで別物と判定しない。
func alertFingerprint(identityKey string, prefs *model.PreferenceProfile) string {
	topics := make([]string, 0, len(prefs.Topics))
	for _, t := range prefs.Topics {
		topics = append(topics, fmt.Sprintf("%s:%d", strings.ToLower(t.Name), t.Weight))
	}
	sort.Strings(topics)
	h := sha256.Sum256([]byte(fmt.Sprintf(
		"%s|%s|%d|%s",
		identityKey, prefs.Level, prefs.DailyFeedTarget, strings.Join(topics, ","),
	)))
	return hex.EncodeToString(h[:])
}
