// Package feed はパーソナライズドフィードの組み立てを提供する。
package feed

import (
	"log/slog"

	"github.com/hitoshi/paperdeck/internal/model"
	"github.com/hitoshi/paperdeck/internal/ranking"
)

// StateStore はフィード組み立てが参照するアプリケーション状態の窓口。
type StateStore interface {
	Preferences() *model.PreferenceProfile
	Moderation() model.ModerationFilters
	LastViewedIndex() int
}

// Catalog はフィードの母集合を供給するカタログの窓口。
type Catalog interface {
	Papers() []model.Paper
}

// AlertGenerator はフィード閲覧時の通知生成の窓口。
type AlertGenerator interface {
	GenerateAlerts() int
}

// Metrics はフィード配信のメトリクス記録の窓口。
type Metrics interface {
	RecordFeedServed(papers int)
}

// Service はパーソナライズドフィードを組み立てるサービス。
type Service struct {
	store         StateStore
	catalog       Catalog
	alerts        AlertGenerator
	metrics       Metrics
	featuredCount int
}

// NewService はServiceを生成する。alertsとmetricsはnilでもよい。
func NewService(store StateStore, catalog Catalog, alerts AlertGenerator, metrics Metrics, featuredCount int) *Service {
	if featuredCount <= 0 {
		featuredCount = ranking.DefaultFeaturedCount
	}
	return &Service{
		store:         store,
		catalog:       catalog,
		alerts:        alerts,
		metrics:       metrics,
		featuredCount: featuredCount,
	}
}

// Result は組み立て済みフィード。
type Result struct {
	Featured        []model.Paper `json:"featured"`
	Papers          []model.Paper `json:"papers"`
	LastViewedIndex int           `json:"last_viewed_index"`
}

// BuildFeed は現在の選好とモデレーション設定を反映したフィードを返す。
// 手順: モデレーション除外 → 選好ランキング → 件数目標で切り詰め → 注目枠抽出。
// フィード閲覧に合わせて通知生成も走らせる。
func (s *Service) BuildFeed() *Result {
	papers := s.catalog.Papers()
	mod := s.store.Moderation()

	visible := make([]model.Paper, 0, len(papers))
	hidden := 0
	for i := range papers {
		if s.isFilteredOut(&papers[i], &mod) {
			hidden++
			continue
		}
		visible = append(visible, papers[i])
	}

	prefs := s.store.Preferences()
	ranked := ranking.Rank(visible, prefs)

	target := model.DefaultDailyFeedTarget
	if prefs != nil {
		target = prefs.DailyFeedTarget
	}
	if target > 0 && target < len(ranked) {
		ranked = ranked[:target]
	}

	featured := ranking.Featured(ranked, s.featuredCount)

	if s.alerts != nil {
		if added := s.alerts.GenerateAlerts(); added > 0 {
			slog.Info("feed alerts generated", slog.Int("count", added))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordFeedServed(len(ranked))
	}

	slog.Debug("feed built",
		slog.Int("papers", len(ranked)),
		slog.Int("hidden", hidden),
	)

	return &Result{
		Featured:        featured,
		Papers:          ranked,
		LastViewedIndex: s.store.LastViewedIndex(),
	}
}

// isFilteredOut はモデレーション設定で除外される論文かを返す。
// 非表示ID・ブロック著者・除外タグの3つは独立に効く。
func (s *Service) isFilteredOut(p *model.Paper, mod *model.ModerationFilters) bool {
	if mod.HiddenPaperIDs[p.ID] {
		return true
	}
	for _, a := range p.Authors {
		if mod.BlockedAuthors[a] {
			return true
		}
	}
	for _, t := range p.Tags {
		if mod.ExcludedTags[t] {
			return true
		}
	}
	return false
}
