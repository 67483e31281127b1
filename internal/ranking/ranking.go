// Package ranking はフィード並び順を決める純粋なスコアリング関数を提供する。
package ranking

import (
	"sort"

	"github.com/hitoshi/paperdeck/internal/model"
)

// topicBonusFactor は選好タグ一致1件あたりのボーナス係数。
// ボーナス = 重み × 10。
const topicBonusFactor = 10

// DefaultFeaturedCount は注目論文（カルーセル）として選出する件数。
const DefaultFeaturedCount = 5

// Score は論文1件の個人化スコアを返す。
// base = trending + recency。論文タグと大文字小文字を無視して一致した
// 選好トピックごとに weight×10 を加算する。prefsがnilの場合はbaseのみ。
// 決定的であり、一致した重みに対して単調増加する。
func Score(p *model.Paper, prefs *model.PreferenceProfile) float64 {
	score := p.Metrics.TrendingScore + p.Metrics.RecencyScore
	if prefs == nil {
		return score
	}
	for _, topic := range prefs.Topics {
		if p.HasTag(topic.Name) {
			score += float64(topic.Weight * topicBonusFactor)
		}
	}
	return score
}

// Rank は論文リストをスコア降順で並べた新しいスライスを返す。
// 同点の場合は入力順を保つ（安定ソート）。入力は変更しない。
func Rank(papers []model.Paper, prefs *model.PreferenceProfile) []model.Paper {
	ranked := make([]model.Paper, len(papers))
	copy(ranked, papers)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(&ranked[i], prefs) > Score(&ranked[j], prefs)
	})
	return ranked
}

// Featured はランキング済みリストの先頭n件を返す。
func Featured(ranked []model.Paper, n int) []model.Paper {
	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	return ranked[:n]
}

// SortBy は検索・一覧用の単純ソートを行った新しいスライスを返す。
// これらのモードは選好ボーナスを使わない（意図的に単純な並びとする）。
// 同点の場合は入力順を保つ。
func SortBy(papers []model.Paper, mode model.SortMode) []model.Paper {
	sorted := make([]model.Paper, len(papers))
	copy(sorted, papers)

	var key func(p *model.Paper) float64
	switch mode {
	case model.SortTrending:
		key = func(p *model.Paper) float64 { return p.Metrics.TrendingScore }
	case model.SortRecent:
		key = func(p *model.Paper) float64 { return p.Metrics.RecencyScore }
	case model.SortCitations:
		key = func(p *model.Paper) float64 { return float64(p.Metrics.Citations) }
	default:
		key = func(p *model.Paper) float64 { return p.Metrics.TrendingScore + p.Metrics.RecencyScore }
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return key(&sorted[i]) > key(&sorted[j])
	})
	return sorted
}
