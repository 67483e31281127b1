// Package model はドメインモデルを定義する。
package model

import "strings"

// PaperMetrics は論文のスコアリング指標を表す。
type PaperMetrics struct {
	TrendingScore float64 `json:"trending_score" yaml:"trending_score"`
	RecencyScore  float64 `json:"recency_score" yaml:"recency_score"`
	Citations     int     `json:"citations" yaml:"citations"`
}

// Paper はフィクスチャデータセット内の論文を表す。
// カタログサービスが所有する読み取り専用データ。
type Paper struct {
	ID       string       `json:"id" yaml:"id"`
	Title    string       `json:"title" yaml:"title"`
	Authors  []string     `json:"authors" yaml:"authors"`
	Year     int          `json:"year" yaml:"year"`
	Venue    string       `json:"venue" yaml:"venue"`
	Tags     []string     `json:"tags" yaml:"tags"`
	Abstract string       `json:"abstract" yaml:"abstract"`
	PDFURL   string       `json:"pdf_url" yaml:"pdf_url"`
	Metrics  PaperMetrics `json:"metrics" yaml:"metrics"`
}

// HasTag は論文タグに指定タグが大文字小文字を無視して含まれるかを返す。
func (p *Paper) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// EvidenceScope は要約が論文のどの範囲を根拠としているかを表す。
type EvidenceScope string

const (
	// ScopeAbstract はアブストラクトのみを根拠とする要約。
	ScopeAbstract EvidenceScope = "abstract"
	// ScopeIntro は導入部までを根拠とする要約。
	ScopeIntro EvidenceScope = "intro"
	// ScopeFull は全文を根拠とする要約。
	ScopeFull EvidenceScope = "full"
)

// Summary は論文のAI風要約を表す。
type Summary struct {
	PaperID       string        `json:"paper_id" yaml:"paper_id"`
	HookOneLiner  string        `json:"hook_one_liner" yaml:"hook_one_liner"`
	KeyPoints     []string      `json:"key_points" yaml:"key_points"`
	Detailed      string        `json:"detailed" yaml:"detailed"`
	EvidenceScope EvidenceScope `json:"evidence_scope" yaml:"evidence_scope"`
}

// Report は複数論文をまとめた技術リポートを表す。
type Report struct {
	ID              string   `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	Summary         string   `json:"summary" yaml:"summary"`
	Tags            []string `json:"tags" yaml:"tags"`
	RelatedPaperIDs []string `json:"related_paper_ids" yaml:"related_paper_ids"`
}

// HasTag はリポートタグに指定タグが大文字小文字を無視して含まれるかを返す。
func (r *Report) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// AuthorStats は著者の業績統計を表す。
type AuthorStats struct {
	TotalPapers    int `json:"total_papers" yaml:"total_papers"`
	TotalCitations int `json:"total_citations" yaml:"total_citations"`
	HIndex         int `json:"h_index" yaml:"h_index"`
	I10Index       int `json:"i10_index" yaml:"i10_index"`
}

// EducationEntry は著者の学歴1件を表す。
type EducationEntry struct {
	Degree      string `json:"degree" yaml:"degree"`
	Field       string `json:"field" yaml:"field"`
	Institution string `json:"institution" yaml:"institution"`
	Year        int    `json:"year" yaml:"year"`
}

// PositionEntry は著者の職歴1件を表す。EndYearが0の場合は現職。
type PositionEntry struct {
	Title       string `json:"title" yaml:"title"`
	Institution string `json:"institution" yaml:"institution"`
	StartYear   int    `json:"start_year" yaml:"start_year"`
	EndYear     int    `json:"end_year,omitempty" yaml:"end_year"`
}

// Author は著者プロフィールを表す。
type Author struct {
	ID                string           `json:"id" yaml:"id"`
	Name              string           `json:"name" yaml:"name"`
	Affiliations      []string         `json:"affiliations" yaml:"affiliations"`
	Email             string           `json:"email,omitempty" yaml:"email"`
	Website           string           `json:"website,omitempty" yaml:"website"`
	AvatarURL         string           `json:"avatar_url,omitempty" yaml:"avatar_url"`
	Bio               string           `json:"bio,omitempty" yaml:"bio"`
	ResearchInterests []string         `json:"research_interests" yaml:"research_interests"`
	Stats             AuthorStats      `json:"stats" yaml:"stats"`
	Education         []EducationEntry `json:"education" yaml:"education"`
	Positions         []PositionEntry  `json:"positions" yaml:"positions"`
	Recommended       bool             `json:"recommended" yaml:"recommended"`
}

// TagInfo はタグ名・説明・論文数の組を表す。
type TagInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// SortMode は論文一覧のソート種別を表す。
type SortMode string

const (
	// SortTrending はトレンドスコア降順。
	SortTrending SortMode = "trending"
	// SortRecent は新着スコア降順。
	SortRecent SortMode = "recent"
	// SortCitations は被引用数降順。
	SortCitations SortMode = "citations"
	// SortDefault はトレンド+新着の合算降順（選好ボーナスなし）。
	SortDefault SortMode = ""
)

// ValidSortMode はソート種別が定義済みのいずれかであるかを返す。
func ValidSortMode(m SortMode) bool {
	switch m {
	case SortTrending, SortRecent, SortCitations, SortDefault:
		return true
	}
	return false
}
