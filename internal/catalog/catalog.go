// Package catalog は組み込みフィクスチャデータセットの読み取り機能を提供する。
package catalog

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hitoshi/paperdeck/internal/model"
	"github.com/hitoshi/paperdeck/internal/ranking"
	"github.com/hitoshi/paperdeck/internal/security"
)

//go:embed fixtures/*.yaml
var fixtureFS embed.FS

// Service はフィクスチャカタログへの読み取り専用アクセスを提供する。
// 全データは起動時に一度だけロードされ、以後は不変。
type Service struct {
	papers     []model.Paper
	paperByID  map[string]*model.Paper
	summaries  map[string]*model.Summary
	reports    []model.Report
	reportByID map[string]*model.Report
	authors    []model.Author
	authorByID map[string]*model.Author
	tagOrder   []string
	tagDescs   map[string]string
}

type paperFixture struct {
	Papers []model.Paper `yaml:"papers"`
}

type summaryFixture struct {
	Summaries []model.Summary `yaml:"summaries"`
}

type reportFixture struct {
	Reports []model.Report `yaml:"reports"`
}

type authorFixture struct {
	Authors []model.Author `yaml:"authors"`
}

type tagFixture struct {
	Tags []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"tags"`
}

// NewService は組み込みフィクスチャをロードしてServiceを生成する。
// アブストラクトとリポート要約はロード時にサニタイズされる。
func NewService(sanitizer security.ContentSanitizerService) (*Service, error) {
	var pf paperFixture
	if err := loadFixture("fixtures/papers.yaml", &pf); err != nil {
		return nil, err
	}
	var sf summaryFixture
	if err := loadFixture("fixtures/summaries.yaml", &sf); err != nil {
		return nil, err
	}
	var rf reportFixture
	if err := loadFixture("fixtures/reports.yaml", &rf); err != nil {
		return nil, err
	}
	var af authorFixture
	if err := loadFixture("fixtures/authors.yaml", &af); err != nil {
		return nil, err
	}
	var tf tagFixture
	if err := loadFixture("fixtures/tags.yaml", &tf); err != nil {
		return nil, err
	}

	s := &Service{
		papers:     pf.Papers,
		paperByID:  make(map[string]*model.Paper, len(pf.Papers)),
		summaries:  make(map[string]*model.Summary, len(sf.Summaries)),
		reports:    rf.Reports,
		reportByID: make(map[string]*model.Report, len(rf.Reports)),
		authors:    af.Authors,
		authorByID: make(map[string]*model.Author, len(af.Authors)),
		tagDescs:   make(map[string]string, len(tf.Tags)),
	}
	for i := range s.papers {
		p := &s.papers[i]
		p.Abstract = strings.TrimSpace(sanitizer.Sanitize(p.Abstract))
		if _, ok := s.paperByID[p.ID]; ok {
			return nil, fmt.Errorf("duplicate paper id: %s", p.ID)
		}
		s.paperByID[p.ID] = p
	}
	for i := range sf.Summaries {
		sum := &sf.Summaries[i]
		if _, ok := s.paperByID[sum.PaperID]; !ok {
			return nil, fmt.Errorf("summary references unknown paper: %s", sum.PaperID)
		}
		s.summaries[sum.PaperID] = sum
	}
	for i := range s.reports {
		r := &s.reports[i]
		r.Summary = strings.TrimSpace(sanitizer.Sanitize(r.Summary))
		s.reportByID[r.ID] = r
		for _, pid := range r.RelatedPaperIDs {
			if _, ok := s.paperByID[pid]; !ok {
				return nil, fmt.Errorf("report %s references unknown paper: %s", r.ID, pid)
			}
		}
	}
	for i := range s.authors {
		a := &s.authors[i]
		s.authorByID[a.ID] = a
	}
	for _, t := range tf.Tags {
		s.tagOrder = append(s.tagOrder, t.Name)
		s.tagDescs[t.Name] = t.Description
	}
	return s, nil
}

func loadFixture(name string, out any) error {
	data, err := fixtureFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse fixture %s: %w", name, err)
	}
	return nil
}

// ListPapers はタグとソート種別で絞り込んだ論文一覧を返す。
// limitが0以下の場合は全件を返す。戻り値は呼び出し側が自由に変更してよいコピー。
func (s *Service) ListPapers(tag string, mode model.SortMode, limit int) []model.Paper {
	filtered := make([]model.Paper, 0, len(s.papers))
	for i := range s.papers {
		if tag != "" && !s.papers[i].HasTag(tag) {
			continue
		}
		filtered = append(filtered, s.papers[i])
	}
	sorted := ranking.SortBy(filtered, mode)
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// GetPaper はIDで論文を返す。見つからない場合はfalse。
func (s *Service) GetPaper(id string) (model.Paper, bool) {
	p, ok := s.paperByID[id]
	if !ok {
		return model.Paper{}, false
	}
	return *p, true
}

// GetSummary は論文IDに対応する要約を返す。要約がない論文もある。
func (s *Service) GetSummary(paperID string) (model.Summary, bool) {
	sum, ok := s.summaries[paperID]
	if !ok {
		return model.Summary{}, false
	}
	return *sum, true
}

// ListReports はタグで絞り込んだ技術リポート一覧を返す。
func (s *Service) ListReports(tag string, limit int) []model.Report {
	filtered := make([]model.Report, 0, len(s.reports))
	for i := range s.reports {
		if tag != "" && !s.reports[i].HasTag(tag) {
			continue
		}
		filtered = append(filtered, s.reports[i])
	}
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered
}

// GetReport はIDで技術リポートを返す。
func (s *Service) GetReport(id string) (model.Report, bool) {
	r, ok := s.reportByID[id]
	if !ok {
		return model.Report{}, false
	}
	return *r, true
}

// ListAuthors は著者一覧を返す。recommendedOnlyの場合はおすすめ著者のみ。
func (s *Service) ListAuthors(recommendedOnly bool, limit int) []model.Author {
	filtered := make([]model.Author, 0, len(s.authors))
	for i := range s.authors {
		if recommendedOnly && !s.authors[i].Recommended {
			continue
		}
		filtered = append(filtered, s.authors[i])
	}
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered
}

// GetAuthor はIDで著者プロフィールを返す。
func (s *Service) GetAuthor(id string) (model.Author, bool) {
	a, ok := s.authorByID[id]
	if !ok {
		return model.Author{}, false
	}
	return *a, true
}

// ListAuthorPapers は著者の論文一覧を返す。
// 論文側の著者表記は揺れがあるため、姓の部分一致または氏名の完全一致で判定する。
func (s *Service) ListAuthorPapers(authorID string) ([]model.Paper, bool) {
	a, ok := s.authorByID[authorID]
	if !ok {
		return nil, false
	}
	fullName := strings.ToLower(a.Name)
	lastName := fullName
	if fields := strings.Fields(fullName); len(fields) > 0 {
		lastName = fields[len(fields)-1]
	}
	var result []model.Paper
	for i := range s.papers {
		for _, name := range s.papers[i].Authors {
			nameLower := strings.ToLower(name)
			if nameLower == fullName || strings.Contains(nameLower, lastName) {
				result = append(result, s.papers[i])
				break
			}
		}
	}
	return result, true
}

// ListTags は定義済みタグを表示順に、説明と論文数付きで返す。
func (s *Service) ListTags() []model.TagInfo {
	counts := s.tagCounts()
	tags := make([]model.TagInfo, 0, len(s.tagOrder))
	for _, name := range s.tagOrder {
		tags = append(tags, model.TagInfo{
			Name:        name,
			Description: s.tagDescs[name],
			Count:       counts[name],
		})
	}
	return tags
}

// TrendingTags は論文数の多い順にタグを返す。同数の場合は名前順。
// 説明が未定義のタグには既定の説明文を補う。
func (s *Service) TrendingTags(limit int) []model.TagInfo {
	counts := s.tagCounts()
	tags := make([]model.TagInfo, 0, len(counts))
	for name, count := range counts {
		desc, ok := s.tagDescs[name]
		if !ok {
			desc = fmt.Sprintf("%s 関連論文", name)
		}
		tags = append(tags, model.TagInfo{Name: name, Description: desc, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Name < tags[j].Name
	})
	if limit > 0 && limit < len(tags) {
		tags = tags[:limit]
	}
	return tags
}

// Papers は全論文のコピーを返す。フィードやレコメンドの母集合として使う。
func (s *Service) Papers() []model.Paper {
	out := make([]model.Paper, len(s.papers))
	copy(out, s.papers)
	return out
}

func (s *Service) tagCounts() map[string]int {
	counts := make(map[string]int)
	for i := range s.papers {
		for _, t := range s.papers[i].Tags {
			counts[t]++
		}
	}
	return counts
}
