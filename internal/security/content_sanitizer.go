// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はフィクスチャデータセット由来のアブストラクトや
// リポート本文をサニタイズする。収集元のHTMLが混入していても、許可リストに
// ない要素はすべて除去され、安全なテキスト中心のコンテンツだけが配信される。
package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// カタログのフィクスチャ読み込み時に使用される。
type ContentSanitizerService interface {
	// Sanitize はコンテンツをサニタイズして安全なテキストを返す。
	// 許可タグ（p, br, strong, em, code, sub, sup）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 論文アブストラクトは数式のsub/supと軽い強調以外のマークアップを必要と
// しないため、リンクや画像も含めて許可しない。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// script, iframe, style等は許可リストに含めないことで自動的に除去される。
	// on*イベント属性はbluemondayのデフォルトで許可されない。
	p.AllowElements(
		"p", "br",
		"strong", "em", "code",
		"sub", "sup",
	)

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はコンテンツをサニタイズして安全なテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
