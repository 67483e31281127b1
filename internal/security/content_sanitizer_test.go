package security

import "testing"

// TestContentSanitizer_RemovesScript はscriptタグとイベント属性が除去されることをテストする。
func TestContentSanitizer_RemovesScript(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "scriptタグの除去",
			input: `We study <script>alert("x")</script>attention mechanisms.`,
			want:  `We study attention mechanisms.`,
		},
		{
			name:  "イベント属性付き要素の除去",
			input: `<p onclick="steal()">Transformers scale well.</p>`,
			want:  `<p>Transformers scale well.</p>`,
		},
		{
			name:  "iframeの除去",
			input: `Results<iframe src="https://evil.example"></iframe> hold.`,
			want:  `Results hold.`,
		},
		{
			name:  "リンクはテキストのみ残す",
			input: `See <a href="https://arxiv.org/abs/1706.03762">the paper</a>.`,
			want:  `See the paper.`,
		},
		{
			name:  "許可タグの保持",
			input: `Loss drops by <strong>12%</strong> with O(n<sup>2</sup>) cost.`,
			want:  `Loss drops by <strong>12%</strong> with O(n<sup>2</sup>) cost.`,
		},
		{
			name:  "空入力",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestContentSanitizer_Idempotent は同一入力へのサニタイズが冪等であることをテストする。
func TestContentSanitizer_Idempotent(t *testing.T) {
	s := NewContentSanitizer()
	input := `<p>We propose <em>sparse</em> attention<script>x()</script>.</p>`

	once := s.Sanitize(input)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("Sanitize is not idempotent: %q != %q", once, twice)
	}
}
