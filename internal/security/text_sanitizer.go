package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は外部APIから受け取った表示用文字列（選手名・大会名など）からマークアップを除去する。
// bluemondayのStrictPolicyで全タグを落とし、script/styleの中身も捨てる。
// 出力はJSONの文字列として返すため、エスケープされた実体参照は元の文字に戻す。
// 複数のgoroutineから同時に使用してよい。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタグを除去したプレーンテキストを返す。前後の空白は取り除く。
func (s *TextSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
