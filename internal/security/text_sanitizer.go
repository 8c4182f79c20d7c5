// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は食事の名前・説明などの自由記述テキストからマークアップを除去し、
// 保存される値を常にプレーンテキストに保つ。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はタグを全て除去し、前後の空白を取り除いたテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はbluemondayのStrictPolicyによるTextSanitizerの実装。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
// script, styleの中身はテキストとしても残さない。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses は文字実体参照で多重にエンコードされた入力を展開する上限回数。
const maxSanitizePasses = 8

// angleBrackets は上限回数で収束しなかった値から山括弧を取り除く。
var angleBrackets = strings.NewReplacer("<", "", ">", "")

// Sanitize はタグを除去したプレーンテキストを返す。
// 文字実体参照を元の文字に戻した結果が再びタグになる場合もあるため、
// 除去と復元を値が変わらなくなるまで繰り返す。
func (s *textSanitizer) Sanitize(raw string) string {
	out := raw
	for range maxSanitizePasses {
		next := s.pass(out)
		if next == out {
			return out
		}
		out = next
	}
	return angleBrackets.Replace(out)
}

func (s *textSanitizer) pass(v string) string {
	if v == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}
