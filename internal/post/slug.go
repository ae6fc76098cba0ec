package post

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugTransformer はNFD分解後に結合文字（アクセント記号）を除去する。
// 生成はパッケージ初期化時の一度のみ。
var slugTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Slugify はタイトルからURL安全なスラッグを生成する。
// アクセント付き文字は基底文字に分解され（é → e）、
// & は "-and-" に、英数字以外の連続はハイフン1つに置換される。
func Slugify(title string) string {
	folded, _, err := transform.String(slugTransformer, title)
	if err != nil {
		// 変換に失敗した場合は元の文字列から続行する
		folded = title
	}

	s := strings.ToLower(strings.TrimSpace(folded))
	s = strings.ReplaceAll(s, "&", "-and-")

	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			prevHyphen = false
			continue
		}
		if !prevHyphen {
			b.WriteByte('-')
			prevHyphen = true
		}
	}

	return strings.Trim(b.String(), "-")
}
