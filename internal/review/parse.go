package review

import "strings"

// reviewMarker と suggestionsMarker はレビュー応答の構造化マーカー。
// プロンプトでモデルにこの形式での出力を要求する。
const (
	reviewMarker      = "REVIEW:"
	suggestionsMarker = "SUGGESTIONS:"
)

// codeSentinel はリライト応答で修正済みコードの開始を示すセンチネル行。
// 通常のコードに現れにくい文字列を使うことで、かつての "Output" のような
// 単語一致による誤分割を避ける。
const codeSentinel = "===FIXED_CODE==="

// improvementsMarker はリライト応答の改善点リストの開始マーカー。
const improvementsMarker = "Improvements:"

// parseReview はモデルの自由テキスト応答をレビュー本文と提案リストに分解する。
// REVIEW:マーカーが存在する場合は次のSUGGESTIONS:マーカーまで（無ければ末尾まで）を
// レビュー本文とし、存在しない場合は応答全体をレビュー本文とする。
// 提案が1件も抽出できなかった場合、返される提案リストは空になる。
func parseReview(text string) (string, []string) {
	reviewBody := strings.TrimSpace(text)
	if _, after, found := strings.Cut(text, reviewMarker); found {
		body, _, _ := strings.Cut(after, suggestionsMarker)
		reviewBody = strings.TrimSpace(body)
	}

	var suggestions []string
	if _, after, found := strings.Cut(text, suggestionsMarker); found {
		suggestions = parseBullets(after)
	}
	return reviewBody, suggestions
}

// parseRewrite はモデルの自由テキスト応答を修正済みコードと改善点リストに分解する。
// センチネル行が存在する場合はその後続部分を、無い場合は応答全体を
// 修正済みコードとする。Improvements:セクションはコードには含めない。
func parseRewrite(text string) (string, []string) {
	code := text
	if _, after, found := strings.Cut(text, codeSentinel); found {
		code = after
	}
	if before, _, found := strings.Cut(code, improvementsMarker); found {
		code = before
	}
	code = strings.TrimSpace(code)

	var improvements []string
	if _, after, found := strings.Cut(text, improvementsMarker); found {
		improvements = parseBullets(after)
	}
	return code, improvements
}

// parseBullets は "-" または "*" で始まる行を箇条書き項目として抽出する。
// マーカーは取り除かれ、前後の空白はトリムされる。出現順を保持する。
func parseBullets(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if item, found := strings.CutPrefix(line, "-"); found {
			items = append(items, strings.TrimSpace(item))
			continue
		}
		if item, found := strings.CutPrefix(line, "*"); found {
			items = append(items, strings.TrimSpace(item))
		}
	}
	return items
}
