// Package review はコードレビューとコード修正のオーケストレータを提供する。
//
// 言語別のプロンプトを組み立てて外部LLMに問い合わせ、自由テキストの
// 応答をマーカーベースで構造化された結果に変換する。モデル呼び出しの
// 失敗は境界内で握りつぶし、必ず描画可能な結果を返す（応答には
// 明示的なdegradedフラグが立つ）。
package review

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nao1215/reviewhub/internal/llm"
)

// ReviewResult はコードレビューの構造化された結果。
type ReviewResult struct {
	// Review はレビュー本文。
	Review string `json:"review"`
	// Suggestions は改善提案のリスト（出現順）。
	Suggestions []string `json:"suggestions"`
	// Degraded はモデル呼び出しの失敗によりフォールバック結果に
	// 縮退したことを表す。クライアントはレビュー本文の文字列照合では
	// なくこのフラグで縮退を検知できる。
	Degraded bool `json:"degraded"`
}

// RewriteResult はコード修正の構造化された結果。
type RewriteResult struct {
	// RewrittenCode は修正済みのコード。
	RewrittenCode string `json:"rewritten_code"`
	// Improvements は適用された改善点のリスト（出現順）。
	Improvements []string `json:"improvements"`
	// Degraded はモデル呼び出しの失敗によりフォールバック結果に
	// 縮退したことを表す。
	Degraded bool `json:"degraded"`
}

// languagePrompts は言語別のレビュー指示テンプレート。
// キーは小文字の言語名。未知の言語はdefaultPromptにフォールバックする。
var languagePrompts = map[string]string{
	"python":     "Analyze this Python code for syntax, style (PEP 8), best practices, and potential issues.",
	"javascript": "Analyze this JavaScript code for syntax, ES6+ features, best practices, and potential issues.",
	"java":       "Analyze this Java code for syntax, conventions, best practices, and potential issues.",
	"cpp":        "Analyze this C++ code for syntax, modern C++ practices, memory management, and potential issues.",
	"c":          "Analyze this C code for syntax, memory management, best practices, and potential issues.",
	"html":       "Analyze this HTML code for structure, accessibility, best practices, and potential issues.",
	"css":        "Analyze this CSS code for syntax, layout, responsiveness, best practices, and potential issues.",
}

// defaultPrompt は未知の言語に対する汎用のレビュー指示テンプレート。
const defaultPrompt = "Analyze this code for syntax, best practices, and potential issues."

// reviewSystemPrompt はレビュー時にモデルへ与えるシステム指示。
const reviewSystemPrompt = "You are an expert code reviewer. Provide detailed, constructive feedback on code quality, best practices, and potential improvements."

// rewriteSystemPrompt はコード修正時にモデルへ与えるシステム指示。
const rewriteSystemPrompt = "Fix code errors. Return only the corrected code. No other text."

// fallbackSuggestions は提案を1件も抽出できなかった場合の固定の提案リスト。
var fallbackSuggestions = []string{
	"コードの構造と構成を見直してください",
	"エラーハンドリングが適切かを確認してください",
	"コードがベストプラクティスに沿っているかを確認してください",
}

// fallbackImprovements は改善点を1件も抽出できなかった場合の固定のリスト。
var fallbackImprovements = []string{
	"構文エラーを修正しました",
	"コードにエラーはありません",
}

// degradedHint はモデル呼び出しの失敗時に返す単一のフォールバック提案。
const degradedHint = "時間をおいて再試行するか、API設定を確認してください"

// Orchestrator はレビューとリライトのオーケストレータ。
// ステートレスであり、複数goroutineから同時に呼び出しても安全である。
type Orchestrator struct {
	// client はchat-completion呼び出しのクライアント。
	client llm.ChatCompleter
	// model は使用するモデルID。
	model string
}

// NewOrchestrator は新しいオーケストレータを生成する。
func NewOrchestrator(client llm.ChatCompleter, model string) *Orchestrator {
	return &Orchestrator{client: client, model: model}
}

// Review はコードを外部モデルでレビューし、構造化された結果を返す。
// モデル呼び出しの失敗は縮退した結果に変換され、このメソッドが
// エラーを返すことはない。失敗の詳細はサーバー側ログに記録される。
func (o *Orchestrator) Review(ctx context.Context, code, language string) ReviewResult {
	instruction, ok := languagePrompts[strings.ToLower(language)]
	if !ok {
		instruction = defaultPrompt
	}

	prompt := fmt.Sprintf(`%s

Code:
`+"```%s\n%s\n```"+`

Provide a concise review in this format:
%s [Your review text here]

%s
- [Suggestion 1]
- [Suggestion 2]
- [Suggestion 3]

Keep it brief and focused on the most important points.`,
		instruction, language, code, reviewMarker, suggestionsMarker)

	text, err := o.client.ChatCompletion(ctx, llm.Request{
		Model: o.model,
		Messages: []llm.Message{
			{Role: "system", Content: reviewSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		log.Printf("コードレビューのモデル呼び出しに失敗: %v", err)
		return ReviewResult{
			Review:      "コードレビューの実行中にエラーが発生しました",
			Suggestions: []string{degradedHint},
			Degraded:    true,
		}
	}

	reviewBody, suggestions := parseReview(text)
	if len(suggestions) == 0 {
		suggestions = fallbackSuggestions
	}
	return ReviewResult{Review: reviewBody, Suggestions: suggestions}
}

// Rewrite はコードの誤りを外部モデルで修正し、構造化された結果を返す。
// Reviewと同様に、モデル呼び出しの失敗は縮退した結果に変換される。
func (o *Orchestrator) Rewrite(ctx context.Context, code, language string) RewriteResult {
	prompt := fmt.Sprintf(`Fix errors in this %s code. Return only the corrected code.

Input:
%s

Write the line %s followed by the fixed code, then a %s section listing the fixes as "- " bullet points.`,
		language, code, codeSentinel, improvementsMarker)

	text, err := o.client.ChatCompletion(ctx, llm.Request{
		Model: o.model,
		Messages: []llm.Message{
			{Role: "system", Content: rewriteSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   1500,
	})
	if err != nil {
		log.Printf("コード修正のモデル呼び出しに失敗: %v", err)
		return RewriteResult{
			RewrittenCode: "コード修正の実行中にエラーが発生しました",
			Improvements:  []string{degradedHint},
			Degraded:      true,
		}
	}

	rewritten, improvements := parseRewrite(text)
	if len(improvements) == 0 {
		improvements = fallbackImprovements
	}
	return RewriteResult{RewrittenCode: rewritten, Improvements: improvements}
}
