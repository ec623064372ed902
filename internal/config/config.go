// Package config は環境変数からのサーバー設定の読み込みを提供する。
//
// 秘密鍵やAPIキーなどの必須項目が欠けている場合は起動時に即座に失敗する。
// ハードコードされたフォールバック値を持たないことで、設定漏れのまま
// デプロイされる事故を防ぐ。
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config はreviewhubサーバーの全設定を保持する。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `env:"PORT" envDefault:"8000"`
	// SecretKey はアクセストークン署名用の対称秘密鍵。必須。
	SecretKey string `env:"SECRET_KEY,required"`
	// GroqAPIKey は外部LLM API（Groq）の認証キー。必須。
	GroqAPIKey string `env:"GROQ_API_KEY,required"`
	// GroqAPIURL はchat-completion APIのエンドポイントURL。
	GroqAPIURL string `env:"GROQ_API_URL" envDefault:"https://api.groq.com/openai/v1/chat/completions"`
	// GroqModel はレビュー・リライトに使用するモデルID。
	GroqModel string `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	// FrontendURL はCORSで許可するフロントエンドのオリジン。
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	// DebugEndpoints はデバッグ用エンドポイント（ユーザー一覧・リセット）を
	// 有効にするかどうか。本番環境では必ず無効にすること。
	DebugEndpoints bool `env:"DEBUG_ENDPOINTS" envDefault:"false"`
	// MockOAuth はモックOAuthエンドポイント（/auth/github, /auth/google）を
	// 有効にするかどうか。実際のトークン交換を行わないデモ専用の実装のため、
	// 本番環境では必ず無効にすること。
	MockOAuth bool `env:"MOCK_OAUTH" envDefault:"true"`
}

// Load は環境変数から設定を読み込む。
// 必須項目（SECRET_KEY, GROQ_API_KEY）が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	return cfg, nil
}
