// Package llm は外部LLM API（Groq）のchat-completion呼び出しを提供する。
//
// OpenAI互換のchat completionsエンドポイントに対してHTTPで問い合わせ、
// モデルの応答テキストを返す。タイムアウトと1回の再試行を備えており、
// 低速・不安定な外部APIが呼び出し元を無限に待たせることはない。
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// requestTimeout は1回のAPI呼び出しに許容する最大時間。
const requestTimeout = 30 * time.Second

// retryInterval は再試行までの待機時間。
const retryInterval = 500 * time.Millisecond

// maxErrorBodySize はエラーレスポンスボディの最大読み取りサイズ。
const maxErrorBodySize = 4096

// Message はchat-completion APIに送信するメッセージ。
type Message struct {
	// Role はメッセージの役割（"system" または "user"）。
	Role string `json:"role"`
	// Content はメッセージ本文。
	Content string `json:"content"`
}

// Request はchat-completion APIへのリクエストパラメータ。
type Request struct {
	// Model は使用するモデルID。
	Model string `json:"model"`
	// Messages はsystem/userロールのメッセージリスト。
	Messages []Message `json:"messages"`
	// Temperature は出力のランダム性（0.0〜2.0）。
	Temperature float64 `json:"temperature"`
	// MaxTokens は出力トークン数の上限。
	MaxTokens int `json:"max_tokens"`
}

// ChatCompleter はchat-completion呼び出しのインターフェース。
// オーケストレータのテストではフェイク実装に差し替える。
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req Request) (string, error)
}

// Client はGroqのOpenAI互換APIを呼び出すHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// apiURL はchat completionsエンドポイントのURL。
	apiURL string
	// apiKey はBearer認証に使用するAPIキー。
	apiKey string
}

// New は新しいLLMクライアントを生成する。
func New(apiURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		apiURL: apiURL,
		apiKey: apiKey,
	}
}

// chatCompletionResponse はchat completions APIのレスポンスに対応する構造体。
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatCompletion はchat-completion APIを呼び出し、モデルの応答テキストを返す。
// 通信エラーまたは5xxレスポンスの場合は1回だけ再試行する。
func (c *Client) ChatCompletion(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("再試行前にコンテキストがキャンセルされた: %w", ctx.Err())
			case <-time.After(retryInterval):
			}
		}

		text, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

// doRequest は1回のchat-completion呼び出しを実行する。
// 再試行する価値のある失敗（通信エラー・5xx）の場合はretryable=trueを返す。
func (c *Client) doRequest(ctx context.Context, body []byte) (text string, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// APIキーはAuthorizationヘッダーでのみ送信し、エラーやログには含めない
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if readErr != nil {
			errBody = nil
		}
		return "", resp.StatusCode >= 500,
			fmt.Errorf("APIエラー: status=%d, body=%s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var payload chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false, fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", false, fmt.Errorf("レスポンスにchoicesが含まれていません")
	}
	return payload.Choices[0].Message.Content, false, nil
}
