package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenVerifier はBearerトークンを検証し、サブジェクト
// （メールアドレス）を返すインターフェース。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserResolver はメールアドレスに対応するユーザーの存在を確認する
// インターフェース。有効なトークンが削除済みユーザーを指している
// ケースを認証ゲートで弾くために使用する。
type UserResolver interface {
	Exists(ctx context.Context, email string) (bool, error)
}

// contextKeyEmail は認証済みユーザーのメールアドレスをginコンテキストに
// 格納するためのキー。
const contextKeyEmail = "email"

// Auth はBearerトークンを検証するGinミドルウェアを返す。
// トークンの検証に成功し、かつサブジェクトのユーザーがクレデンシャル
// ストアに存在する場合のみ後続のハンドラに処理を渡す。
// 検証に成功した場合、コンテキストに "email" を設定する。
func Auth(verifier TokenVerifier, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		email, err := verifier.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		// トークンが有効でも、ユーザーが削除済みの場合は認証を拒否する
		exists, err := users.Exists(c.Request.Context(), email)
		if err != nil || !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "ユーザーが見つかりません",
			})
			return
		}

		c.Set(contextKeyEmail, email)
		c.Next()
	}
}

// GetEmail はGinコンテキストから認証済みユーザーのメールアドレスを取得する。
// Authミドルウェアが事前に適用されている必要がある。
func GetEmail(c *gin.Context) string {
	email, _ := c.Get(contextKeyEmail)
	if e, ok := email.(string); ok {
		return e
	}
	return ""
}
