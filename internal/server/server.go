// Package server はreviewhubのHTTP APIサーバーを提供する。
//
// メール/パスワードおよびモックOAuthによる認証と、外部LLMを利用した
// コードレビュー・コード修正のエンドポイントを公開する。認証必須の
// エンドポイントはBearerトークンの認証ゲートで保護される。
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/reviewhub/internal/config"
	"github.com/nao1215/reviewhub/internal/identity"
	"github.com/nao1215/reviewhub/internal/llm"
	"github.com/nao1215/reviewhub/internal/review"
	"github.com/nao1215/reviewhub/internal/userstore"
	"github.com/nao1215/reviewhub/pkg/middleware"
	"github.com/nao1215/reviewhub/pkg/token"
)

// Server はreviewhubのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// users はユーザーアカウントのクレデンシャルストア。
	users *userstore.Store
	// tokens はアクセストークンの発行・検証サービス。
	tokens *token.Service
	// orchestrator はレビューとリライトのオーケストレータ。
	orchestrator *review.Orchestrator
	// providers はモックOAuthのIDプロバイダ。キーはプロバイダ名。
	providers map[string]identity.Provider
	// debugEndpoints はデバッグ用エンドポイントを公開するかどうか。
	debugEndpoints bool
}

// NewServer は新しいreviewhubサーバーを生成する。
// クレデンシャルストアはインメモリSQLiteとして開かれ、デモアカウントが
// シードされる。レコードの寿命はプロセスの寿命と同じである。
func NewServer(cfg *config.Config) (*Server, error) {
	users, err := userstore.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("クレデンシャルストアの初期化に失敗: %w", err)
	}

	tokens, err := token.NewService(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("トークンサービスの初期化に失敗: %w", err)
	}

	client := llm.New(cfg.GroqAPIURL, cfg.GroqAPIKey)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	providers := map[string]identity.Provider{}
	if cfg.MockOAuth {
		for _, name := range []string{"github", "google"} {
			providers[name] = identity.NewMock(name)
		}
	}

	s := &Server{
		router:         router,
		port:           cfg.Port,
		users:          users,
		tokens:         tokens,
		orchestrator:   review.NewOrchestrator(client, cfg.GroqModel),
		providers:      providers,
		debugEndpoints: cfg.DebugEndpoints,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	authGate := middleware.Auth(s.tokens, s.users)

	auth := s.router.Group("/auth")
	{
		auth.POST("/signup", s.handleSignup())
		auth.POST("/login", s.handleLogin())
		auth.GET("/me", authGate, s.handleMe())

		// モックOAuth。実際のトークン交換を行わないデモ専用の実装であり、
		// 設定で無効化されている場合はルート自体が存在しない。
		for name, provider := range s.providers {
			auth.POST("/"+name, s.handleOAuth(provider))
		}

		// デバッグ用エンドポイント。認可を持たないため、
		// 本番デプロイでは設定で無効化すること。
		if s.debugEndpoints {
			auth.GET("/users", s.handleListUsers())
			auth.DELETE("/users", s.handleResetUsers())
			auth.GET("/reset", s.handleRemoveMockUsers())
		}
	}

	s.router.POST("/review", authGate, s.handleReview())
	s.router.POST("/rewrite", authGate, s.handleRewrite())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}
