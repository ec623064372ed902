package server

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/reviewhub/internal/identity"
	"github.com/nao1215/reviewhub/internal/userstore"
	"github.com/nao1215/reviewhub/pkg/middleware"
)

// accessTokenTTL はログインおよびOAuthで発行するトークンの有効期間。
const accessTokenTTL = 30 * time.Minute

// minPasswordLength はサインアップ時に要求するパスワードの最小文字数。
const minPasswordLength = 6

// emailPattern は local@domain.tld 形状の簡易メールアドレス検証パターン。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// signupRequest はサインアップリクエストのJSON構造。
type signupRequest struct {
	// Name は表示名。
	Name string `json:"name" binding:"required"`
	// Email はメールアドレス。
	Email string `json:"email" binding:"required"`
	// Password は平文パスワード。
	Password string `json:"password" binding:"required"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	// Email はメールアドレス。
	Email string `json:"email" binding:"required"`
	// Password は平文パスワード。
	Password string `json:"password" binding:"required"`
}

// userResponse はユーザーのJSONレスポンス構造。
// パスワードハッシュは決して含めない。
type userResponse struct {
	// ID はユーザーの一意識別子。
	ID int64 `json:"id"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// Name は表示名。
	Name string `json:"name"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
}

// tokenResponse はログイン成功時のJSONレスポンス構造。
type tokenResponse struct {
	// AccessToken は発行されたBearerトークン。
	AccessToken string `json:"access_token"`
	// TokenType はトークン種別。常に "bearer"。
	TokenType string `json:"token_type"`
	// User は認証されたユーザー。
	User userResponse `json:"user"`
}

// toUserResponse はストアのレコードをJSONレスポンスに変換する。
func toUserResponse(u userstore.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// handleSignup はメール/パスワードによるユーザー登録を処理するハンドラを返す。
// メールアドレスの形式・重複・パスワード長を検証し、登録されたユーザーの
// IDを返す。
func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, email, passwordは必須です"})
			return
		}

		if !emailPattern.MatchString(req.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "メールアドレスの形式が不正です"})
			return
		}

		exists, err := s.users.Exists(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			log.Printf("サインアップ時のユーザー確認エラー: %v", err)
			return
		}
		if exists {
			c.JSON(http.StatusBadRequest, gin.H{"error": "メールアドレスは既に登録されています"})
			return
		}

		if len(req.Password) < minPasswordLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "パスワードは6文字以上である必要があります"})
			return
		}

		userID, err := s.users.Insert(c.Request.Context(), req.Name, req.Email, userstore.HashPassword(req.Password))
		if err != nil {
			// 存在確認と挿入の間に並行サインアップが割り込んだ場合も
			// 重複エラーとして扱う
			if errors.Is(err, userstore.ErrDuplicateEmail) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "メールアドレスは既に登録されています"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			log.Printf("サインアップ時のユーザー挿入エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "ユーザーを登録しました",
			"user_id": userID,
		})
	}
}

// handleLogin はメール/パスワードによるログインを処理するハンドラを返す。
// ユーザーが存在しない場合とパスワードが一致しない場合は、ユーザー列挙を
// 防ぐために同一の401エラーを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email, passwordは必須です"})
			return
		}

		user, err := s.users.Lookup(c.Request.Context(), req.Email)
		if err != nil {
			if !errors.Is(err, userstore.ErrUserNotFound) {
				log.Printf("ログイン時のユーザー取得エラー: %v", err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		}

		if user.PasswordHash != userstore.HashPassword(req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		}

		s.issueToken(c, user)
	}
}

// handleOAuth は指定されたIDプロバイダによるログインを処理するハンドラを返す。
// プロバイダが解決したアイデンティティを初回利用時にクレデンシャルストアへ
// 自動登録し、ログインと同じトークンエンベロープを返す。
func (s *Server) handleOAuth(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := provider.Resolve(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": provider.Name() + "ログインに失敗しました"})
			log.Printf("%sログインエラー: %v", provider.Name(), err)
			return
		}

		user, err := s.users.Lookup(c.Request.Context(), id.Email)
		if errors.Is(err, userstore.ErrUserNotFound) {
			// 初回ログイン時に自動登録する。パスワードハッシュには
			// プロバイダ識別用のプレースホルダを格納する。
			if _, err := s.users.Insert(c.Request.Context(), id.Name, id.Email, userstore.HashPassword(id.PasswordPlaceholder)); err != nil && !errors.Is(err, userstore.ErrDuplicateEmail) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": provider.Name() + "ログインに失敗しました"})
				log.Printf("%sユーザーの自動登録エラー: %v", provider.Name(), err)
				return
			}
			user, err = s.users.Lookup(c.Request.Context(), id.Email)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": provider.Name() + "ログインに失敗しました"})
			log.Printf("%sユーザーの取得エラー: %v", provider.Name(), err)
			return
		}

		s.issueToken(c, user)
	}
}

// issueToken は30分有効のアクセストークンを発行し、
// トークンエンベロープをレスポンスとして返す。
func (s *Server) issueToken(c *gin.Context, user userstore.User) {
	accessToken, err := s.tokens.IssueWithTTL(user.Email, accessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
		log.Printf("トークン発行エラー: %v", err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        toUserResponse(user),
	})
}

// handleMe は認証済みユーザー自身の情報を返すハンドラを返す。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := middleware.GetEmail(c)
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証情報が取得できません"})
			return
		}

		user, err := s.users.Lookup(c.Request.Context(), email)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーが見つかりません"})
			return
		}

		c.JSON(http.StatusOK, toUserResponse(user))
	}
}

// handleListUsers は登録済みユーザーのメールアドレス一覧を返すハンドラを返す。
// デバッグ専用。
func (s *Server) handleListUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		emails, err := s.users.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー一覧の取得に失敗しました"})
			log.Printf("ユーザー一覧取得エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": emails})
	}
}

// handleResetUsers は全ユーザーを削除しデモアカウントを再シードする
// ハンドラを返す。デバッグ専用。
func (s *Server) handleResetUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.users.Reset(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーのリセットに失敗しました"})
			log.Printf("ユーザーリセットエラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "全ユーザーを削除し、デモアカウントを復元しました"})
	}
}

// handleRemoveMockUsers はモックOAuthで自動登録されたユーザーを削除する
// ハンドラを返す。モックログインのフローを繰り返し試すために使用する。
// デバッグ専用。
func (s *Server) handleRemoveMockUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		removed := make([]string, 0, len(s.providers))
		for _, provider := range s.providers {
			id, err := provider.Resolve(c.Request.Context())
			if err != nil {
				continue
			}
			ok, err := s.users.Delete(c.Request.Context(), id.Email)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの削除に失敗しました"})
				log.Printf("モックユーザー削除エラー: %v", err)
				return
			}
			if ok {
				removed = append(removed, id.Email)
			}
		}

		if len(removed) == 0 {
			c.JSON(http.StatusOK, gin.H{"message": "削除対象のモックユーザーは存在しません"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "モックユーザーを削除しました",
			"removed": removed,
		})
	}
}
