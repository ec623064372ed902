// Package token はアクセストークンの発行と検証を提供する。
//
// トークンはユーザーのメールアドレスをサブジェクトとして持つ
// 有効期限付きのJWT（HS256）である。サーバー側の失効リストを
// 持たないステートレスな設計のため、期限切れ後は再ログインが必要になる。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークンの署名・アルゴリズム・有効期限の検証に
// 失敗したことを表す。呼び出し元はこのエラーを401に変換する。
var ErrInvalidToken = errors.New("トークンが無効です")

// DefaultTTL は呼び出し元がTTLを指定しなかった場合のトークン有効期間。
const DefaultTTL = 15 * time.Minute

// issuer はトークンのiss(発行者)クレームに設定する値。
const issuer = "reviewhub"

// Service はアクセストークンの発行と検証を行うサービス。
// 対称鍵によるHS256署名を使用する。発行も検証も純粋な計算であり、
// 複数goroutineから同時に呼び出しても安全である。
type Service struct {
	// secret はHS256署名用の対称秘密鍵。
	secret []byte
}

// claims はトークンに署名されるクレームセット。
// サブジェクト（メールアドレス）と有効期限のみを運ぶ。
type claims struct {
	jwt.RegisteredClaims
}

// NewService は新しいトークンサービスを生成する。
// secretが空の場合はエラーを返す。ハードコードされたフォールバック値は
// 持たず、秘密鍵は必須設定から渡されることを前提とする。
func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("トークン署名用の秘密鍵が設定されていません")
	}
	return &Service{secret: []byte(secret)}, nil
}

// Issue は指定されたサブジェクト（メールアドレス）に対して
// DefaultTTL（15分）有効の署名付きアクセストークンを発行する。
func (s *Service) Issue(subject string) (string, error) {
	return s.IssueWithTTL(subject, DefaultTTL)
}

// IssueWithTTL は指定された有効期間のアクセストークンを発行する。
// ttlはそのまま有効期限の計算に使われるため、0を渡すと発行時点で
// 期限切れのトークンになる。
func (s *Service) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、サブジェクト（メールアドレス)を返す。
// 署名不一致・アルゴリズム不一致・期限切れ・サブジェクト欠落の場合は
// ErrInvalidTokenを返す。
func (s *Service) Verify(tokenString string) (string, error) {
	c := &claims{}
	t, err := jwt.ParseWithClaims(tokenString, c, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", ErrInvalidToken
	}

	if c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
