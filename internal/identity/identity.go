// Package identity は外部IDプロバイダによるユーザー認証を抽象化する。
//
// 本番実装ではプロバイダとのトークン交換とID検証を行うことを想定するが、
// 現時点で提供するのはデモ用のモック実装のみである。モック実装は
// プロバイダごとに固定の合成IDを返すだけで、実際の検証は一切行わない。
package identity

import (
	"context"
	"fmt"
)

// Identity はIDプロバイダが解決したユーザーのアイデンティティ。
type Identity struct {
	// Email はプロバイダが保証するメールアドレス。
	Email string
	// Name は表示名。
	Name string
	// PasswordPlaceholder はクレデンシャルストアに格納する
	// プロバイダ識別用のパスワードハッシュ元文字列。
	// OAuth経由のユーザーはパスワードログインできない。
	PasswordPlaceholder string
}

// Provider は外部IDプロバイダでの認証を行うインターフェース。
type Provider interface {
	// Name はプロバイダ名（"github", "google" など）を返す。
	Name() string
	// Resolve は認証を行い、ユーザーのアイデンティティを返す。
	Resolve(ctx context.Context) (Identity, error)
}

// Mock は実際のOAuthトークン交換を行わないデモ専用のプロバイダ。
// プロバイダごとに固定の合成アイデンティティを決定的に返す。
// 本番デプロイではこの実装を本物のトークン交換に置き換えること。
type Mock struct {
	// name はプロバイダ名。
	name string
	// identity は常に返される固定のアイデンティティ。
	identity Identity
}

// NewMock は指定されたプロバイダ名のモックプロバイダを生成する。
func NewMock(name string) *Mock {
	return &Mock{
		name: name,
		identity: Identity{
			Email:               fmt.Sprintf("%s-demo@example.com", name),
			Name:                fmt.Sprintf("%s Demo User", name),
			PasswordPlaceholder: fmt.Sprintf("%s_oauth", name),
		},
	}
}

// Name はプロバイダ名を返す。
func (m *Mock) Name() string {
	return m.name
}

// Resolve は固定の合成アイデンティティを返す。検証は行わない。
func (m *Mock) Resolve(_ context.Context) (Identity, error) {
	return m.identity, nil
}
