// Package userstore はユーザーアカウントのクレデンシャルストアを提供する。
//
// ストアはSQLiteを背後に持つ小さなリポジトリであり、デモ用途では
// インメモリデータベース（プロセス終了とともに消える）として開く。
// IDはAUTOINCREMENTで採番されるため、並行サインアップでも重複しない。
package userstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrUserNotFound は指定されたメールアドレスのユーザーが
	// 存在しないことを表す。
	ErrUserNotFound = errors.New("ユーザーが見つかりません")
	// ErrDuplicateEmail は既に登録済みのメールアドレスで
	// 挿入しようとしたことを表す。
	ErrDuplicateEmail = errors.New("メールアドレスは既に登録されています")
)

// DemoEmail はリセット時に再シードされるデモアカウントのメールアドレス。
const DemoEmail = "demo@example.com"

// demoPassword はデモアカウントの平文パスワード。デモ専用。
const demoPassword = "demo123"

// User はユーザーアカウントのレコードを表す。
type User struct {
	// ID は挿入順に単調増加する一意識別子。
	ID int64
	// Email はメールアドレス。ストアの一意キーでもある。
	Email string
	// PasswordHash はパスワードのSHA-256ハッシュ（64文字の16進数）。
	PasswordHash string
	// Name は表示名。
	Name string
	// CreatedAt はレコードの作成日時。
	CreatedAt time.Time
}

// Store はユーザーアカウントのリポジトリ。
// 書き込みはSQLiteによって直列化されるため、並行アクセスしても
// IDの重複や更新の消失は発生しない。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// Open は指定されたDSNでストアを開き、スキーマ適用とデモアカウントの
// シードを行う。デモ用途ではdsnに ":memory:" を渡す。
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// インメモリDBは接続ごとに別のデータベースになるため、
	// 接続数を1に固定して単一のデータベースを共有する。
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.seedDemoUser(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// HashPassword はパスワードのSHA-256ハッシュを16進数文字列で返す。
// ソルトを使用しない固定ダイジェストであり、本番品質のパスワード
// 保管方式ではない。リファレンス実装の挙動（ハッシュ値の形式）を
// 維持するために残している既知の弱点である。
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Lookup はメールアドレスでユーザーを検索する。
// 存在しない場合はErrUserNotFoundを返す。
func (s *Store) Lookup(ctx context.Context, email string) (User, error) {
	var u User
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, created_at FROM users WHERE email = ?`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &createdAt)
	if err == sql.ErrNoRows {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}

	u.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return User{}, fmt.Errorf("作成日時のパースに失敗: %w", err)
	}
	return u, nil
}

// Exists はメールアドレスに対応するユーザーが存在するかを返す。
// 認証ゲートが有効なトークンと削除済みユーザーの組み合わせを
// 弾くために使用する。
func (s *Store) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.Lookup(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert は新しいユーザーを登録し、採番されたIDを返す。
// メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
func (s *Store) Insert(ctx context.Context, name, email, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, name, created_at) VALUES (?, ?, ?, ?)`,
		email, passwordHash, name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("ユーザーの登録に失敗: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("採番されたIDの取得に失敗: %w", err)
	}
	return id, nil
}

// List は登録済みユーザーのメールアドレス一覧を挿入順に返す。
// デバッグ用エンドポイント専用。
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("ユーザー一覧の読み取りに失敗: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユーザー一覧の走査に失敗: %w", err)
	}
	return emails, nil
}

// Delete は指定されたメールアドレスのユーザーを削除する。
// 削除が行われた場合はtrueを返す。デバッグ用エンドポイント専用。
func (s *Store) Delete(ctx context.Context, email string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return false, fmt.Errorf("ユーザーの削除に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return n > 0, nil
}

// Reset は全ユーザーを削除し、デモアカウントのみを再シードする。
// ID採番シーケンスもリセットされ、デモアカウントはID=1に戻る。
// デバッグ用エンドポイント専用。
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("ユーザーの全削除に失敗: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'users'`); err != nil {
		return fmt.Errorf("採番シーケンスのリセットに失敗: %w", err)
	}
	return s.seedDemoUser(ctx)
}

// seedDemoUser はデモアカウントが存在しない場合に作成する。
func (s *Store) seedDemoUser(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (email, password_hash, name, created_at) VALUES (?, ?, ?, ?)`,
		DemoEmail, HashPassword(demoPassword), "Demo User", time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("デモアカウントのシードに失敗: %w", err)
	}
	return nil
}
