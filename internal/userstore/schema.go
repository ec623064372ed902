package userstore

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS users (
    -- ユーザーの一意識別子。挿入順に単調増加する。
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    -- メールアドレス。一意キー。
    email TEXT NOT NULL UNIQUE,
    -- パスワードのSHA-256ハッシュ（64文字の16進数）
    password_hash TEXT NOT NULL,
    -- 表示名
    name TEXT NOT NULL,
    -- 作成日時（RFC3339形式）
    created_at TEXT NOT NULL
);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
