package userstore

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// newTestStore はテスト用のインメモリストアを生成するヘルパー関数。
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("インメモリストアの作成に失敗: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestOpen はストアの初期化とデモアカウントのシードを検証する。
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("デモアカウントがID=1でシードされること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		demo, err := s.Lookup(context.Background(), DemoEmail)
		if err != nil {
			t.Fatalf("デモアカウントの取得に失敗: %v", err)
		}
		if demo.ID != 1 {
			t.Errorf("ID = %d, want 1", demo.ID)
		}
		if demo.Name != "Demo User" {
			t.Errorf("Name = %q, want %q", demo.Name, "Demo User")
		}
		if demo.PasswordHash != HashPassword("demo123") {
			t.Errorf("PasswordHash = %q, want sha256(demo123)", demo.PasswordHash)
		}
		if demo.CreatedAt.IsZero() {
			t.Error("CreatedAtが設定されていない")
		}
	})
}

// TestHashPassword はパスワードハッシュの形式を検証する。
func TestHashPassword(t *testing.T) {
	t.Parallel()

	t.Run("64文字の16進数ダイジェストが返ること", func(t *testing.T) {
		t.Parallel()

		hash := HashPassword("demo123")
		if len(hash) != 64 {
			t.Errorf("ハッシュ長 = %d, want 64", len(hash))
		}
		// ソルト無しの固定ダイジェストなので同じ入力は同じ出力になる
		if hash != HashPassword("demo123") {
			t.Error("同じパスワードのハッシュが一致しない")
		}
		if hash == HashPassword("demo124") {
			t.Error("異なるパスワードのハッシュが一致した")
		}
	})
}

// TestStoreInsertAndLookup はユーザーの登録と検索を検証する。
func TestStoreInsertAndLookup(t *testing.T) {
	t.Parallel()

	t.Run("登録したユーザーを検索できること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		id, err := s.Insert(context.Background(), "テスト太郎", "taro@example.com", HashPassword("password1"))
		if err != nil {
			t.Fatalf("Insert()でエラーが発生: %v", err)
		}
		if id <= 1 {
			t.Errorf("ID = %d, want > 1 (デモアカウントの後に採番される)", id)
		}

		u, err := s.Lookup(context.Background(), "taro@example.com")
		if err != nil {
			t.Fatalf("Lookup()でエラーが発生: %v", err)
		}
		if u.ID != id {
			t.Errorf("ID = %d, want %d", u.ID, id)
		}
		if u.Email != "taro@example.com" {
			t.Errorf("Email = %q, want %q", u.Email, "taro@example.com")
		}
		if u.Name != "テスト太郎" {
			t.Errorf("Name = %q, want %q", u.Name, "テスト太郎")
		}
	})

	t.Run("重複したメールアドレスの登録はErrDuplicateEmailになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		if _, err := s.Insert(context.Background(), "一人目", "dup@example.com", HashPassword("password1")); err != nil {
			t.Fatalf("Insert()でエラーが発生: %v", err)
		}
		if _, err := s.Insert(context.Background(), "二人目", "dup@example.com", HashPassword("password2")); !errors.Is(err, ErrDuplicateEmail) {
			t.Errorf("Insert() = %v, want ErrDuplicateEmail", err)
		}
	})

	t.Run("存在しないユーザーの検索はErrUserNotFoundになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		if _, err := s.Lookup(context.Background(), "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("Lookup() = %v, want ErrUserNotFound", err)
		}
	})
}

// TestStoreExists はユーザー存在確認を検証する。
func TestStoreExists(t *testing.T) {
	t.Parallel()

	t.Run("登録済みユーザーはtrueが返ること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		exists, err := s.Exists(context.Background(), DemoEmail)
		if err != nil {
			t.Fatalf("Exists()でエラーが発生: %v", err)
		}
		if !exists {
			t.Error("デモアカウントが存在しない扱いになった")
		}
	})

	t.Run("未登録ユーザーはfalseが返ること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		exists, err := s.Exists(context.Background(), "nobody@example.com")
		if err != nil {
			t.Fatalf("Exists()でエラーが発生: %v", err)
		}
		if exists {
			t.Error("未登録ユーザーが存在する扱いになった")
		}
	})
}

// TestStoreList はメールアドレス一覧の取得を検証する。
func TestStoreList(t *testing.T) {
	t.Parallel()

	t.Run("挿入順にメールアドレスが返ること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		if _, err := s.Insert(context.Background(), "A", "a@example.com", HashPassword("password1")); err != nil {
			t.Fatalf("Insert()でエラーが発生: %v", err)
		}
		if _, err := s.Insert(context.Background(), "B", "b@example.com", HashPassword("password2")); err != nil {
			t.Fatalf("Insert()でエラーが発生: %v", err)
		}

		emails, err := s.List(context.Background())
		if err != nil {
			t.Fatalf("List()でエラーが発生: %v", err)
		}

		want := []string{DemoEmail, "a@example.com", "b@example.com"}
		if len(emails) != len(want) {
			t.Fatalf("件数 = %d, want %d", len(emails), len(want))
		}
		for i, email := range want {
			if emails[i] != email {
				t.Errorf("emails[%d] = %q, want %q", i, emails[i], email)
			}
		}
	})
}

// TestStoreDelete はユーザー削除を検証する。
func TestStoreDelete(t *testing.T) {
	t.Parallel()

	t.Run("登録済みユーザーを削除できること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		if _, err := s.Insert(context.Background(), "削除対象", "target@example.com", HashPassword("password1")); err != nil {
			t.Fatalf("Insert()でエラーが発生: %v", err)
		}

		removed, err := s.Delete(context.Background(), "target@example.com")
		if err != nil {
			t.Fatalf("Delete()でエラーが発生: %v", err)
		}
		if !removed {
			t.Error("削除が行われていない")
		}

		if _, err := s.Lookup(context.Background(), "target@example.com"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("削除後のLookup() = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("未登録ユーザーの削除はfalseが返ること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		removed, err := s.Delete(context.Background(), "nobody@example.com")
		if err != nil {
			t.Fatalf("Delete()でエラーが発生: %v", err)
		}
		if removed {
			t.Error("存在しないユーザーの削除がtrueを返した")
		}
	})
}

// TestStoreReset は全削除とデモアカウントの再シードを検証する。
func TestStoreReset(t *testing.T) {
	t.Parallel()

	t.Run("リセット後はデモアカウントのみがID=1で残ること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		if _, err := s.Insert(context.Background(), "A", "a@example.com", HashPassword("password1")); err != nil {
			t.Fatalf("Insert()でエラーが発生: %v", err)
		}
		if _, err := s.Insert(context.Background(), "B", "b@example.com", HashPassword("password2")); err != nil {
			t.Fatalf("Insert()でエラーが発生: %v", err)
		}

		if err := s.Reset(context.Background()); err != nil {
			t.Fatalf("Reset()でエラーが発生: %v", err)
		}

		emails, err := s.List(context.Background())
		if err != nil {
			t.Fatalf("List()でエラーが発生: %v", err)
		}
		if len(emails) != 1 || emails[0] != DemoEmail {
			t.Errorf("リセット後の一覧 = %v, want [%s]", emails, DemoEmail)
		}

		demo, err := s.Lookup(context.Background(), DemoEmail)
		if err != nil {
			t.Fatalf("デモアカウントの取得に失敗: %v", err)
		}
		if demo.ID != 1 {
			t.Errorf("リセット後のデモアカウントID = %d, want 1", demo.ID)
		}
	})
}

// TestStoreConcurrentInsert は並行サインアップでIDが重複しないことを検証する。
func TestStoreConcurrentInsert(t *testing.T) {
	t.Parallel()

	t.Run("並行して登録した全ユーザーのIDが一意であること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		const workers = 10
		ids := make([]int64, workers)
		errs := make([]error, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				email := string(rune('a'+i)) + "-concurrent@example.com"
				ids[i], errs[i] = s.Insert(context.Background(), "並行ユーザー", email, HashPassword("password1"))
			}()
		}
		wg.Wait()

		seen := make(map[int64]struct{}, workers)
		for i := 0; i < workers; i++ {
			if errs[i] != nil {
				t.Fatalf("Insert()でエラーが発生: %v", errs[i])
			}
			if _, dup := seen[ids[i]]; dup {
				t.Errorf("IDが重複した: %d", ids[i])
			}
			seen[ids[i]] = struct{}{}
		}
	})
}
