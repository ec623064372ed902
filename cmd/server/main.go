// reviewhubサーバーのエントリポイント。
// メール/パスワードおよびモックOAuthによる認証と、外部LLMを利用した
// コードレビュー・コード修正のAPIを提供する。
package main

import (
	"log"

	"github.com/nao1215/reviewhub/internal/config"
	"github.com/nao1215/reviewhub/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("サーバーの初期化に失敗: %v", err)
	}

	log.Printf("reviewhubサーバーを起動します: :%s", cfg.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("サーバーの起動に失敗: %v", err)
	}
}
