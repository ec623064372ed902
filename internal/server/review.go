package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// codeRequest はレビュー・リライト共通のリクエストJSON構造。
type codeRequest struct {
	// Code はレビュー対象のソースコード。
	Code string `json:"code" binding:"required"`
	// Language はコードの言語名（python, javascript など）。
	Language string `json:"language" binding:"required"`
}

// handleReview はコードレビューを処理するハンドラを返す。
// モデル呼び出しの失敗時もオーケストレータが縮退した結果を返すため、
// このハンドラが5xxを返すことはない。縮退はレスポンスのdegradedフラグで
// クライアントに伝わる。
func (s *Server) handleReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req codeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code, languageは必須です"})
			return
		}

		result := s.orchestrator.Review(c.Request.Context(), req.Code, req.Language)
		c.JSON(http.StatusOK, result)
	}
}

// handleRewrite はコード修正を処理するハンドラを返す。
func (s *Server) handleRewrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req codeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code, languageは必須です"})
			return
		}

		result := s.orchestrator.Rewrite(c.Request.Context(), req.Code, req.Language)
		c.JSON(http.StatusOK, result)
	}
}
