// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンによる認証ゲート、リクエストID付与、パニックリカバリ、
// CORS設定を含む。認証ゲートはトークンの検証に加えて、サブジェクトの
// ユーザーがクレデンシャルストアに存在することまで確認する。
package middleware
