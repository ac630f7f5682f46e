// Package server は、PTZ制御のHTTP APIを提供します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// リクエストの検証、カメラ操作の中継を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - 埋め込んだOpenAPI定義によるリクエストの検証
//   - カメラ一覧・状態の提供
//   - PTZコマンドと再ログインの受け付け
//   - 設定からのカメラ登録（Run）
//
// 仕様:
//   - ルーティングはgin、検証はkin-openapiを使用
//   - カメラの応答はそのままJSONで返す
//   - 通信失敗は502、未ログインは409、未登録カメラは404
//   - グレースフルシャットダウン時に全カメラから切断する
package server
