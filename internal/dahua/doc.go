// Package dahua はDahuaカメラのJSON-RPC over HTTPクライアントを提供する
//
// # 責務
// - global.login による二段階のチャレンジレスポンス認証
// - セッションIDとリクエストIDの管理
// - ptz.start / ptz.stop コマンドの送信
// - Content-Typeを誤申告するカメラにも耐えるレスポンス解析
//
// # 仕様
//   - ログインは /RPC2_Login、その他のRPCは /RPC2 に送信する
//   - リクエストIDは1から始まり、同一クライアント内で単調増加する
//   - 1回のRPCは単一のタイムアウト（デフォルト10秒）で制限される
//   - 通信・解析に失敗した場合はセッションとトランスポートを破棄する
//   - リトライは行わない（呼び出し側の責務）
//
// # 状態遷移
//
//	[未接続] --Connect成功--> [接続中]
//	[未接続] --Connect失敗--> [未接続]
//	[接続中] --SendPTZCommand通信失敗--> [未接続]
//	[接続中] --SendPTZCommandカメラ側拒否--> [接続中]（警告のみ）
//	[接続中] --Disconnect--> [未接続]
//	[未接続] --Disconnect--> [未接続]（何もしない）
package dahua
