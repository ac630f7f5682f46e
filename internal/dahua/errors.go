package dahua

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected はセッションがない状態でコマンドを送ろうとした場合のエラー
	ErrNotConnected = errors.New("dahua: セッションがありません。先にConnectを呼んでください")

	// ErrInvalidAction はPTZアクションが start / stop 以外の場合のエラー
	ErrInvalidAction = errors.New("dahua: 無効なPTZアクション")
)

// AuthError はログインに失敗したことを表す。
// サーバーの応答本文、または原因となった通信エラーを保持する
type AuthError struct {
	Host     string
	Stage    string // "probe" または "login"
	Response string // サーバーが返した生の応答（あれば）
	Err      error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil && e.Response != "":
		return fmt.Sprintf("dahua: %s へのログインに失敗 (%s): %v: %s", e.Host, e.Stage, e.Err, e.Response)
	case e.Err != nil:
		return fmt.Sprintf("dahua: %s へのログインに失敗 (%s): %v", e.Host, e.Stage, e.Err)
	default:
		return fmt.Sprintf("dahua: %s へのログインに失敗 (%s): %s", e.Host, e.Stage, e.Response)
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError は接続拒否・タイムアウト・切断、または応答を解析できなかったことを表す
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("dahua: %s (%s) の通信に失敗: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError は応答本文が宣言されたContent-Typeでも生テキストとしても
// 解析できなかったことを表す。常に TransportError に包まれて返る
type ParseError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("応答の解析に失敗 (HTTP %d): %v: %q", e.StatusCode, e.Err, truncate(e.Body, 256))
}

func (e *ParseError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
