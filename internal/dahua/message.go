package dahua

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
)

// Request はカメラへ送るRPCリクエスト本文
type Request struct {
	Method  string `json:"method"`
	ID      int64  `json:"id"`
	Params  any    `json:"params,omitempty"`
	Object  string `json:"object,omitempty"`
	Session string `json:"session,omitempty"`
}

// Response はカメラから返るRPCレスポンス本文。
// result / params の意味はメソッドごとに異なるため、
// 呼び出し側は LoginChallenge / LoginResult / CommandResult に変換して使う
type Response struct {
	ID      int64           `json:"id"`
	Result  Result          `json:"result"`
	Session SessionID       `json:"session,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`

	raw []byte
}

// Raw は受信した本文をそのまま返す
func (r *Response) Raw() string {
	return string(r.raw)
}

// RPCError はレスポンスの error フィールド
type RPCError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// SessionID はセッショントークン。
// ファームウェアによって文字列でも数値でも返るため両方を受け付ける
type SessionID string

// UnmarshalJSON は文字列・数値・nullのいずれも受け付ける
func (s *SessionID) UnmarshalJSON(data []byte) error {
	value, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	id, err := sessionFromValue(value, typ)
	if err != nil {
		return err
	}
	*s = id
	return nil
}

func sessionFromValue(value []byte, typ jsonparser.ValueType) (SessionID, error) {
	switch typ {
	case jsonparser.String:
		str, err := jsonparser.ParseString(value)
		if err != nil {
			return "", fmt.Errorf("session: %w", err)
		}
		return SessionID(str), nil
	case jsonparser.Number:
		return SessionID(value), nil
	case jsonparser.Null, jsonparser.NotExist:
		return "", nil
	}
	return "", fmt.Errorf("session: 想定外の型 %s", typ)
}

// Result はレスポンスの result フィールド。真偽値のこともオブジェクトのこともある
type Result struct {
	raw []byte
}

// UnmarshalJSON は値をそのまま保持する
func (r *Result) UnmarshalJSON(data []byte) error {
	r.raw = append([]byte(nil), data...)
	return nil
}

// MarshalJSON は保持している値を返す。未設定ならnull
func (r Result) MarshalJSON() ([]byte, error) {
	if len(r.raw) == 0 {
		return []byte("null"), nil
	}
	return r.raw, nil
}

// OK はresultが真と評価できるかを返す。
// false / null / 0 / "" / {} / [] および欠落は偽
func (r Result) OK() bool {
	if len(r.raw) == 0 {
		return false
	}
	value, typ, _, err := jsonparser.Get(r.raw)
	if err != nil {
		return false
	}
	return truthy(value, typ)
}

func truthy(value []byte, typ jsonparser.ValueType) bool {
	switch typ {
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		return err == nil && b
	case jsonparser.Number:
		f, err := strconv.ParseFloat(string(value), 64)
		return err == nil && f != 0
	case jsonparser.String:
		return len(value) > 0
	case jsonparser.Object:
		n := 0
		_ = jsonparser.ObjectEach(value, func(_, _ []byte, _ jsonparser.ValueType, _ int) error {
			n++
			return nil
		})
		return n > 0
	case jsonparser.Array:
		n := 0
		_, _ = jsonparser.ArrayEach(value, func(_ []byte, _ jsonparser.ValueType, _ int, _ error) {
			n++
		})
		return n > 0
	}
	return false
}

// loginParams は global.login のパラメータ
type loginParams struct {
	UserName      string `json:"userName"`
	Password      string `json:"password"`
	ClientType    string `json:"clientType"`
	AuthorityType string `json:"authorityType,omitempty"`
	PasswordType  string `json:"passwordType,omitempty"`
}

// LoginChallenge は認証なしログイン（プローブ）の応答。
// 失敗扱いの応答だが、次の呼び出しで使うセッションとノンス素材を含む
type LoginChallenge struct {
	Session    SessionID
	Realm      string
	Random     string
	Encryption string
	// Authenticated はプローブが予期せず成功したことを表す
	Authenticated bool
	Response      *Response
}

func parseLoginChallenge(resp *Response) (*LoginChallenge, error) {
	var params struct {
		Realm      string `json:"realm"`
		Random     string `json:"random"`
		Encryption string `json:"encryption"`
	}
	if len(resp.Params) > 0 {
		if err := json.Unmarshal(resp.Params, &params); err != nil {
			return nil, fmt.Errorf("params の解析に失敗: %w", err)
		}
	}
	ch := &LoginChallenge{
		Session:       resp.Session,
		Realm:         params.Realm,
		Random:        params.Random,
		Encryption:    params.Encryption,
		Authenticated: resp.Result.OK(),
		Response:      resp,
	}
	if ch.Authenticated {
		return ch, nil
	}
	if ch.Realm == "" || ch.Random == "" {
		return nil, fmt.Errorf("realm / random がありません")
	}
	return ch, nil
}

// LoginResult は認証付きログインの応答
type LoginResult struct {
	Session SessionID
	// KeepAliveInterval はカメラが通知するキープアライブ間隔（秒）。通知がなければ0
	KeepAliveInterval int
	Response          *Response
}

func parseLoginResult(resp *Response) *LoginResult {
	res := &LoginResult{Session: resp.Session, Response: resp}
	if len(resp.Params) > 0 {
		if v, err := jsonparser.GetInt(resp.Params, "keepAliveInterval"); err == nil {
			res.KeepAliveInterval = int(v)
		}
	}
	return res
}

// PTZCommand はPTZ操作の指定。
// Arg1〜Arg4 の意味はCodeに依存し、クライアントでは範囲を検証しない
type PTZCommand struct {
	Action string // "start" または "stop"
	Code   string // "Left", "ZoomTele" など。空文字も可
	Arg1   float64
	Arg2   float64
	Arg3   float64
	Arg4   float64
}

// Method はRPCメソッド名を返す
func (c PTZCommand) Method() string {
	return "ptz." + c.Action
}

func (c PTZCommand) validate() error {
	switch c.Action {
	case "start", "stop":
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidAction, c.Action)
}

type ptzParams struct {
	Code string  `json:"code"`
	Arg1 float64 `json:"arg1"`
	Arg2 float64 `json:"arg2"`
	Arg3 float64 `json:"arg3"`
	Arg4 float64 `json:"arg4"`
}

func (c PTZCommand) params() ptzParams {
	return ptzParams{Code: c.Code, Arg1: c.Arg1, Arg2: c.Arg2, Arg3: c.Arg3, Arg4: c.Arg4}
}

// CommandResult はPTZコマンドの応答。
// Accepted が false でもエラーではない（可動域の限界などでカメラが拒否することがある）
type CommandResult struct {
	Accepted bool
	Response *Response
}
