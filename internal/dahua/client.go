package dahua

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"resty.dev/v3"

	"dahuaptz/internal/logger"
)

const (
	// DefaultTimeout は1回のRPCに許す時間
	DefaultTimeout = 10 * time.Second

	loginPath = "/RPC2_Login"
	rpcPath   = "/RPC2"

	methodLogin = "global.login"
	clientType  = "Web3.0"
)

// Logger はクライアントが使うログ出力先。resty.Logger とも互換
type Logger interface {
	Errorf(format string, v ...any)
	Warnf(format string, v ...any)
	Debugf(format string, v ...any)
}

// Credentials はカメラの接続情報。クライアントの生存期間中は変更しない
type Credentials struct {
	Host     string
	Username string
	Password string
}

// Option はクライアントの設定を変更する
type Option func(*Client)

// WithForceText は応答を常に生テキストとして解析させる。
// すべての応答のContent-Typeを誤申告するカメラ向け
func WithForceText(force bool) Option {
	return func(c *Client) { c.forceText = force }
}

// WithTimeout は1回のRPCのタイムアウトを設定する
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithScheme はURLスキームを設定する（デフォルト http）
func WithScheme(scheme string) Option {
	return func(c *Client) { c.scheme = scheme }
}

// WithLogger はログ出力先を設定する
func WithLogger(l Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client は1台のカメラとのRPCセッションを保持する。
//
// Connect / SendPTZCommand / Disconnect は内部で直列化されるため
// 複数のゴルーチンから呼んでもリクエストIDとセッションが競合しない
type Client struct {
	creds     Credentials
	scheme    string
	forceText bool
	timeout   time.Duration
	log       Logger

	mu        sync.Mutex
	http      *resty.Client
	session   string
	requestID int64
}

// New は新しいClientを作成する。ネットワークには接続しない
func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds:   creds,
		scheme:  "http",
		timeout: DefaultTimeout,
		log:     logger.Named("dahua " + creds.Host),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Host は接続先ホストを返す
func (c *Client) Host() string {
	return c.creds.Host
}

// Connected はセッションを保持しているかを返す
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != ""
}

// SessionID は現在のセッショントークンを返す。未接続なら空文字
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Connect は二段階のログインを行いセッションを確立する。
// 既存のセッションがあれば破棄して取り直す
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = ""
	loginURL := c.url(loginPath)

	// 1段目: パスワードなしで送り、realm / random と仮セッションを受け取る
	resp, err := c.call(ctx, loginURL, methodLogin, loginParams{
		UserName:   c.creds.Username,
		Password:   "",
		ClientType: clientType,
	})
	if err != nil {
		return c.authFailed("probe", nil, err)
	}
	challenge, err := parseLoginChallenge(resp)
	if err != nil {
		return c.authFailed("probe", resp, err)
	}
	if challenge.Authenticated {
		if challenge.Session == "" {
			return c.authFailed("probe", resp, errors.New("セッションがありません"))
		}
		c.log.Warnf("認証なしのログインが成功しました。2段目を省略します")
		c.session = string(challenge.Session)
		return nil
	}
	c.session = string(challenge.Session)

	// 2段目: ハッシュ化したパスワードで認証する
	resp, err = c.call(ctx, loginURL, methodLogin, loginParams{
		UserName:      c.creds.Username,
		Password:      LoginHash(c.creds.Username, challenge.Realm, challenge.Random, c.creds.Password),
		ClientType:    clientType,
		AuthorityType: "Default",
		PasswordType:  "Default",
	})
	if err != nil {
		return c.authFailed("login", nil, err)
	}
	if !resp.Result.OK() {
		return c.authFailed("login", resp, nil)
	}

	result := parseLoginResult(resp)
	if result.Session != "" {
		c.session = string(result.Session)
	}
	c.log.Debugf("ログインしました (keepAliveInterval=%d)", result.KeepAliveInterval)
	return nil
}

// authFailed はセッションとトランスポートを破棄してAuthErrorを返す（ロック済み前提）
func (c *Client) authFailed(stage string, resp *Response, err error) error {
	c.teardown()
	authErr := &AuthError{Host: c.creds.Host, Stage: stage, Err: err}
	if resp != nil {
		authErr.Response = resp.Raw()
	}
	c.log.Errorf("ログインエラー: %v", authErr)
	return authErr
}

// SendPTZCommand はPTZコマンドを送信する。
//
// カメラが result=false を返した場合は警告を出したうえで結果を返し、エラーにはしない。
// 通信や解析に失敗した場合はセッションを破棄して TransportError を返す
func (c *Client) SendPTZCommand(ctx context.Context, cmd PTZCommand) (*CommandResult, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == "" {
		return nil, ErrNotConnected
	}

	resp, err := c.call(ctx, c.url(rpcPath), cmd.Method(), cmd.params())
	if err != nil {
		c.log.Errorf("PTZ制御エラー: %v", err)
		return nil, err
	}

	result := &CommandResult{Accepted: resp.Result.OK(), Response: resp}
	if !result.Accepted {
		c.log.Warnf("PTZコマンドが拒否されました: %s", resp.Raw())
	}
	return result, nil
}

// Disconnect はトランスポートを解放しセッションを破棄する。何度呼んでもよい
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teardown()
}

// teardown はセッションとトランスポートを破棄する（ロック済み前提）
func (c *Client) teardown() error {
	c.session = ""
	if c.http == nil {
		return nil
	}
	err := c.http.Close()
	c.http = nil
	return err
}

// ensureTransport はトランスポートがなければ作成する（ロック済み前提）
func (c *Client) ensureTransport() *resty.Client {
	if c.http == nil {
		c.http = resty.New().
			SetTimeout(c.timeout).
			SetRetryCount(0).
			SetLogger(c.log).
			SetHeader("Accept-Encoding", "identity").
			SetHeader("Content-Type", "application/json")
	}
	return c.http
}

// call はRPCを1回送受信する（ロック済み前提）。
// 失敗時はセッションとトランスポートを破棄する
func (c *Client) call(ctx context.Context, url, method string, params any) (*Response, error) {
	httpClient := c.ensureTransport()

	c.requestID++
	req := Request{
		Method:  method,
		ID:      c.requestID,
		Params:  params,
		Session: c.session,
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.log.Debugf("%s id=%d を送信します", method, req.ID)
	res, err := httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetBody(req).
		Post(url)
	if err != nil {
		c.teardown()
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}

	body, err := readBody(res)
	if err != nil {
		c.teardown()
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}

	resp, err := decodeResponse(res.Header().Get("Content-Type"), body, c.forceText, c.log)
	if err != nil {
		c.teardown()
		return nil, &TransportError{
			Method: method,
			URL:    url,
			Err:    &ParseError{StatusCode: res.StatusCode(), Body: string(body), Err: err},
		}
	}
	return resp, nil
}

func readBody(res *resty.Response) ([]byte, error) {
	if res.Body == nil {
		return nil, nil
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("本文の読み込みに失敗: %w", err)
	}
	return body, nil
}

func (c *Client) url(path string) string {
	return c.scheme + "://" + c.creds.Host + path
}
