package camera

import (
	"context"
	"errors"
	"time"

	"dahuaptz/internal/dahua"
)

// ErrCameraNotFound は指定されたIDのカメラが管理されていないことを表す
var ErrCameraNotFound = errors.New("カメラが見つかりません")

// Status はカメラの接続状態を表す
type Status string

const (
	StatusInactive Status = "inactive" // 未接続
	StatusActive   Status = "active"   // ログイン済み
	StatusError    Status = "error"    // ログインまたは通信に失敗
)

// Camera は管理対象のカメラの情報を表す
type Camera struct {
	ID        string    // カメラの一意識別子
	Name      string    // カメラの表示名
	Host      string    // 接続先ホスト
	ForceText bool      // 応答を常にテキストとして解析するか
	Status    Status    // 現在の状態
	LastSeen  time.Time // 最後に応答を受け取った時刻
	LastError string    // 直近のエラー
}

// Settings はカメラ追加時の接続設定を表す
type Settings struct {
	ID        string        // 省略時はUUIDを採番
	Name      string        // 省略時はホスト
	Username  string        // ログインユーザー名
	Password  string        // ログインパスワード
	ForceText bool          // 応答を常にテキストとして解析する
	Timeout   time.Duration // 1回のRPCのタイムアウト（0ならデフォルト）
}

// Client はServiceが使うカメラRPCクライアント。*dahua.Client が実装する
type Client interface {
	Connect(ctx context.Context) error
	SendPTZCommand(ctx context.Context, cmd dahua.PTZCommand) (*dahua.CommandResult, error)
	Disconnect() error
	Connected() bool
}

// Manager は複数カメラの管理を担うインターフェース
type Manager interface {
	// Start は全カメラにログインする
	Start(ctx context.Context) error

	// Stop は全カメラから切断する
	Stop(ctx context.Context) error

	// GetCameras は現在管理されているカメラ一覧を取得する
	GetCameras() []Camera

	// GetCamera は指定されたIDのカメラを取得する
	GetCamera(id string) (*Camera, bool)

	// AddCamera はカメラを追加する。ログインはしない
	AddCamera(ctx context.Context, host string, settings Settings) (*Camera, error)

	// RemoveCamera はカメラを切断して管理対象から外す
	RemoveCamera(ctx context.Context, id string) error

	// StartCamera はカメラにログインする
	StartCamera(ctx context.Context, id string) error

	// StopCamera はカメラから切断する
	StopCamera(ctx context.Context, id string) error

	// RestartCamera はカメラから切断して再ログインする
	RestartCamera(ctx context.Context, id string) error

	// Control はカメラにPTZコマンドを送信する
	Control(ctx context.Context, id string, cmd dahua.PTZCommand) (*dahua.CommandResult, error)
}

// Service は個別カメラの制御を担うインターフェース
type Service interface {
	// Start はカメラにログインする
	Start(ctx context.Context) error

	// Stop はカメラから切断する
	Stop(ctx context.Context) error

	// Restart は切断してから再ログインする
	Restart(ctx context.Context) error

	// Control はPTZコマンドを送信する
	Control(ctx context.Context, cmd dahua.PTZCommand) (*dahua.CommandResult, error)

	// GetStatus は現在の状態を取得する
	GetStatus() Status

	// Camera は現在のカメラ情報のコピーを返す
	Camera() Camera
}

// ServiceCreator はカメラごとのServiceを作成する
type ServiceCreator interface {
	CreateService(camera *Camera, settings Settings) Service
}
