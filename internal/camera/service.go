package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dahuaptz/internal/dahua"
	"dahuaptz/internal/logger"
)

// defaultCameraService はdahuaクライアントでカメラを制御する実装
type defaultCameraService struct {
	camera Camera
	client Client
	log    logger.Logger
	mu     sync.RWMutex
}

// NewCameraService は新しいdefaultCameraServiceを作成する
func NewCameraService(camera *Camera, client Client) Service {
	cam := *camera
	if cam.Status == "" {
		cam.Status = StatusInactive
	}
	return &defaultCameraService{
		camera: cam,
		client: client,
		log:    logger.Named("camera " + cam.ID),
	}
}

// Start はカメラにログインする
func (s *defaultCameraService) Start(ctx context.Context) error {
	if err := s.client.Connect(ctx); err != nil {
		s.setStatus(StatusError, err)
		s.log.Errorf("ログインに失敗しました: %v", err)
		return fmt.Errorf("カメラ %s の開始に失敗: %w", s.camera.ID, err)
	}

	s.setStatus(StatusActive, nil)
	s.log.Infof("ログインしました (%s)", s.camera.Host)
	return nil
}

// Stop はカメラから切断する
func (s *defaultCameraService) Stop(_ context.Context) error {
	if err := s.client.Disconnect(); err != nil {
		// 切断はセッションを破棄した時点で完了している
		s.log.Warnf("トランスポートの解放に失敗しました: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Status = StatusInactive
	s.camera.LastError = ""
	return nil
}

// Restart は切断してから再ログインする
func (s *defaultCameraService) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	return s.Start(ctx)
}

// Control はPTZコマンドを送信する
func (s *defaultCameraService) Control(ctx context.Context, cmd dahua.PTZCommand) (*dahua.CommandResult, error) {
	result, err := s.client.SendPTZCommand(ctx, cmd)
	switch {
	case err == nil:
		s.setStatus(StatusActive, nil)
		return result, nil
	case errors.Is(err, dahua.ErrInvalidAction), errors.Is(err, dahua.ErrNotConnected):
		return nil, err
	default:
		// 通信に失敗するとクライアントはセッションを破棄している
		s.setStatus(StatusError, err)
		return nil, err
	}
}

// GetStatus は現在の状態を取得する
func (s *defaultCameraService) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera.Status
}

// Camera は現在のカメラ情報のコピーを返す
func (s *defaultCameraService) Camera() Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

func (s *defaultCameraService) setStatus(status Status, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.camera.Status = status
	if err != nil {
		s.camera.LastError = err.Error()
		return
	}
	s.camera.LastError = ""
	s.camera.LastSeen = time.Now()
}

// MockCameraService はテスト用のモックサービス実装
type MockCameraService struct {
	camera   Camera
	mu       sync.RWMutex
	commands []dahua.PTZCommand

	// テスト制御用
	shouldFailStart   bool
	shouldFailControl bool
	reject            bool
}

// NewMockCameraService は新しいMockCameraServiceを作成する
func NewMockCameraService(camera *Camera) *MockCameraService {
	cam := *camera
	if cam.Status == "" {
		cam.Status = StatusInactive
	}
	return &MockCameraService{camera: cam}
}

// Start はモックカメラサービスを開始する
func (m *MockCameraService) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFailStart {
		m.camera.Status = StatusError
		m.camera.LastError = "モック: ログインに失敗"
		return fmt.Errorf("モック: カメラ %s の開始に失敗", m.camera.ID)
	}

	m.camera.Status = StatusActive
	m.camera.LastError = ""
	m.camera.LastSeen = time.Now()
	return nil
}

// Stop はモックカメラサービスを停止する
func (m *MockCameraService) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.camera.Status = StatusInactive
	m.camera.LastError = ""
	return nil
}

// Restart はモックカメラサービスを再起動する
func (m *MockCameraService) Restart(ctx context.Context) error {
	if err := m.Stop(ctx); err != nil {
		return err
	}
	return m.Start(ctx)
}

// Control は受け取ったコマンドを記録する
func (m *MockCameraService) Control(_ context.Context, cmd dahua.PTZCommand) (*dahua.CommandResult, error) {
	if cmd.Action != "start" && cmd.Action != "stop" {
		return nil, dahua.ErrInvalidAction
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.camera.Status != StatusActive {
		return nil, dahua.ErrNotConnected
	}
	if m.shouldFailControl {
		m.camera.Status = StatusError
		m.camera.LastError = "モック: 通信に失敗"
		return nil, &dahua.TransportError{Method: cmd.Method(), URL: "mock://" + m.camera.Host, Err: errors.New("モック: 通信に失敗")}
	}

	m.commands = append(m.commands, cmd)
	m.camera.LastSeen = time.Now()
	return &dahua.CommandResult{Accepted: !m.reject}, nil
}

// GetStatus は現在の状態を取得する
func (m *MockCameraService) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.camera.Status
}

// Camera は現在のカメラ情報のコピーを返す
func (m *MockCameraService) Camera() Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.camera
}

// Commands はこれまでに受け取ったコマンドを返す
func (m *MockCameraService) Commands() []dahua.PTZCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]dahua.PTZCommand(nil), m.commands...)
}

// SetShouldFailStart はテスト用にStart失敗を設定する
func (m *MockCameraService) SetShouldFailStart(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailStart = shouldFail
}

// SetShouldFailControl はテスト用にControlの通信失敗を設定する
func (m *MockCameraService) SetShouldFailControl(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailControl = shouldFail
}

// SetReject はテスト用にカメラがコマンドを拒否するよう設定する
func (m *MockCameraService) SetReject(reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reject = reject
}
