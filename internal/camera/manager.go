package camera

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"dahuaptz/internal/dahua"
	"dahuaptz/internal/logger"
)

var _ Manager = (*DefaultCameraManager)(nil)

// DefaultCameraManager はCamera Managerのデフォルト実装
type DefaultCameraManager struct {
	creator  ServiceCreator
	services map[string]Service
	hosts    map[string]string // host -> id
	mu       sync.RWMutex
	log      logger.Logger
}

// NewDefaultCameraManager は新しいDefaultCameraManagerを作成する
func NewDefaultCameraManager(creator ServiceCreator) *DefaultCameraManager {
	return &DefaultCameraManager{
		creator:  creator,
		services: make(map[string]Service),
		hosts:    make(map[string]string),
		log:      logger.Named("manager"),
	}
}

// Start は全カメラにログインする。
// ログインに失敗したカメラはエラー状態のまま管理を続ける
func (m *DefaultCameraManager) Start(ctx context.Context) error {
	var startErrors []error
	for id, service := range m.snapshot() {
		if err := service.Start(ctx); err != nil {
			startErrors = append(startErrors, fmt.Errorf("カメラ %s: %w", id, err))
		}
	}

	if len(startErrors) > 0 {
		return fmt.Errorf("一部のカメラの開始に失敗: %v", startErrors)
	}
	return nil
}

// Stop は全カメラから切断する
func (m *DefaultCameraManager) Stop(ctx context.Context) error {
	var stopErrors []error
	for id, service := range m.snapshot() {
		if err := service.Stop(ctx); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("カメラ %s の停止に失敗: %w", id, err))
		}
	}

	if len(stopErrors) > 0 {
		return fmt.Errorf("一部のカメラ停止に失敗: %v", stopErrors)
	}
	return nil
}

// GetCameras は現在管理されているカメラ一覧をID順で取得する
func (m *DefaultCameraManager) GetCameras() []Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cameras := make([]Camera, 0, len(m.services))
	for _, service := range m.services {
		cameras = append(cameras, service.Camera())
	}
	sort.Slice(cameras, func(i, j int) bool { return cameras[i].ID < cameras[j].ID })

	return cameras
}

// GetCamera は指定されたIDのカメラを取得する
func (m *DefaultCameraManager) GetCamera(id string) (*Camera, bool) {
	service, ok := m.service(id)
	if !ok {
		return nil, false
	}

	// コピーを返す
	result := service.Camera()
	return &result, true
}

// AddCamera はカメラを追加する。同じホストのカメラは重複して追加できない
func (m *DefaultCameraManager) AddCamera(_ context.Context, host string, settings Settings) (*Camera, error) {
	if host == "" {
		return nil, fmt.Errorf("ホストが指定されていません")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, exists := m.hosts[host]; exists {
		return nil, fmt.Errorf("ホスト %s は既にカメラ %s として追加されています", host, id)
	}

	id := settings.ID
	if id == "" {
		id = uuid.New().String()
	}
	if _, exists := m.services[id]; exists {
		return nil, fmt.Errorf("カメラID %s は既に使われています", id)
	}

	name := settings.Name
	if name == "" {
		name = host
	}

	cam := &Camera{
		ID:        id,
		Name:      name,
		Host:      host,
		ForceText: settings.ForceText,
		Status:    StatusInactive,
	}

	// 管理対象に追加
	m.services[id] = m.creator.CreateService(cam, settings)
	m.hosts[host] = id
	m.log.Infof("カメラを追加しました: %s (%s)", id, host)

	result := *cam
	return &result, nil
}

// RemoveCamera はカメラを切断して管理対象から外す
func (m *DefaultCameraManager) RemoveCamera(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	service, exists := m.services[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrCameraNotFound, id)
	}

	if err := service.Stop(ctx); err != nil {
		return fmt.Errorf("カメラの停止に失敗: %w", err)
	}

	// 管理対象から削除
	delete(m.hosts, service.Camera().Host)
	delete(m.services, id)
	m.log.Infof("カメラを削除しました: %s", id)

	return nil
}

// StartCamera はカメラにログインする
func (m *DefaultCameraManager) StartCamera(ctx context.Context, id string) error {
	service, ok := m.service(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCameraNotFound, id)
	}
	return service.Start(ctx)
}

// StopCamera はカメラから切断する
func (m *DefaultCameraManager) StopCamera(ctx context.Context, id string) error {
	service, ok := m.service(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCameraNotFound, id)
	}
	return service.Stop(ctx)
}

// RestartCamera はカメラから切断して再ログインする
func (m *DefaultCameraManager) RestartCamera(ctx context.Context, id string) error {
	service, ok := m.service(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCameraNotFound, id)
	}
	m.log.Infof("カメラを再起動します: %s", id)
	return service.Restart(ctx)
}

// Control はカメラにPTZコマンドを送信する
func (m *DefaultCameraManager) Control(ctx context.Context, id string, cmd dahua.PTZCommand) (*dahua.CommandResult, error) {
	service, ok := m.service(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCameraNotFound, id)
	}
	return service.Control(ctx, cmd)
}

func (m *DefaultCameraManager) service(id string) (Service, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	service, ok := m.services[id]
	return service, ok
}

// snapshot はロックを保持せずに操作できるようServiceの一覧を複製する
func (m *DefaultCameraManager) snapshot() map[string]Service {
	m.mu.RLock()
	defer m.mu.RUnlock()

	services := make(map[string]Service, len(m.services))
	for id, service := range m.services {
		services[id] = service
	}
	return services
}
