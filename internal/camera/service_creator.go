package camera

import (
	"sync"

	"dahuaptz/internal/dahua"
)

// ProductionServiceCreator は本番用のServiceCreator実装
type ProductionServiceCreator struct {
	opts []dahua.Option
}

// NewProductionServiceCreator は新しいProductionServiceCreatorを作成する。
// opts は全カメラのクライアントに共通で適用される
func NewProductionServiceCreator(opts ...dahua.Option) ServiceCreator {
	return &ProductionServiceCreator{opts: opts}
}

// CreateService はdahuaクライアントを使うServiceを作成する
func (p *ProductionServiceCreator) CreateService(camera *Camera, settings Settings) Service {
	opts := append([]dahua.Option{
		dahua.WithForceText(settings.ForceText),
		dahua.WithTimeout(settings.Timeout),
	}, p.opts...)

	client := dahua.New(dahua.Credentials{
		Host:     camera.Host,
		Username: settings.Username,
		Password: settings.Password,
	}, opts...)

	return NewCameraService(camera, client)
}

// MockServiceCreator はテスト用のServiceCreator実装
type MockServiceCreator struct {
	mu       sync.Mutex
	services map[string]*MockCameraService
}

// NewMockServiceCreator は新しいMockServiceCreatorを作成する
func NewMockServiceCreator() *MockServiceCreator {
	return &MockServiceCreator{services: make(map[string]*MockCameraService)}
}

// CreateService はモックServiceを作成する
func (m *MockServiceCreator) CreateService(camera *Camera, _ Settings) Service {
	m.mu.Lock()
	defer m.mu.Unlock()

	service := NewMockCameraService(camera)
	m.services[camera.ID] = service
	return service
}

// Service は作成済みのモックServiceを返す
func (m *MockServiceCreator) Service(id string) *MockCameraService {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.services[id]
}
