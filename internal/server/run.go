package server

import (
	"context"
	"fmt"

	"dahuaptz/internal/camera"
	"dahuaptz/internal/config"
	"dahuaptz/internal/logger"
)

// NewManager は設定されたカメラを登録したManagerを作成する。ログインはしない
func NewManager(ctx context.Context, cfg *config.Config, creator camera.ServiceCreator) (*camera.DefaultCameraManager, error) {
	manager := camera.NewDefaultCameraManager(creator)
	for _, device := range cfg.Cameras {
		_, err := manager.AddCamera(ctx, device.Host, camera.Settings{
			ID:        device.ID,
			Name:      device.Name,
			Username:  device.Username,
			Password:  device.Password,
			ForceText: device.ForceText,
			Timeout:   cfg.RPC.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("カメラ %s の登録に失敗: %w", device.Host, err)
		}
	}
	return manager, nil
}

// Run は設定からカメラとHTTPサーバーを組み立てて起動する。
// ctx がキャンセルされるかシグナルを受け取るまで戻らない
func Run(ctx context.Context, cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	manager, err := NewManager(ctx, cfg, camera.NewProductionServiceCreator())
	if err != nil {
		return err
	}

	// ログインに失敗したカメラはエラー状態で起動し、restart で復旧させる
	if err := manager.Start(ctx); err != nil {
		logger.Warnf("%v", err)
	}

	srv, err := New(cfg, manager)
	if err != nil {
		_ = manager.Stop(ctx)
		return err
	}

	logger.Infof("dahuaptz サーバーを起動します: %s", cfg.ServerAddress())
	return srv.Start(ctx)
}
