package camera

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dahuaptz/internal/dahua"
)

func TestDefaultCameraManager_Basic(t *testing.T) {
	ctx := context.Background()
	creator := NewMockServiceCreator()
	manager := NewDefaultCameraManager(creator)

	for _, host := range []string{"192.168.1.108", "192.168.1.109"} {
		if _, err := manager.AddCamera(ctx, host, Settings{Username: "admin"}); err != nil {
			t.Fatalf("AddCamera failed: %v", err)
		}
	}

	// Start
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	cameras := manager.GetCameras()
	if len(cameras) != 2 {
		t.Fatalf("Expected 2 cameras, got %d", len(cameras))
	}
	for _, cam := range cameras {
		if cam.Status != StatusActive {
			t.Errorf("Expected camera %s to be active, got %s", cam.ID, cam.Status)
		}
		if cam.Name != cam.Host {
			t.Errorf("Expected name to default to host, got %s", cam.Name)
		}
	}
	if cameras[0].ID > cameras[1].ID {
		t.Error("Expected cameras to be sorted by ID")
	}

	// Stop
	if err := manager.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	for _, cam := range manager.GetCameras() {
		if cam.Status != StatusInactive {
			t.Errorf("Expected camera %s to be inactive, got %s", cam.ID, cam.Status)
		}
	}
}

func TestDefaultCameraManager_StartWithFailingCamera(t *testing.T) {
	ctx := context.Background()
	creator := NewMockServiceCreator()
	manager := NewDefaultCameraManager(creator)

	if _, err := manager.AddCamera(ctx, "10.0.0.1", Settings{ID: "ok"}); err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}
	if _, err := manager.AddCamera(ctx, "10.0.0.2", Settings{ID: "broken"}); err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}
	creator.Service("broken").SetShouldFailStart(true)

	if err := manager.Start(ctx); err == nil {
		t.Fatal("Expected start to report the failing camera")
	}

	// 失敗したカメラも管理対象に残る
	ok, _ := manager.GetCamera("ok")
	broken, found := manager.GetCamera("broken")
	if !found {
		t.Fatal("Expected failing camera to stay managed")
	}
	if ok.Status != StatusActive {
		t.Errorf("Expected ok camera to be active, got %s", ok.Status)
	}
	if broken.Status != StatusError {
		t.Errorf("Expected broken camera to be in error, got %s", broken.Status)
	}

	// 再起動で復旧する
	creator.Service("broken").SetShouldFailStart(false)
	if err := manager.RestartCamera(ctx, "broken"); err != nil {
		t.Fatalf("RestartCamera failed: %v", err)
	}
	broken, _ = manager.GetCamera("broken")
	if broken.Status != StatusActive {
		t.Errorf("Expected broken camera to recover, got %s", broken.Status)
	}
}

func TestDefaultCameraManager_AddRemoveCamera(t *testing.T) {
	ctx := context.Background()
	manager := NewDefaultCameraManager(NewMockServiceCreator())

	// 初期状態では0台
	if cameras := manager.GetCameras(); len(cameras) != 0 {
		t.Fatalf("Expected 0 cameras initially, got %d", len(cameras))
	}

	camera, err := manager.AddCamera(ctx, "192.168.1.108", Settings{Name: "正門", ForceText: true})
	if err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}
	if camera.ID == "" {
		t.Error("Expected camera ID to be set")
	}
	if camera.Host != "192.168.1.108" || camera.Name != "正門" || !camera.ForceText {
		t.Errorf("Unexpected camera: %+v", camera)
	}

	// 個別取得
	retrieved, found := manager.GetCamera(camera.ID)
	if !found {
		t.Fatal("Camera not found by ID")
	}
	if retrieved.Host != camera.Host {
		t.Errorf("Retrieved camera host mismatch: expected %s, got %s", camera.Host, retrieved.Host)
	}

	// カメラを削除
	if err := manager.RemoveCamera(ctx, camera.ID); err != nil {
		t.Fatalf("RemoveCamera failed: %v", err)
	}
	if cameras := manager.GetCameras(); len(cameras) != 0 {
		t.Fatalf("Expected 0 cameras after removal, got %d", len(cameras))
	}
	if _, found := manager.GetCamera(camera.ID); found {
		t.Error("Camera should not be found after removal")
	}

	// 削除後は同じホストを再追加できる
	if _, err := manager.AddCamera(ctx, "192.168.1.108", Settings{}); err != nil {
		t.Fatalf("Re-adding removed host failed: %v", err)
	}
}

func TestDefaultCameraManager_Control(t *testing.T) {
	ctx := context.Background()
	creator := NewMockServiceCreator()
	manager := NewDefaultCameraManager(creator)

	if _, err := manager.AddCamera(ctx, "192.168.1.108", Settings{ID: "gate"}); err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}

	cmd := dahua.PTZCommand{Action: "start", Code: "Left", Arg2: 1, Arg3: 5}
	if _, err := manager.Control(ctx, "gate", cmd); !errors.Is(err, dahua.ErrNotConnected) {
		t.Fatalf("Expected ErrNotConnected before start, got %v", err)
	}

	if err := manager.StartCamera(ctx, "gate"); err != nil {
		t.Fatalf("StartCamera failed: %v", err)
	}
	result, err := manager.Control(ctx, "gate", cmd)
	if err != nil {
		t.Fatalf("Control failed: %v", err)
	}
	if !result.Accepted {
		t.Error("Expected command to be accepted")
	}

	commands := creator.Service("gate").Commands()
	if len(commands) != 1 || commands[0] != cmd {
		t.Errorf("Unexpected commands: %+v", commands)
	}

	if err := manager.StopCamera(ctx, "gate"); err != nil {
		t.Fatalf("StopCamera failed: %v", err)
	}
	camera, _ := manager.GetCamera("gate")
	if camera.Status != StatusInactive {
		t.Errorf("Expected camera to be inactive, got %s", camera.Status)
	}
}

func TestDefaultCameraManager_ErrorCases(t *testing.T) {
	ctx := context.Background()
	manager := NewDefaultCameraManager(NewMockServiceCreator())

	// ホストなし
	if _, err := manager.AddCamera(ctx, "", Settings{}); err == nil {
		t.Error("Expected error for empty host")
	}

	// 存在しないカメラを操作
	if err := manager.StartCamera(ctx, "non-existent-id"); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("Expected ErrCameraNotFound, got %v", err)
	}
	if err := manager.StopCamera(ctx, "non-existent-id"); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("Expected ErrCameraNotFound, got %v", err)
	}
	if err := manager.RestartCamera(ctx, "non-existent-id"); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("Expected ErrCameraNotFound, got %v", err)
	}
	if err := manager.RemoveCamera(ctx, "non-existent-id"); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("Expected ErrCameraNotFound, got %v", err)
	}
	if _, err := manager.Control(ctx, "non-existent-id", PTZRequest{}.Command()); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("Expected ErrCameraNotFound, got %v", err)
	}

	// 重複ホスト
	if _, err := manager.AddCamera(ctx, "192.168.1.108", Settings{ID: "a"}); err != nil {
		t.Fatalf("First AddCamera failed: %v", err)
	}
	if _, err := manager.AddCamera(ctx, "192.168.1.108", Settings{ID: "b"}); err == nil {
		t.Error("Expected error for duplicate host")
	}

	// 重複ID
	if _, err := manager.AddCamera(ctx, "192.168.1.109", Settings{ID: "a"}); err == nil {
		t.Error("Expected error for duplicate ID")
	}
}

func TestDefaultCameraManager_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	manager := NewDefaultCameraManager(NewMockServiceCreator())

	for _, host := range []string{"192.168.1.108", "192.168.1.109"} {
		if _, err := manager.AddCamera(ctx, host, Settings{}); err != nil {
			t.Fatalf("AddCamera failed: %v", err)
		}
	}
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = manager.Stop(ctx) }()

	// 複数のゴルーチンで同時アクセス
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				for _, camera := range manager.GetCameras() {
					manager.GetCamera(camera.ID)
					_, _ = manager.Control(ctx, camera.ID, PTZRequest{}.Command())
				}
				time.Sleep(1 * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	// 最終状態確認
	cameras := manager.GetCameras()
	if len(cameras) != 2 {
		t.Fatalf("Expected 2 cameras after concurrent access, got %d", len(cameras))
	}
}
