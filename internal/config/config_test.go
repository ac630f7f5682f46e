package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv はテスト中だけ関連する環境変数を空にする
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "SERVER_HOST", "PORT", "ALLOWED_ORIGINS", "LOG_LEVEL", "DAHUA_TIMEOUT",
		"DAHUA_ID", "DAHUA_NAME", "DAHUA_HOST", "DAHUA_USERNAME", "DAHUA_PASSWORD", "DAHUA_FORCE_TEXT",
	} {
		t.Setenv(key, "")
	}
}

// TestConfigLoad は環境変数だけで設定を読み込めることをテストする
func TestConfigLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAHUA_HOST", "192.168.1.108")
	t.Setenv("DAHUA_USERNAME", "admin")
	t.Setenv("DAHUA_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// サーバー設定の検証
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("サーバーホストがデフォルト値ではありません: %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("ポート番号がデフォルト値ではありません: %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout <= 0 {
		t.Error("読み込みタイムアウトが設定されていません")
	}
	if cfg.RPC.Timeout != 10*time.Second {
		t.Errorf("RPCタイムアウトがデフォルト値ではありません: %s", cfg.RPC.Timeout)
	}

	// カメラ設定の検証
	if len(cfg.Cameras) != 1 {
		t.Fatalf("カメラ数が一致しません: got %d, want 1", len(cfg.Cameras))
	}
	cam := cfg.Cameras[0]
	if cam.Host != "192.168.1.108" || cam.Username != "admin" || cam.Password != "secret" {
		t.Errorf("カメラ設定が反映されていません: %+v", cam)
	}
	if cam.ForceText {
		t.Error("ForceText はデフォルトで無効のはずです")
	}
}

// TestConfigLoadFile はYAMLファイルと環境変数の優先順位をテストする
func TestConfigLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 9000
rpc:
  timeout: 3s
log:
  level: debug
cameras:
  - id: gate
    name: 正門
    host: 10.0.0.10
    username: admin
    password: pass
    force_text: true
  - host: 10.0.0.11:8080
    username: operator
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "9100")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("ファイルのホストが反映されていません: %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("環境変数のポートが優先されていません: %d", cfg.Server.Port)
	}
	if cfg.RPC.Timeout != 3*time.Second {
		t.Errorf("RPCタイムアウトが反映されていません: %s", cfg.RPC.Timeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("ログレベルが反映されていません: %s", cfg.Log.Level)
	}
	if len(cfg.Cameras) != 2 {
		t.Fatalf("カメラ数が一致しません: got %d, want 2", len(cfg.Cameras))
	}
	if cfg.Cameras[0].ID != "gate" || !cfg.Cameras[0].ForceText {
		t.Errorf("1台目のカメラ設定が反映されていません: %+v", cfg.Cameras[0])
	}
	if cfg.Cameras[1].Host != "10.0.0.11:8080" || cfg.Cameras[1].ForceText {
		t.Errorf("2台目のカメラ設定が反映されていません: %+v", cfg.Cameras[1])
	}
}

// TestConfigLoadFileErrors は読み込めない設定ファイルをテストする
func TestConfigLoadFileErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	if _, err := LoadFrom(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("存在しないファイルでエラーが期待されました")
	}

	unknown := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("camera:\n  host: x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(unknown); err == nil {
		t.Error("未知のキーでエラーが期待されました")
	}

	t.Setenv("DAHUA_HOST", "10.0.0.1")
	t.Setenv("DAHUA_USERNAME", "admin")
	t.Setenv("DAHUA_TIMEOUT", "soon")
	if _, err := LoadFrom(""); err == nil {
		t.Error("不正なタイムアウトでエラーが期待されました")
	}
}

// TestConfigValidation は設定の検証をテストする
func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Cameras = []CameraDevice{
			{ID: "camera1", Name: "メインカメラ", Host: "192.168.1.108", Username: "admin"},
		}
		return cfg
	}

	testCases := []struct {
		name      string
		modify    func(*Config)
		expectErr bool
	}{
		{
			name:      "正常な設定",
			modify:    func(*Config) {},
			expectErr: false,
		},
		{
			name:      "無効なポート番号",
			modify:    func(c *Config) { c.Server.Port = 99999 },
			expectErr: true,
		},
		{
			name:      "RPCタイムアウトなし",
			modify:    func(c *Config) { c.RPC.Timeout = 0 },
			expectErr: true,
		},
		{
			name:      "無効なログレベル",
			modify:    func(c *Config) { c.Log.Level = "verbose" },
			expectErr: true,
		},
		{
			name:      "カメラなし",
			modify:    func(c *Config) { c.Cameras = nil },
			expectErr: true,
		},
		{
			name:      "ホストなし",
			modify:    func(c *Config) { c.Cameras[0].Host = "" },
			expectErr: true,
		},
		{
			name:      "ユーザー名なし",
			modify:    func(c *Config) { c.Cameras[0].Username = "" },
			expectErr: true,
		},
		{
			name: "ホストの重複",
			modify: func(c *Config) {
				c.Cameras = append(c.Cameras, CameraDevice{ID: "camera2", Host: "192.168.1.108", Username: "admin"})
			},
			expectErr: true,
		},
		{
			name: "IDの重複",
			modify: func(c *Config) {
				c.Cameras = append(c.Cameras, CameraDevice{ID: "camera1", Host: "192.168.1.109", Username: "admin"})
			},
			expectErr: true,
		},
		{
			name: "IDなしは複数あってもよい",
			modify: func(c *Config) {
				c.Cameras[0].ID = ""
				c.Cameras = append(c.Cameras, CameraDevice{Host: "192.168.1.109", Username: "admin"})
			},
			expectErr: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.expectErr && err == nil {
				t.Error("エラーが期待されましたが、エラーが発生しませんでした")
			}
			if !tc.expectErr && err != nil {
				t.Errorf("予期しないエラーが発生しました: %v", err)
			}
		})
	}
}

// TestServerAddress はサーバーアドレスの生成をテストする
func TestServerAddress(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "192.168.1.100",
			Port: 9090,
		},
	}

	expected := "192.168.1.100:9090"
	actual := cfg.ServerAddress()

	if actual != expected {
		t.Errorf("サーバーアドレスが一致しません: got %s, want %s", actual, expected)
	}
}

// TestEnvironmentVariables は環境変数の処理をテストする
func TestEnvironmentVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_HOST", "test.example.com")
	t.Setenv("PORT", "9999")
	t.Setenv("DAHUA_TIMEOUT", "5")
	t.Setenv("DAHUA_HOST", "cam.local")
	t.Setenv("DAHUA_USERNAME", "admin")
	t.Setenv("DAHUA_FORCE_TEXT", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	if cfg.Server.Host != "test.example.com" {
		t.Errorf("環境変数のホストが反映されていません: got %s, want test.example.com", cfg.Server.Host)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("環境変数のポートが反映されていません: got %d, want 9999", cfg.Server.Port)
	}
	if cfg.RPC.Timeout != 5*time.Second {
		t.Errorf("秒数指定のタイムアウトが反映されていません: %s", cfg.RPC.Timeout)
	}
	if !cfg.Cameras[0].ForceText {
		t.Error("DAHUA_FORCE_TEXT が反映されていません")
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("ALLOWED_ORIGINS が反映されていません: %v", cfg.Server.AllowedOrigins)
	}
}
