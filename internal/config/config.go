package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"dahuaptz/internal/logger"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	RPC     RPCConfig      `yaml:"rpc"`
	Log     LogConfig      `yaml:"log"`
	Cameras []CameraDevice `yaml:"cameras"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト

	// AllowedOrigins はCORSで許可するオリジン（"*" で全許可）
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RPCConfig はカメラとのRPC通信の設定
type RPCConfig struct {
	Timeout time.Duration `yaml:"timeout"` // 1回のRPCのタイムアウト
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level string `yaml:"level"` // trace / debug / info / warn / error
}

// CameraDevice は個別カメラの接続設定
type CameraDevice struct {
	ID       string `yaml:"id"`       // カメラID（省略時は自動採番）
	Name     string `yaml:"name"`     // カメラ名（省略時はホスト）
	Host     string `yaml:"host"`     // ホスト名またはIPアドレス（ポート指定可）
	Username string `yaml:"username"` // ログインユーザー名
	Password string `yaml:"password"` // ログインパスワード

	// ForceText は応答のContent-Typeを信用せず常にテキストとして解析する
	ForceText bool `yaml:"force_text"`
}

// Load は環境変数 CONFIG_FILE が指すファイルと環境変数から設定を読み込む
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom は path のYAMLファイル（空なら読まない）と環境変数から設定を読み込む。
// 優先順位は 環境変数 > YAMLファイル > デフォルト値
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルを開けません: %w", err)
		}
		defer f.Close()
		if err := cfg.decodeYAML(f); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の解析に失敗: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		RPC: RPCConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// decodeYAML はYAMLを現在の設定に上書きする
func (c *Config) decodeYAML(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv は環境変数で設定を上書きする
func (c *Config) applyEnv() error {
	c.Server.Host = getEnvOrDefault("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsIntOrDefault("PORT", c.Server.Port)
	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	timeout, err := getEnvAsDurationOrDefault("DAHUA_TIMEOUT", c.RPC.Timeout)
	if err != nil {
		return err
	}
	c.RPC.Timeout = timeout

	// 単体カメラは環境変数だけでも設定できる
	if host := os.Getenv("DAHUA_HOST"); host != "" {
		c.Cameras = append(c.Cameras, CameraDevice{
			ID:        os.Getenv("DAHUA_ID"),
			Name:      os.Getenv("DAHUA_NAME"),
			Host:      host,
			Username:  os.Getenv("DAHUA_USERNAME"),
			Password:  os.Getenv("DAHUA_PASSWORD"),
			ForceText: getEnvAsBoolOrDefault("DAHUA_FORCE_TEXT", false),
		})
	}

	return nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}
	if c.RPC.Timeout <= 0 {
		return fmt.Errorf("無効なRPCタイムアウト: %s", c.RPC.Timeout)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	// カメラ設定の検証
	if len(c.Cameras) == 0 {
		return errors.New("カメラが設定されていません")
	}
	ids := make(map[string]bool)
	hosts := make(map[string]bool)
	for i, cam := range c.Cameras {
		if cam.Host == "" {
			return fmt.Errorf("カメラ %d: ホストが設定されていません", i)
		}
		if cam.Username == "" {
			return fmt.Errorf("カメラ %s: ユーザー名が設定されていません", cam.Host)
		}
		if hosts[cam.Host] {
			return fmt.Errorf("カメラ %s は既に設定されています", cam.Host)
		}
		hosts[cam.Host] = true
		if cam.ID != "" {
			if ids[cam.ID] {
				return fmt.Errorf("カメラID %s が重複しています", cam.ID)
			}
			ids[cam.ID] = true
		}
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// splitList はカンマ区切りの値を分割する
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault は "10s" 形式または秒数を受け付ける
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s が不正です: %w", key, err)
	}
	return d, nil
}
