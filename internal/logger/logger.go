// Package logger はプロセス全体で共有するレベル付きロガーを提供する
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level はログ出力の閾値。値が小さいほど詳細
type Level int

const (
	LevelTrace Level = iota // プロトコルの生データなど
	LevelDebug              // デバッグ用
	LevelInfo               // 通常の情報（デフォルト）
	LevelWarn               // 警告
	LevelError              // エラーのみ
)

var levelNames = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// String はレベル名を返す
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

var (
	mu      sync.RWMutex
	level   = LevelInfo
	backend = log.New(os.Stderr, "", log.LstdFlags)
)

// ParseLevel は文字列をLevelに変換する
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("不明なログレベル: %q", raw)
}

// SetLevel はグローバルな出力閾値を設定する
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput は出力先を差し替える
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	backend.SetOutput(w)
}

// SetFlags は標準logのフラグを設定する
func SetFlags(flags int) {
	mu.Lock()
	defer mu.Unlock()
	backend.SetFlags(flags)
}

// Enabled は指定レベルが出力されるかを返す
func Enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func logf(l Level, format string, args ...any) {
	if !Enabled(l) {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	backend.Printf("[%s] %s", l, fmt.Sprintf(format, args...))
}

// Tracef はTRACEレベルで出力する
func Tracef(format string, args ...any) { logf(LevelTrace, format, args...) }

// Debugf はDEBUGレベルで出力する
func Debugf(format string, args ...any) { logf(LevelDebug, format, args...) }

// Infof はINFOレベルで出力する
func Infof(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warnf はWARNレベルで出力する
func Warnf(format string, args ...any) { logf(LevelWarn, format, args...) }

// Errorf はERRORレベルで出力する
func Errorf(format string, args ...any) { logf(LevelError, format, args...) }

// Logger はグローバルロガーへ委譲する値。
// resty.Logger など Errorf/Warnf/Debugf を要求するインターフェースに渡せる
type Logger struct {
	prefix string
}

// Named はメッセージに prefix を付けるLoggerを返す
func Named(prefix string) Logger {
	return Logger{prefix: strings.ReplaceAll(prefix, "%", "%%")}
}

func (l Logger) format(format string) string {
	if l.prefix == "" {
		return format
	}
	return l.prefix + ": " + format
}

// Debugf はDEBUGレベルで出力する
func (l Logger) Debugf(format string, args ...any) { Debugf(l.format(format), args...) }

// Infof はINFOレベルで出力する
func (l Logger) Infof(format string, args ...any) { Infof(l.format(format), args...) }

// Warnf はWARNレベルで出力する
func (l Logger) Warnf(format string, args ...any) { Warnf(l.format(format), args...) }

// Errorf はERRORレベルで出力する
func (l Logger) Errorf(format string, args ...any) { Errorf(l.format(format), args...) }
