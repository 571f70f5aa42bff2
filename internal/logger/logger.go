package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// level は全ロガー共通の出力レベル。
// 設定読み込み前にロガーを作るため、後からSetLevelで変更できるようにする。
var level = new(slog.LevelVar)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// writerが指定された場合はそのwriterに出力する。
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w)
	slog.SetDefault(logger)
}

// SetLevel はログレベルを文字列（debug, info, warn, error）で変更する。
// 未知の値の場合はinfoに戻し、falseを返す。
func SetLevel(s string) bool {
	l, ok := ParseLevel(s)
	level.Set(l)
	return ok
}

// ParseLevel はログレベル文字列をslog.Levelに変換する。
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
