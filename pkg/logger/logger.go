package logger

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger zerolog.Logger 래퍼 (필드 맵 기반 API)
type Logger struct {
	zl zerolog.Logger
}

// Config 로거 설정
type Config struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json, console
	Output      io.Writer
	EnableColor bool
	Service     string
}

var (
	mu     sync.Mutex
	global *Logger
)

// Initialize 전역 로거 설정 (알 수 없는 레벨은 info)
func Initialize(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: !cfg.EnableColor}
	}

	zctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	zl := zctx.Logger()

	mu.Lock()
	global = &Logger{zl: zl}
	mu.Unlock()
	log.Logger = zl
}

// Get 전역 로거 (초기화 전이면 콘솔 기본값으로 생성)
func Get() *Logger {
	mu.Lock()
	l := global
	mu.Unlock()
	if l != nil {
		return l
	}
	Initialize(Config{Level: "info", Format: "console", EnableColor: true})
	return Get()
}

// WithContext fields 가 항상 붙는 하위 로거
func (l *Logger) WithContext(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

// write 호출 위치(두 단계 위)와 필드를 붙여 기록
func write(e *zerolog.Event, msg string, fields []map[string]interface{}) {
	if e == nil {
		return
	}
	if pc, file, line, ok := runtime.Caller(2); ok {
		e = e.Str(zerolog.CallerFieldName, zerolog.CallerMarshalFunc(pc, file, line))
	}
	for _, f := range fields {
		e = e.Fields(f)
	}
	e.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	write(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	write(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	write(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	write(l.zl.Error().Err(err), msg, fields)
}

// Fatal 기록 후 프로세스 종료
func (l *Logger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	write(l.zl.Fatal().Err(err), msg, fields)
}

// 전역 로거 단축 함수

func Debug(msg string, fields ...map[string]interface{}) {
	write(Get().zl.Debug(), msg, fields)
}

func Info(msg string, fields ...map[string]interface{}) {
	write(Get().zl.Info(), msg, fields)
}

func Warn(msg string, fields ...map[string]interface{}) {
	write(Get().zl.Warn(), msg, fields)
}

func Error(msg string, err error, fields ...map[string]interface{}) {
	write(Get().zl.Error().Err(err), msg, fields)
}

func Fatal(msg string, err error, fields ...map[string]interface{}) {
	write(Get().zl.Fatal().Err(err), msg, fields)
}

func WithContext(fields map[string]interface{}) *Logger {
	return Get().WithContext(fields)
}
