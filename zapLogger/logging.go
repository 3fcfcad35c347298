package zapLogger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	once sync.Once
	Log  = zap.NewNop().Sugar()
)

// Options controls where and how much the logger writes.
type Options struct {
	Level      string // debug, info, warn, error
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Init initializes the zap logger and returns the rotating file writer so the
// HTTP request logger can share it.
func Init(opts Options) io.Writer {
	var fileWriter io.Writer
	once.Do(func() {
		if opts.File == "" {
			opts.File = "app.log"
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		fileWriter = rotating

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.TimeKey = "timestamp"
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), zapcore.AddSync(rotating)),
			ParseLevel(opts.Level),
		)

		Log = zap.New(core, zap.AddCaller()).Sugar()
	})
	if fileWriter == nil {
		fileWriter = io.Discard
	}
	return fileWriter
}

// ParseLevel maps a config string to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// FiberLoggingMiddleware returns Fiber's built-in logger middleware writing to stdout and the log file.
func FiberLoggingMiddleware(logFile io.Writer) fiber.Handler {
	return logger.New(logger.Config{
		Output:     io.MultiWriter(os.Stdout, logFile),
		Format:     "${time} | ${status} | ${method} | ${path} | ${latency}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	})
}
