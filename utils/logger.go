package utils

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI colour codes for the lines that are not plain levels
const (
	reset = "\033[0m"
	green = "\033[32m"
	cyan  = "\033[36m"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	colour  = isTerminal(os.Stdout)
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugared = build()
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func build() *zap.SugaredLogger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = "T"
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	enc.CallerKey = ""
	enc.NameKey = ""
	enc.StacktraceKey = ""
	if colour {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(out), level)
	return zap.New(core).Sugar()
}

// SetOutput redirects log output. Colour is disabled unless w is a terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	colour = false
	if f, ok := w.(*os.File); ok {
		colour = isTerminal(f)
	}
	sugared = build()
}

func SetVerbose(v bool) {
	if v {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.InfoLevel)
}

func Sync() {
	_ = logger().Sync()
}

func logger() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return sugared
}

func paint(c, s string) string {
	mu.Lock()
	defer mu.Unlock()
	if !colour {
		return s
	}
	return c + s + reset
}

func Debug(format string, a ...interface{}) {
	logger().Debugf(format, a...)
}

func Info(format string, a ...interface{}) {
	logger().Infof(format, a...)
}

func Success(format string, a ...interface{}) {
	logger().Info(paint(green, "✓ "+fmt.Sprintf(format, a...)))
}

func Warn(format string, a ...interface{}) {
	logger().Warnf(format, a...)
}

func Error(format string, a ...interface{}) {
	logger().Errorf(format, a...)
}

func Section(title string) {
	logger().Info(paint(cyan, fmt.Sprintf("══════════ %s ══════════", title)))
}
