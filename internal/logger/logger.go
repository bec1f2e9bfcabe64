package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps debug|info|warn|error to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	mu         sync.Mutex
	level      Level     = LevelInfo
	console    io.Writer = os.Stderr
	fileLogger *log.Logger
	logFile    *os.File
)

// Init additionally writes every message to the log file at path.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	fileLogger = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	return nil
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
		fileLogger = nil
	}
}

func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// SetOutput redirects console output; tests use it to capture messages.
func SetOutput(w io.Writer) {
	mu.Lock()
	console = w
	mu.Unlock()
}

func logf(l Level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	msg := fmt.Sprintf(format, v...)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	line := "[" + l.String() + "] " + msg
	if fileLogger != nil {
		fileLogger.Print(line)
	}
	fmt.Fprint(console, line)
}

func Debug(format string, v ...interface{}) { logf(LevelDebug, format, v...) }
func Info(format string, v ...interface{})  { logf(LevelInfo, format, v...) }
func Warn(format string, v ...interface{})  { logf(LevelWarn, format, v...) }
func Error(format string, v ...interface{}) { logf(LevelError, format, v...) }
