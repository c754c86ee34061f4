package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type Logger struct {
	Debug bool

	mu  sync.Mutex
	out io.Writer
}

func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug, out: os.Stdout}
}

// WithOutput redirects the logger, mostly for tests.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
	return l
}

func (l *Logger) printf(prefix, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, prefix+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.Debug {
		l.printf("[DEBUG] ", format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.printf("[INFO] ", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.printf("[WARN] ", format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.printf("[ERROR] ", format, args...)
}

// Page statuses used by Pagef.
const (
	PageOK   = "OK"
	PageSkip = "SKIP"
	PageFail = "FAIL"
	PageWarn = "WARN"
)

// Pagef prints a per-page line such as "[004] [OK] page_004.jpg (312.40 KB)".
func (l *Logger) Pagef(seq int, status, format string, args ...any) {
	l.printf(fmt.Sprintf("[%03d] [%s] ", seq, status), format, args...)
}
