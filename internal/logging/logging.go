package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultPrefix        = "stocksentiment"
	defaultRetentionDays = 7
	dateLayout           = "2006-01-02"
)

const (
	envLogLevel  = "STOCK_SENTIMENT_LOG_LEVEL"
	envLogFormat = "STOCK_SENTIMENT_LOG_FORMAT"
)

// Options configures NewLogger. Zero values pick the defaults.
type Options struct {
	Dir           string
	Prefix        string
	RetentionDays int
	Level         slog.Level
	// Console receives a copy of every record; nil means stdout.
	Console io.Writer
	// Component is attached to every record as "service".
	Component string
}

// DailyWriter appends to <prefix>-<date>.log and drops files older than
// the retention window whenever the date changes.
type DailyWriter struct {
	dir           string
	prefix        string
	retentionDays int
	now           func() time.Time

	mu   sync.Mutex
	date string
	file *os.File
}

func NewDailyWriter(dir, prefix string, retentionDays int) (*DailyWriter, error) {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	w := &DailyWriter{dir: dir, prefix: prefix, retentionDays: retentionDays, now: time.Now}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.rotateLocked(w.now()); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.rotateLocked(w.now()); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

// Path returns the file currently being written.
func (w *DailyWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pathFor(w.date)
}

func (w *DailyWriter) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.date = ""
	return err
}

func (w *DailyWriter) pathFor(date string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.log", w.prefix, date))
}

func (w *DailyWriter) rotateLocked(now time.Time) error {
	date := now.Format(dateLayout)
	if w.file != nil && date == w.date {
		return nil
	}
	file, err := os.OpenFile(w.pathFor(date), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if w.file != nil {
		_ = w.file.Close()
	}
	w.file = file
	w.date = date
	w.prune(now)
	return nil
}

func (w *DailyWriter) prune(now time.Time) {
	matches, err := filepath.Glob(filepath.Join(w.dir, w.prefix+"-*.log"))
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -w.retentionDays).Format(dateLayout)
	for _, path := range matches {
		stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), w.prefix+"-"), ".log")
		if _, err := time.Parse(dateLayout, stamp); err != nil {
			continue
		}
		// ISO dates sort lexically.
		if stamp < cutoff {
			_ = os.Remove(path)
		}
	}
}

// NewLogger builds the process logger, writing to the console and, when
// opts.Dir is set, to a DailyWriter. The returned writer may be nil.
func NewLogger(opts Options) (*slog.Logger, *DailyWriter, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	var (
		out    = console
		writer *DailyWriter
	)
	if opts.Dir != "" {
		var err error
		writer, err = NewDailyWriter(opts.Dir, opts.Prefix, opts.RetentionDays)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(console, writer)
	}

	component := opts.Component
	if component == "" {
		component = DefaultPrefix
	}
	logger := slog.New(newHandler(out, resolveLevel(opts.Level))).With("service", component)
	slog.SetDefault(logger)
	return logger, writer, nil
}

// ParseLevel accepts names (debug, info, warn, error) or a numeric level.
func ParseLevel(value string) (slog.Level, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "":
		return 0, false
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	if i, err := strconv.Atoi(value); err == nil {
		return slog.Level(i), true
	}
	return 0, false
}

func resolveLevel(fallback slog.Level) slog.Level {
	if level, ok := ParseLevel(os.Getenv(envLogLevel)); ok {
		return level
	}
	return fallback
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	options := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(envLogFormat)), "json") {
		return slog.NewJSONHandler(w, options)
	}
	return slog.NewTextHandler(w, options)
}
