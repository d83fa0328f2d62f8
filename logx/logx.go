// Package logx 简洁的进度日志系统，基于 log/slog
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// LevelFromVerbosity 详细级别映射到 slog 级别
// 0: 仅警告, 1: 信息, 2 及以上: 调试
func LevelFromVerbosity(verbosity int) slog.Level {
	switch {
	case verbosity >= 2:
		return slog.LevelDebug
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Logger 包装 slog.Logger，并保留步骤计时输出
type Logger struct {
	*slog.Logger

	out       io.Writer
	mu        *sync.Mutex
	verbosity int

	stepStart  time.Time
	totalStart time.Time
}

// New 创建写入 w 的日志记录器
func New(w io.Writer, verbosity int) *Logger {
	if w == nil {
		w = io.Discard
	}
	mu := &sync.Mutex{}
	h := &handler{
		out:   w,
		mu:    mu,
		level: LevelFromVerbosity(verbosity),
	}
	return &Logger{
		Logger:     slog.New(h),
		out:        w,
		mu:         mu,
		verbosity:  verbosity,
		totalStart: time.Now(),
	}
}

// Default 输出到 stderr
func Default(verbosity int) *Logger {
	return New(os.Stderr, verbosity)
}

// Discard 丢弃所有输出
func Discard() *Logger {
	return New(io.Discard, 0)
}

// Verbosity 返回创建时的详细级别
func (l *Logger) Verbosity() int {
	return l.verbosity
}

// Writer 底层输出
func (l *Logger) Writer() io.Writer {
	return l.out
}

// Infof 格式化的信息日志
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf 格式化的警告日志
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Debugf 格式化的调试日志
func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}

// Errorf 格式化的错误日志
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Printf 原样输出，不受级别限制
func (l *Logger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, format, args...)
}

// Step 开始一个处理步骤
// 格式: [步骤名] 参数 ...
func (l *Logger) Step(name string, params ...any) {
	l.stepStart = time.Now()
	if len(params) > 0 {
		l.Printf("[%s] %v ... ", name, params[0])
	} else {
		l.Printf("[%s] ", name)
	}
}

// Done 完成当前步骤
// 格式: → 结果 (耗时)
func (l *Logger) Done(result string) {
	elapsed := time.Since(l.stepStart)
	if elapsed > 100*time.Millisecond {
		l.Printf("→ %s (%.2fs)\n", result, elapsed.Seconds())
	} else {
		l.Printf("→ %s\n", result)
	}
}

// Total 输出总耗时
func (l *Logger) Total() {
	l.Printf("\n✓ 总耗时: %.2fs\n", time.Since(l.totalStart).Seconds())
}

// handler 按级别加前缀的纯文本输出，不带时间戳
type handler struct {
	out   io.Writer
	mu    *sync.Mutex
	level slog.Level
	attrs []slog.Attr
	group string
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 128)
	buf = append(buf, prefix(r.Level)...)
	buf = append(buf, r.Message...)

	// WithAttrs 存入的属性已带组前缀
	for _, a := range h.attrs {
		buf = fmt.Appendf(buf, " %s=%v", a.Key, a.Value.Resolve())
	}
	r.Attrs(func(a slog.Attr) bool {
		if !a.Equal(slog.Attr{}) {
			buf = fmt.Appendf(buf, " %s=%v", h.qualify(a.Key), a.Value.Resolve())
		}
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		nh.attrs = append(nh.attrs, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return &nh
}

func (h *handler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *handler) WithGroup(name string) slog.Handler {
	nh := *h
	if nh.group != "" {
		name = nh.group + "." + name
	}
	nh.group = name
	return &nh
}

func prefix(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "  ✗ "
	case level >= slog.LevelWarn:
		return "  ⚠ "
	case level >= slog.LevelInfo:
		return "  • "
	default:
		return "  · "
	}
}
