package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// consoleProvider 控制台输出的共享写入端
type consoleProvider struct {
	out io.Writer
	mu  sync.Mutex
}

func newConsoleProvider() *consoleProvider {
	return &consoleProvider{out: os.Stdout}
}

func (p *consoleProvider) write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

// consoleLogger 控制台日志实现
type consoleLogger struct {
	provider     *consoleProvider
	minimumLevel LogLevel
	category     string
	fields       []Field
}

func (l *consoleLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *consoleLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *consoleLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *consoleLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *consoleLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *consoleLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *consoleLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.minimumLevel {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.category != "" {
		b.WriteString(l.category)
		b.WriteString(": ")
	}
	b.WriteString(msg)

	// 合并字段
	allFields := append(l.fields, fields...)
	for _, f := range allFields {
		b.WriteString(fmt.Sprintf(" %s=%v", f.Key, f.Value))
	}

	l.provider.write(b.String())
}

func (l *consoleLogger) WithFields(fields ...Field) Logger {
	return &consoleLogger{
		provider:     l.provider,
		minimumLevel: l.minimumLevel,
		category:     l.category,
		fields:       append(append([]Field(nil), l.fields...), fields...),
	}
}

func (l *consoleLogger) WithCategory(category string) Logger {
	return &consoleLogger{
		provider:     l.provider,
		minimumLevel: l.minimumLevel,
		category:     category,
		fields:       l.fields,
	}
}
