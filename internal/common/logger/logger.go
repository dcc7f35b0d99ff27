package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ventionteams/medfast-credentials/internal/common/constants"
)

type Fields map[string]interface{}

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	CRITICAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Option func(*Logger)

// WithFormat switches the line encoding. Unknown values fall back to text.
func WithFormat(f Format) Option {
	return func(l *Logger) {
		if f == FormatJSON {
			l.format = FormatJSON
			return
		}
		l.format = FormatText
	}
}

type Logger struct {
	mu          sync.RWMutex
	writeMu     sync.Mutex
	level       LogLevel
	format      Format
	w           io.Writer
	serviceName string
	now         func() time.Time
}

type record struct {
	time    time.Time
	level   LogLevel
	service string
	traceID string
	caller  string
	msg     string
	fields  Fields
}

// New builds a logger writing to stdout and, when logDir is set, to a
// rotated app.log inside it.
func New(logDir, serviceName, level string, opts ...Option) (*Logger, error) {
	l := &Logger{format: FormatText, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.Initialize(logDir, serviceName, level); err != nil {
		return nil, err
	}
	return l, nil
}

func NewWithWriter(w io.Writer, serviceName, level string, opts ...Option) *Logger {
	l := &Logger{
		level:       parseLevel(level),
		format:      FormatText,
		w:           w,
		serviceName: serviceName,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Logger) Initialize(logDir, serviceName, level string) error {
	var out io.Writer = os.Stdout
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "app.log"),
			MaxSize:    constants.LoggerMaxSize,
			MaxBackups: constants.LoggerMaxBackups,
			MaxAge:     constants.LoggerMaxAge,
			Compress:   true,
		})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.w = out
	l.level = parseLevel(level)
	l.serviceName = serviceName
	if l.now == nil {
		l.now = time.Now
	}
	return nil
}

func (l *Logger) Enabled(level LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

// emit must be called directly from an exported logging method so that the
// reported caller is the one outside this package.
func (l *Logger) emit(level LogLevel, ctx context.Context, fields Fields, msg string) {
	l.mu.RLock()
	minLevel, format, w, service, now := l.level, l.format, l.w, l.serviceName, l.now
	l.mu.RUnlock()

	if level < minLevel || w == nil {
		return
	}

	rec := record{
		time:    now(),
		level:   level,
		service: service,
		msg:     msg,
		fields:  fields,
		caller:  "unknown:0",
	}
	if ctx != nil {
		if traceID, ok := ctx.Value(constants.TraceIDKey).(string); ok {
			rec.traceID = traceID
		}
	}
	if _, file, line, ok := runtime.Caller(2); ok {
		rec.caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	var line []byte
	if format == FormatJSON {
		line = encodeJSON(rec)
	} else {
		line = encodeText(rec)
	}

	l.writeMu.Lock()
	_, _ = w.Write(line)
	l.writeMu.Unlock()
}

func encodeText(rec record) []byte {
	var b strings.Builder
	b.WriteString(rec.time.Format("2006/01/02 15:04:05"))
	b.WriteString(" [")
	b.WriteString(rec.level.String())
	b.WriteByte(']')
	if rec.service != "" {
		b.WriteString(" [")
		b.WriteString(rec.service)
		b.WriteByte(']')
	}

	var parts []string
	if rec.traceID != "" {
		parts = append(parts, "trace_id="+rec.traceID)
	}
	for _, k := range sortedKeys(rec.fields) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, rec.fields[k]))
	}
	if len(parts) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(parts, " "))
		b.WriteByte(']')
	}

	b.WriteByte(' ')
	b.WriteString(rec.caller)
	b.WriteByte(' ')
	b.WriteString(rec.msg)
	b.WriteByte('\n')
	return []byte(b.String())
}

func encodeJSON(rec record) []byte {
	doc := make(map[string]interface{}, len(rec.fields)+6)
	for k, v := range rec.fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		doc[k] = v
	}
	doc["ts"] = rec.time.UTC().Format(time.RFC3339Nano)
	doc["level"] = rec.level.String()
	doc["caller"] = rec.caller
	doc["msg"] = rec.msg
	if rec.service != "" {
		doc["service"] = rec.service
	}
	if rec.traceID != "" {
		doc["trace_id"] = rec.traceID
	}

	data, err := json.Marshal(doc)
	if err != nil {
		data, _ = json.Marshal(map[string]string{
			"ts":    rec.time.UTC().Format(time.RFC3339Nano),
			"level": rec.level.String(),
			"msg":   rec.msg,
			"error": "unencodable fields: " + err.Error(),
		})
	}
	return append(data, '\n')
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *Logger) Debug(msg string)    { l.emit(DEBUG, nil, nil, msg) }
func (l *Logger) Info(msg string)     { l.emit(INFO, nil, nil, msg) }
func (l *Logger) Warn(msg string)     { l.emit(WARNING, nil, nil, msg) }
func (l *Logger) Error(msg string)    { l.emit(ERROR, nil, nil, msg) }
func (l *Logger) Critical(msg string) { l.emit(CRITICAL, nil, nil, msg) }

func (l *Logger) Debugf(format string, args ...any) {
	l.emit(DEBUG, nil, nil, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	l.emit(INFO, nil, nil, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.emit(WARNING, nil, nil, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.emit(ERROR, nil, nil, fmt.Sprintf(format, args...))
}

func (l *Logger) Criticalf(format string, args ...any) {
	l.emit(CRITICAL, nil, nil, fmt.Sprintf(format, args...))
}

func (l *Logger) Fatal(msg string) {
	l.emit(CRITICAL, nil, nil, msg)
	os.Exit(1)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.emit(CRITICAL, nil, nil, fmt.Sprintf(format, args...))
	os.Exit(1)
}

func (l *Logger) WithFields(ctx context.Context, fields Fields) *Entry {
	return &Entry{logger: l, ctx: ctx, fields: fields}
}

// Entry carries request-scoped fields and the trace id of ctx.
type Entry struct {
	logger *Logger
	ctx    context.Context
	fields Fields
}

// With returns a copy of the entry extended by fields; later keys win.
func (e *Entry) With(fields Fields) *Entry {
	merged := make(Fields, len(e.fields)+len(fields))
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Entry{logger: e.logger, ctx: e.ctx, fields: merged}
}

func (e *Entry) Debug(msg string)    { e.logger.emit(DEBUG, e.ctx, e.fields, msg) }
func (e *Entry) Info(msg string)     { e.logger.emit(INFO, e.ctx, e.fields, msg) }
func (e *Entry) Warn(msg string)     { e.logger.emit(WARNING, e.ctx, e.fields, msg) }
func (e *Entry) Error(msg string)    { e.logger.emit(ERROR, e.ctx, e.fields, msg) }
func (e *Entry) Critical(msg string) { e.logger.emit(CRITICAL, e.ctx, e.fields, msg) }

func (e *Entry) Debugf(format string, args ...any) {
	e.logger.emit(DEBUG, e.ctx, e.fields, fmt.Sprintf(format, args...))
}

func (e *Entry) Infof(format string, args ...any) {
	e.logger.emit(INFO, e.ctx, e.fields, fmt.Sprintf(format, args...))
}

func (e *Entry) Warnf(format string, args ...any) {
	e.logger.emit(WARNING, e.ctx, e.fields, fmt.Sprintf(format, args...))
}

func (e *Entry) Errorf(format string, args ...any) {
	e.logger.emit(ERROR, e.ctx, e.fields, fmt.Sprintf(format, args...))
}

func (e *Entry) Criticalf(format string, args ...any) {
	e.logger.emit(CRITICAL, e.ctx, e.fields, fmt.Sprintf(format, args...))
}

func parseLevel(value string) LogLevel {
	switch strings.TrimSpace(strings.ToUpper(value)) {
	case "DEBUG":
		return DEBUG
	case "WARNING", "WARN":
		return WARNING
	case "ERROR":
		return ERROR
	case "CRITICAL":
		return CRITICAL
	default:
		return INFO
	}
}

func ParseFormat(value string) Format {
	if strings.EqualFold(strings.TrimSpace(value), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}
