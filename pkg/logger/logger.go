// Package logger is the ledger's structured logger: leveled entries with
// key/value fields, rendered as JSON lines (production) or sorted text (local
// runs), and carried through request contexts.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level orders entries by severity; a Logger drops entries below its own.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError

	levelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level; unknown values give Info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format selects how entries are rendered.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat maps a config string to a Format, defaulting to JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// Field is one key/value attached to an entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field    { return Field{Key: key, Value: value} }
func Int(key string, value int) Field   { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Err puts err's message under "error". A nil error logs as null.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration renders value with time.Duration's String form.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Any keeps value as is; it must be JSON-encodable.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// LogEntry is one rendered line.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Caller    string         `json:"caller,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger writes entries at or above its level. Loggers derived with With
// share the parent's writer and lock, so lines never interleave.
type Logger struct {
	mu         *sync.Mutex
	output     io.Writer
	format     Format
	level      Level
	fields     []Field
	addCaller  bool
	callerSkip int
}

// Options configures New. The zero value logs every level as JSON to stdout.
type Options struct {
	Output     io.Writer
	Format     Format
	Level      Level
	AddCaller  bool
	CallerSkip int
}

func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	return &Logger{
		mu:         &sync.Mutex{},
		output:     opts.Output,
		format:     opts.Format,
		level:      opts.Level,
		addCaller:  opts.AddCaller,
		callerSkip: opts.CallerSkip,
	}
}

// Default logs Info and up as JSON to stdout, with caller info.
func Default() *Logger {
	return New(Options{Level: LevelInfo, AddCaller: true})
}

// With derives a Logger that adds fields to every entry. The parent is not
// modified.
func (l *Logger) With(fields ...Field) *Logger {
	child := *l
	child.fields = append(slices.Clip(l.fields), fields...)
	return &child
}

// log must be called directly by the exported level methods: the caller
// lookup skips exactly those two frames.
func (l *Logger) log(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Fields:    mergeFields(l.fields, fields),
	}
	if l.addCaller {
		if _, file, line, ok := runtime.Caller(2 + l.callerSkip); ok {
			entry.Caller = filepath.Base(file) + ":" + strconv.Itoa(line)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.format == FormatText {
		l.writeText(entry)
		return
	}
	l.writeJSON(entry)
}

// mergeFields flattens inherited and call-site fields; on a key clash the
// call site wins.
func mergeFields(inherited, local []Field) map[string]any {
	if len(inherited)+len(local) == 0 {
		return nil
	}
	out := make(map[string]any, len(inherited)+len(local))
	for _, f := range inherited {
		out[f.Key] = f.Value
	}
	for _, f := range local {
		out[f.Key] = f.Value
	}
	return out
}

// writeJSON emits one JSON line. Caller holds mu.
func (l *Logger) writeJSON(entry LogEntry) {
	line, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.output, "%s %s %s (unencodable fields: %v)\n", entry.Timestamp, entry.Level, entry.Message, err)
		return
	}
	_, _ = l.output.Write(append(line, '\n'))
}

// writeText renders "ts LEVEL msg k=v ..." with keys sorted. Caller holds mu.
func (l *Logger) writeText(entry LogEntry) {
	var b strings.Builder
	b.WriteString(entry.Timestamp)
	b.WriteByte(' ')
	b.WriteString(entry.Level)
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	if entry.Caller != "" {
		b.WriteString(" caller=")
		b.WriteString(entry.Caller)
	}
	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	b.WriteByte('\n')
	_, _ = io.WriteString(l.output, b.String())
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

type ctxKey struct{}

// WithContext stores l in ctx for FromContext.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithContext, or fallback when the
// context has none. A nil fallback means Default().
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return Default()
}

// RequestIDKey is the field the HTTP layer tags entries with.
const RequestIDKey = "request_id"

// WithRequestID is With(String(RequestIDKey, requestID)).
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With(String(RequestIDKey, requestID))
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	return New(Options{Output: io.Discard, Level: levelOff})
}

// Ledger field keys, kept uniform so log queries can join on them.
func UserID(id string) Field        { return String("user_id", id) }
func XPDelta(delta int) Field       { return Int("xp_delta", delta) }
func PointsDelta(delta int) Field   { return Int("points_delta", delta) }
func EntityID(k, id string) Field   { return String(k+"_id", id) }
func Component(name string) Field   { return String("component", name) }
func Operation(name string) Field   { return String("operation", name) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
