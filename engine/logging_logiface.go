package engine

import "github.com/joeycumines/logiface"

// logEvent is a minimal logiface.Event implementation, the same bridge
// shape the teacher's own tests use to exercise logiface against a
// home-grown logging interface: embed UnimplementedEvent, implement
// Level and AddField, and let everything else fall back to the
// unimplemented defaults.
type logEvent struct {
	logiface.UnimplementedEvent
	level  logiface.Level
	fields map[string]any
}

func (e *logEvent) Level() logiface.Level { return e.level }

func (e *logEvent) AddField(key string, val any) {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	e.fields[key] = val
}

func (e *logEvent) AddString(key string, val string) bool {
	e.AddField(key, val)
	return true
}

func (e *logEvent) AddError(err error) bool {
	e.AddField("error", err)
	return true
}

func toLogifaceLevel(l LogLevel) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// logifaceLogger adapts a *logiface.Logger[*logEvent] into Logger.
type logifaceLogger struct {
	logger *logiface.Logger[*logEvent]
}

// NewLogifaceLogger returns a Logger that forwards every LogEntry to
// logger as a logiface event: Category and Message become string/message
// fields, Err becomes an error field, and the entry's LogLevel is mapped
// onto logiface's syslog-style Level scale.
func NewLogifaceLogger(logger *logiface.Logger[*logEvent]) Logger {
	return &logifaceLogger{logger: logger}
}

// IsEnabled reports whether level maps to an enabled logiface level.
func (l *logifaceLogger) IsEnabled(level LogLevel) bool {
	return toLogifaceLevel(level).Enabled()
}

// Log builds a Builder at entry's mapped level and logs its fields.
func (l *logifaceLogger) Log(entry LogEntry) {
	b := l.logger.Build(toLogifaceLevel(entry.Level))
	if b == nil {
		return
	}
	b = b.Str("category", entry.Category)
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	b.Log(entry.Message)
}
