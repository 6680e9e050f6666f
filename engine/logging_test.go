package engine

import (
	"errors"
	"testing"

	"github.com/joeycumines/logiface"
)

type testEventWriter struct {
	onWrite func(*logEvent) error
}

func (w *testEventWriter) Write(event *logEvent) error {
	if w.onWrite != nil {
		return w.onWrite(event)
	}
	return nil
}

type testEventFactory struct{}

func (testEventFactory) NewEvent(level logiface.Level) *logEvent {
	return &logEvent{level: level}
}

func TestLogifaceLoggerForwardsEntry(t *testing.T) {
	var gotCategory any
	var gotErr any

	writer := &testEventWriter{
		onWrite: func(event *logEvent) error {
			gotCategory = event.fields["category"]
			gotErr = event.fields["error"]
			return nil
		},
	}

	typed := logiface.New[*logEvent](
		logiface.WithEventFactory[*logEvent](testEventFactory{}),
		logiface.WithWriter[*logEvent](writer),
		logiface.WithLevel[*logEvent](logiface.LevelDebug),
	)

	l := NewLogifaceLogger(typed)
	if !l.IsEnabled(LevelWarn) {
		t.Fatal("expected LevelWarn to be enabled")
	}

	wantErr := errors.New("boom")
	l.Log(LogEntry{Level: LevelWarn, Category: "hook", Message: "rejected", Err: wantErr})

	if gotCategory != "hook" {
		t.Fatalf("got category %v, want hook", gotCategory)
	}
	if gotErr != wantErr {
		t.Fatalf("got error %v, want %v", gotErr, wantErr)
	}
}

func TestLogifaceLoggerDisabledLevel(t *testing.T) {
	var logged bool
	writer := &testEventWriter{
		onWrite: func(event *logEvent) error {
			logged = true
			return nil
		},
	}
	typed := logiface.New[*logEvent](
		logiface.WithEventFactory[*logEvent](testEventFactory{}),
		logiface.WithWriter[*logEvent](writer),
		logiface.WithLevel[*logEvent](logiface.LevelError),
	)
	l := NewLogifaceLogger(typed)
	l.Log(LogEntry{Level: LevelDebug, Category: "reservoir", Message: "write failed"})
	if logged {
		t.Fatal("expected Debug entry to be suppressed below LevelError")
	}
}

func TestDefaultLoggerWritesAboveLevel(t *testing.T) {
	var buf stringWriter
	l := NewDefaultLogger(&buf, LevelInfo)
	l.Log(LogEntry{Level: LevelDebug, Category: "dispatch", Message: "should be suppressed"})
	if buf.s != "" {
		t.Fatalf("expected nothing written below configured level, got %q", buf.s)
	}
	l.Log(LogEntry{Level: LevelInfo, Category: "dispatch", Message: "tick"})
	if buf.s == "" {
		t.Fatal("expected Info entry to be written")
	}
}

type stringWriter struct{ s string }

func (w *stringWriter) Write(p []byte) (int, error) {
	w.s += string(p)
	return len(p), nil
}
