package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(format string) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	var handler slog.Handler
	if format == "json" {
		handler = newJSONHandler(buf, levelVar)
	} else {
		handler = newConsoleHandler(buf, levelVar)
	}
	return slog.New(handler), buf
}

func TestConsoleHandlerPrefixesComponent(t *testing.T) {
	logger, buf := newBufferLogger("console")
	NewComponentLogger(logger, "engine").Info("pipeline attached", String(FieldElementID, "el-1"))

	line := buf.String()
	if !strings.Contains(line, "engine: pipeline attached") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "element_id=el-1") {
		t.Fatalf("expected element_id attr, got %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	logger, buf := newBufferLogger("console")
	logger.Warn("store write failed", String("detail", "disk full"))

	if !strings.Contains(buf.String(), `detail="disk full"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestJSONHandlerRenamesKeys(t *testing.T) {
	logger, buf := newBufferLogger("json")
	logger.Info("hello")

	line := buf.String()
	for _, key := range []string{`"ts"`, `"level":"info"`, `"msg":"hello"`} {
		if !strings.Contains(line, key) {
			t.Fatalf("expected %s in %q", key, line)
		}
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("nonsense"); got != slog.LevelInfo {
		t.Fatalf("parseLevel(nonsense) = %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("parseLevel(debug) = %v", got)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
