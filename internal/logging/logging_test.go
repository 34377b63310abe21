package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestInitTextFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelInfo, "text", &buf)

	New("engine").Info("hello", "k", "v")

	out := buf.String()
	if !strings.Contains(out, "component=engine") {
		t.Errorf("missing component attr: %s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("missing message: %s", out)
	}
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelInfo, "json", &buf)

	New("store").Warn("degraded")

	out := buf.String()
	if !strings.Contains(out, `"component":"store"`) {
		t.Errorf("missing component attr in JSON: %s", out)
	}
}

func TestInitLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelWarn, "text", &buf)

	New("x").Debug("invisible")
	if buf.Len() != 0 {
		t.Errorf("debug record emitted at warn level: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
