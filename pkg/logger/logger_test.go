package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func newTestLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.Colorize = false
	cfg.ShowTime = false
	cfg.Output = &buf
	return New(cfg), &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(WARN)
	l.Infof("hidden %d", 1)
	l.Warnf("shown %d", 2)
	l.Errorf("shown %d", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO message written at WARN level: %q", out)
	}
	if !strings.Contains(out, "shown 2") || !strings.Contains(out, "shown 3") {
		t.Errorf("missing messages: %q", out)
	}
	if !strings.Contains(out, "level=error") {
		t.Errorf("Errorf should log at error level: %q", out)
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newTestLogger(INFO)
	l.Debugf("before")
	l.SetLevel(DEBUG)
	l.Debugf("after")
	if strings.Contains(buf.String(), "before") || !strings.Contains(buf.String(), "after") {
		t.Errorf("SetLevel not applied: %q", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	l, buf := newTestLogger(INFO)
	l.WithFields(map[string]any{"participant": "302_Bonnie"}).Infof("cropped")
	if !strings.Contains(buf.String(), "participant=302_Bonnie") {
		t.Errorf("field missing: %q", buf.String())
	}
}

func TestShowCallerSkipsWrapper(t *testing.T) {
	l, buf := newTestLogger(INFO)
	l.SetShowCaller(true)
	l.WithField("k", "v").Infof("where")
	GetLogger().SetOutput(buf)
	GetLogger().SetShowCaller(true)
	Infof("package level")
	GetLogger().SetShowCaller(false)
	GetLogger().SetOutput(os.Stdout)

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, "logger_test.go:") {
			t.Errorf("caller should be the test file: %q", line)
		}
		if strings.Contains(line, "logger.go:") {
			t.Errorf("caller points into the wrapper: %q", line)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", DEBUG, true},
		{" WARNING ", WARN, true},
		{"error", ERROR, true},
		{"verbose", INFO, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, ok)
		}
	}
}
