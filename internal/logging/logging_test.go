package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "warning": slog.LevelWarn,
		"error": slog.LevelError, "": slog.LevelInfo, "verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestNewJSONToStdout(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(Config{Level: "warn"}, &buf)
	defer closer()

	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not json: %v", err)
	}
	if rec["msg"] != "shown" || rec["k"] != "v" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestFileOnlyKeepsStdoutClean(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "goadmin.log")
	logger, closer := New(Config{Level: "info", Filename: path, FileOnly: true}, &buf)
	logger.Info("to file")
	if err := closer(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if buf.Len() != 0 {
		t.Fatalf("stdout must stay empty, got %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Fatalf("expected record in file, got %q", data)
	}
}
