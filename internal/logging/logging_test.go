package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(Config{Level: "debug", Encoding: "json", OutputPath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("hello", zap.String("k", "v"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"msg":"hello"`, `"k":"v"`, `"level":"DEBUG"`, `"timestamp"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(Config{Level: "chatty", Encoding: "yaml", OutputPath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.Core().Enabled(zap.DebugLevel) {
		t.Error("debug enabled, want info")
	}
	if !log.Core().Enabled(zap.InfoLevel) {
		t.Error("info disabled")
	}
}
