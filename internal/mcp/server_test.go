package mcp

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mossline/gardenseer/internal/config"
)

func TestNewServer_TraceEnabled(t *testing.T) {
	dir := t.TempDir()
	runtime := config.Default()
	runtime.Logging.TraceRuns = true

	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    dir,
		DataDir: dir,
		Runtime: runtime,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	if server.trace == nil {
		t.Error("trace logger not opened with trace_runs enabled")
	}
	if _, err := os.Stat(filepath.Join(dir, "runs.jsonl")); err != nil {
		t.Errorf("runs.jsonl not created: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewServer_TraceDisabled(t *testing.T) {
	runtime := config.Default()
	runtime.Logging.TraceRuns = false

	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    t.TempDir(),
		DataDir: t.TempDir(),
		Runtime: runtime,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer server.Close()

	if server.trace != nil {
		t.Error("trace logger opened despite trace_runs disabled")
	}
}
