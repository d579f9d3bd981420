// Package testutil provides shared helpers for integration tests: a
// thread-safe log buffer and a harness that runs a full app over a set of
// declaration files written to a temp directory.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/calcgrid/internal/app"
	"github.com/vk/calcgrid/internal/decl"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// RunApp provides a standardized harness for integration tests: it writes
// the given declaration files into a temp directory, wires a full app
// over them, and runs it to completion. cfg may be nil for defaults;
// its DeclPath and log sinks are filled in by the harness.
func RunApp(t *testing.T, files map[string]string, cfg *app.Config) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	if cfg == nil {
		cfg = &app.Config{}
	}
	cfg.DeclPath = dir
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}

	var out bytes.Buffer
	logs := &SafeBuffer{}
	cfg.LogW = logs

	ctx := context.Background()
	result := &HarnessResult{}
	result.App, result.Err = app.New(ctx, &out, cfg, decl.NewLoader())
	if result.Err == nil {
		result.Err = result.App.Run(ctx, cfg)
	}

	result.Output = out.String()
	result.LogOutput = logs.String()
	return result
}
