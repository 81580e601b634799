package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"o2rconv/internal/config"
	"o2rconv/internal/engine"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	configDir  string
	romPath    string
	historyDB  string
	engine     *stubEngine
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("O2RCONV_TORCH_BINARY", "")

	configPath := filepath.Join(base, "config.toml")
	historyDB := filepath.Join(base, "history.db")
	content := fmt.Sprintf("[paths]\nlog_dir = %q\nhistory_db = %q\n\n[logging]\nlevel = \"error\"\n",
		filepath.Join(base, "logs"), historyDB)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	configDir := filepath.Join(base, "port")
	if err := os.MkdirAll(filepath.Join(configDir, "assets"), 0o755); err != nil {
		t.Fatalf("mkdir assets: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yml"), []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write config.yml: %v", err)
	}

	romPath := filepath.Join(base, "baserom.z64")
	data := make([]byte, 0x1000)
	copy(data, []byte{0x80, 0x37, 0x12, 0x40})
	copy(data[0x20:], "TESTROM")
	copy(data[0x3B:], "NTEE")
	if err := os.WriteFile(romPath, data, 0o644); err != nil {
		t.Fatalf("write rom: %v", err)
	}

	return &cliTestEnv{
		baseDir:    base,
		configPath: configPath,
		configDir:  configDir,
		romPath:    romPath,
		historyDB:  historyDB,
		engine:     &stubEngine{writeOutput: true},
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx := newCommandContext()
	ctx.newEngine = func(*config.Config, *slog.Logger) (engine.Factory, error) {
		return e.engine, nil
	}
	cmd := newRootCommandWith(ctx)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// stubEngine stands in for Torch; it writes a small archive on Process.
type stubEngine struct {
	writeOutput bool
	processErr  error
	sessions    int
}

func (s *stubEngine) NewSession(_ context.Context, opts engine.Options) (engine.Session, error) {
	s.sessions++
	return &stubSession{engine: s, opts: opts}, nil
}

type stubSession struct {
	engine *stubEngine
	opts   engine.Options
}

func (s *stubSession) RegisterFactories(context.Context, engine.ExportType) error { return nil }

func (s *stubSession) Process(context.Context) error {
	if s.engine.processErr != nil {
		return s.engine.processErr
	}
	if !s.engine.writeOutput {
		return nil
	}
	return os.WriteFile(s.opts.OutputPath, []byte("not really a zip"), 0o644)
}

func (s *stubSession) Cartridge() (engine.Cartridge, bool) { return engine.Cartridge{}, false }

func (s *stubSession) Close() error { return nil }
