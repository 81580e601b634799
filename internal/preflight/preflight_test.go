package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"o2rconv/internal/config"
	"o2rconv/internal/services"
)

type fixture struct {
	rom       string
	configDir string
	output    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	configDir := filepath.Join(base, "starship")
	if err := os.MkdirAll(filepath.Join(configDir, AssetsDir), 0o755); err != nil {
		t.Fatalf("mkdir assets: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yml"), []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write config.yml: %v", err)
	}
	rom := filepath.Join(base, "baserom.z64")
	if err := os.WriteFile(rom, []byte{0x80, 0x37, 0x12, 0x40}, 0o644); err != nil {
		t.Fatalf("write rom: %v", err)
	}
	return fixture{rom: rom, configDir: configDir, output: filepath.Join(configDir, "sf64.o2r")}
}

func (f fixture) inputs() Inputs {
	return Inputs{ROMPath: f.rom, OutputPath: f.output, ConfigDir: f.configDir}
}

func failureMessage(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	return services.Details(err).Message
}

func TestValidatePasses(t *testing.T) {
	f := newFixture(t)
	if err := NewValidator(nil).Validate(context.Background(), f.inputs()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.configDir, ProbeFile)); !os.IsNotExist(err) {
		t.Fatal("write probe was not removed")
	}
}

func TestValidateFailuresInOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(t *testing.T, f *fixture)
		want   string
	}{
		{"missing rom", func(t *testing.T, f *fixture) { f.rom = filepath.Join(f.configDir, "nope.z64") }, MsgROMNotFound},
		{"rom is directory", func(t *testing.T, f *fixture) { f.rom = f.configDir }, MsgROMNotFound},
		{"missing config dir", func(t *testing.T, f *fixture) { f.configDir = filepath.Join(f.configDir, "missing") }, MsgConfigDirNotFound},
		{"missing config.yml", func(t *testing.T, f *fixture) {
			if err := os.Remove(filepath.Join(f.configDir, "config.yml")); err != nil {
				t.Fatal(err)
			}
		}, MsgConfigYMLMissing},
		{"missing assets", func(t *testing.T, f *fixture) {
			if err := os.RemoveAll(filepath.Join(f.configDir, AssetsDir)); err != nil {
				t.Fatal(err)
			}
		}, MsgAssetsMissing},
		{"assets is file", func(t *testing.T, f *fixture) {
			path := filepath.Join(f.configDir, AssetsDir)
			if err := os.RemoveAll(path); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		}, MsgAssetsMissing},
		{"missing rom wins over missing assets", func(t *testing.T, f *fixture) {
			f.rom = filepath.Join(f.configDir, "nope.z64")
			if err := os.RemoveAll(filepath.Join(f.configDir, AssetsDir)); err != nil {
				t.Fatal(err)
			}
		}, MsgROMNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.mutate(t, &f)
			err := NewValidator(nil).Validate(context.Background(), f.inputs())
			if got := failureMessage(t, err); got != tc.want {
				t.Fatalf("message = %q, want %q", got, tc.want)
			}
			if !errors.Is(err, services.ErrNotFound) {
				t.Fatalf("expected not-found marker, got %v", err)
			}
		})
	}
}

func TestValidateNotWritable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	f := newFixture(t)
	if err := os.Chmod(f.configDir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(f.configDir, 0o755) })

	err := NewValidator(nil).Validate(context.Background(), f.inputs())
	if got := failureMessage(t, err); got != MsgNotWritable {
		t.Fatalf("message = %q, want %q", got, MsgNotWritable)
	}
	if services.Details(err).Hint == "" {
		t.Fatal("expected operator hint")
	}
}

func TestValidateCreatesOutputDirectory(t *testing.T) {
	f := newFixture(t)
	f.output = filepath.Join(f.configDir, "out", "nested", "sf64.o2r")
	if err := NewValidator(nil).Validate(context.Background(), f.inputs()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(f.output)); err != nil || !info.IsDir() {
		t.Fatalf("output directory not created: %v", err)
	}
	// idempotent
	if err := NewValidator(nil).Validate(context.Background(), f.inputs()); err != nil {
		t.Fatalf("second Validate: %v", err)
	}
}

func TestValidateOutputDirectoryBlockedByFile(t *testing.T) {
	f := newFixture(t)
	blocker := filepath.Join(f.configDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.output = filepath.Join(blocker, "sf64.o2r")
	err := NewValidator(nil).Validate(context.Background(), f.inputs())
	if got := failureMessage(t, err); got != MsgOutputDir {
		t.Fatalf("message = %q, want %q", got, MsgOutputDir)
	}
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDiskSpace(context.Background(), "disk", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte threshold, got %s", result.Detail)
	}
	if result := CheckDiskSpace(context.Background(), "disk", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with impossible threshold")
	}
}

func TestCheckLayout(t *testing.T) {
	f := newFixture(t)
	if result := CheckLayout(f.configDir); !result.Passed {
		t.Fatalf("expected layout to pass, got %s", result.Detail)
	}
	if result := CheckLayout(t.TempDir()); result.Passed || result.Detail != MsgConfigYMLMissing {
		t.Fatalf("unexpected result for empty dir: %+v", result)
	}
}

func TestRunAllIncludesConfigDirectoryChecks(t *testing.T) {
	f := newFixture(t)
	cfg := config.Default()
	cfg.Torch.Binary = "clearly-not-present-torch"
	cfg.Paths.LogDir = t.TempDir()

	results := RunAll(context.Background(), &cfg, f.configDir)
	names := make(map[string]Result, len(results))
	for _, r := range results {
		names[r.Name] = r
	}
	if torch, ok := names["Torch"]; !ok || torch.Passed {
		t.Fatalf("expected failing Torch check, got %+v", torch)
	}
	for _, name := range []string{"Log directory", "Config directory", "Asset layout", "Disk space"} {
		if _, ok := names[name]; !ok {
			t.Fatalf("missing %s check in %+v", name, results)
		}
	}
	if RunAll(context.Background(), nil, "") != nil {
		t.Fatal("expected nil results for nil config")
	}
}
