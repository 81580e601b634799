package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %q", results[2].Detail)
	}
}

func TestResolveTorchFromPath(t *testing.T) {
	binDir := t.TempDir()
	stub := writeStub(t, binDir, "torch")
	t.Setenv("PATH", binDir)

	resolved, err := ResolveTorch("torch")
	if err != nil {
		t.Fatalf("ResolveTorch: %v", err)
	}
	if resolved != stub {
		t.Fatalf("expected %q, got %q", stub, resolved)
	}
}

func TestResolveTorchMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := ResolveTorch("torch")
	if err == nil || !strings.Contains(err.Error(), `binary "torch" not found`) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
