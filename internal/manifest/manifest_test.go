package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
F7475FB11E7E6830F82883412638E8390791AB87:
  name: Star Fox 64 (U) (V1.1)
  path: assets/yaml/us/rev1
  config:
    gbi: F3DEX
    sort: OFFSET
579c48e211ae952530ffc8738709f078d5dd215e:
  name: Mario Kart 64 (US)
  path: assets/yaml/us
version: 2
`

func TestParseConfigEntries(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	entry, ok := cfg.Lookup("f7475fb11e7e6830f82883412638e8390791ab87")
	if !ok {
		t.Fatal("expected upper-case key to be normalized")
	}
	if entry.Name != "Star Fox 64 (U) (V1.1)" || entry.Path != "assets/yaml/us/rev1" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Config["gbi"] != "F3DEX" {
		t.Fatalf("unexpected config block %+v", entry.Config)
	}
	if got := cfg.Digests(); len(got) != 2 {
		t.Fatalf("expected scalar keys to be skipped, got %v", got)
	}
	if _, ok := cfg.Lookup("0000"); ok {
		t.Fatal("unexpected match for unknown digest")
	}
}

func TestParseConfigRejectsInvalidYAML(t *testing.T) {
	if _, err := ParseConfig([]byte("key: [unterminated")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadHashManifest(t *testing.T) {
	dir := t.TempDir()
	content := "assets/yaml/us/rev1/ast_common.yaml:\n  hash: abc\n  extracted:\n    binary: true\n"
	if err := os.WriteFile(filepath.Join(dir, HashFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	manifest, err := LoadHashManifest(dir, "")
	if err != nil {
		t.Fatalf("LoadHashManifest: %v", err)
	}
	if manifest.Len() != 1 || manifest.Path != filepath.Join(dir, HashFile) {
		t.Fatalf("unexpected manifest %+v", manifest)
	}
}

func TestLoadHashManifestEmptyFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, HashFile), nil, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	manifest, err := LoadHashManifest(dir, HashFile)
	if err != nil {
		t.Fatalf("LoadHashManifest: %v", err)
	}
	if manifest.Len() != 0 {
		t.Fatalf("expected empty manifest, got %d entries", manifest.Len())
	}
}
