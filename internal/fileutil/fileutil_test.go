package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.o2r")
	dst := filepath.Join(dir, "dst.o2r")

	content := []byte("archive payload")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(filepath.Join(dir, "missing"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestPublishCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sf64.o2r")
	if err := os.WriteFile(src, []byte("zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "games", "starship")

	published, err := Publish(src, target)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if published != filepath.Join(target, "sf64.o2r") {
		t.Fatalf("unexpected destination %q", published)
	}
	if _, err := os.Stat(published + ".partial"); !os.IsNotExist(err) {
		t.Fatal("temporary file left behind")
	}
	got, err := os.ReadFile(published)
	if err != nil || string(got) != "zip" {
		t.Fatalf("published content mismatch: %q %v", got, err)
	}
}

func TestPublishSameDirectoryIsNoop(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mk64.o2r")
	if err := os.WriteFile(src, []byte("zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	published, err := Publish(src, dir)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if published != src {
		t.Fatalf("expected %q, got %q", src, published)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.o2r")
	dst := filepath.Join(dir, "b.o2r")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source still exists after move")
	}
	if got, _ := os.ReadFile(dst); string(got) != "data" {
		t.Fatalf("unexpected content %q", got)
	}
}
