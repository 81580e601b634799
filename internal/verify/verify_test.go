package verify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"o2rconv/internal/services"
)

func writeArchive(t *testing.T, path string, names ...string) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(file)
	for _, name := range names {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte("asset:" + name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := file.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestVerifyMissingOutput(t *testing.T) {
	dir := t.TempDir()
	v := New(Options{InspectArchive: true}, nil)
	_, err := v.Verify(context.Background(), filepath.Join(dir, "sf64.o2r"), dir)
	if err == nil {
		t.Fatal("expected verification failure")
	}
	if msg := services.Details(err).Message; msg != MsgOutputMissing {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestVerifyEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sf64.o2r")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(Options{}, nil).Verify(context.Background(), path, dir)
	if !errors.Is(err, services.ErrValidation) || services.Details(err).Message != MsgOutputMissing {
		t.Fatalf("expected missing-output failure, got %v", err)
	}
}

func TestVerifyArchiveWithManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sf64.o2r")
	writeArchive(t, path, "textures/a", "audio/b", "version")
	if err := os.WriteFile(filepath.Join(dir, "torch.hash.yml"), []byte("a: 1\nb: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := New(Options{InspectArchive: true}, nil).Verify(context.Background(), path, dir)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.ArchiveEntries != 3 || !report.Inspected {
		t.Fatalf("unexpected archive report %+v", report)
	}
	if !report.ManifestFound || report.ManifestEntries != 2 {
		t.Fatalf("unexpected manifest report %+v", report)
	}
	if report.Size == 0 {
		t.Fatal("expected size to be recorded")
	}
}

func TestVerifyMissingManifestIsAdvisory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mk64.o2r")
	writeArchive(t, path, "a")
	report, err := New(Options{InspectArchive: true}, nil).Verify(context.Background(), path, dir)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.ManifestFound {
		t.Fatal("manifest should be reported missing")
	}
}

func TestVerifyUnreadableArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sf64.o2r")
	if err := os.WriteFile(path, []byte("definitely not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := New(Options{InspectArchive: true}, nil).Verify(context.Background(), path, dir)
	if err != nil {
		t.Fatalf("lenient verification should pass, got %v", err)
	}
	if report.ArchiveError == "" {
		t.Fatal("expected archive error to be recorded")
	}

	_, err = New(Options{InspectArchive: true, StrictArchive: true}, nil).Verify(context.Background(), path, dir)
	if services.Details(err).Message != MsgArchiveUnreadable {
		t.Fatalf("expected strict failure, got %v", err)
	}
}

func TestVerifySkipsInspectionWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sf64.o2r")
	if err := os.WriteFile(path, []byte("raw"), 0o644); err != nil {
		t.Fatal(err)
	}
	report, err := New(Options{StrictArchive: true}, nil).Verify(context.Background(), path, dir)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Inspected {
		t.Fatal("archive should not be inspected")
	}
}
