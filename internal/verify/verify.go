// Package verify checks the archive a conversion produced.
//
// The engine reporting success is not enough: the archive must exist at the
// requested path and be non-empty. The engine's hash manifest and the archive's
// zip directory are inspected for diagnostics; neither is fatal unless strict
// archive checking is enabled.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"o2rconv/internal/logging"
	"o2rconv/internal/manifest"
	"o2rconv/internal/services"
)

const stageName = "verifying"

// User-facing verification messages.
const (
	MsgOutputMissing     = "O2R output was not created"
	MsgArchiveUnreadable = "O2R output is not a readable archive"
)

// zipMethodZstd is the zip method ID for Zstandard (APPNOTE 6.3.7).
const zipMethodZstd uint16 = 93

var registerOnce sync.Once

func registerDecompressors() {
	registerOnce.Do(func() {
		zip.RegisterDecompressor(zipMethodZstd, zstd.ZipDecompressor())
	})
}

// Options configures a Verifier.
type Options struct {
	ManifestFile   string
	InspectArchive bool
	StrictArchive  bool
}

// Report summarizes what verification observed.
type Report struct {
	OutputPath      string
	Size            int64
	ManifestPath    string
	ManifestFound   bool
	ManifestEntries int
	Inspected       bool
	ArchiveEntries  int
	ArchiveError    string
}

// Verifier checks conversion output.
type Verifier struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a Verifier.
func New(opts Options, logger *slog.Logger) *Verifier {
	if opts.ManifestFile == "" {
		opts.ManifestFile = manifest.HashFile
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Verifier{opts: opts, logger: logger}
}

// Verify inspects outputPath and the engine's manifest in workDir.
func (v *Verifier) Verify(ctx context.Context, outputPath, workDir string) (Report, error) {
	logger := logging.WithContext(ctx, v.logger)
	report := Report{OutputPath: outputPath}

	info, err := os.Stat(outputPath)
	switch {
	case err != nil:
		return report, services.Wrap(services.ErrValidation, stageName, "stat output", MsgOutputMissing, err)
	case info.IsDir():
		return report, services.Wrap(services.ErrValidation, stageName, "stat output", MsgOutputMissing,
			fmt.Errorf("%s is a directory", outputPath))
	case info.Size() == 0:
		return report, services.Wrap(services.ErrValidation, stageName, "stat output", MsgOutputMissing,
			fmt.Errorf("%s is empty", outputPath))
	}
	report.Size = info.Size()

	v.checkManifest(logger, workDir, &report)

	if v.opts.InspectArchive {
		report.Inspected = true
		entries, err := countEntries(outputPath)
		if err != nil {
			report.ArchiveError = err.Error()
			if v.opts.StrictArchive {
				return report, services.Wrap(services.ErrValidation, stageName, "inspect archive", MsgArchiveUnreadable, err)
			}
			logging.WarnWithContext(logger, "archive inspection failed", "archive_unreadable",
				logging.String("path", outputPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the port may reject this archive; re-run with a known ROM"),
				logging.String(logging.FieldImpact, "archive kept without content verification"),
			)
		} else {
			report.ArchiveEntries = entries
		}
	}

	logger.Info("output verified",
		logging.String("path", outputPath),
		logging.Int64("size_bytes", report.Size),
		logging.Int("archive_entries", report.ArchiveEntries),
		logging.Bool("manifest_found", report.ManifestFound),
	)
	return report, nil
}

func (v *Verifier) checkManifest(logger *slog.Logger, workDir string, report *Report) {
	if workDir == "" {
		return
	}
	hashes, err := manifest.LoadHashManifest(workDir, v.opts.ManifestFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("hash manifest not found",
				logging.String("manifest", v.opts.ManifestFile),
				logging.String("dir", workDir),
			)
			return
		}
		logger.Warn("hash manifest unreadable",
			logging.String("manifest", v.opts.ManifestFile),
			logging.Error(err),
		)
		return
	}
	report.ManifestFound = true
	report.ManifestPath = hashes.Path
	report.ManifestEntries = hashes.Len()
	logger.Debug("hash manifest found",
		logging.String("path", hashes.Path),
		logging.Int("entries", hashes.Len()),
	)
}

func countEntries(path string) (int, error) {
	registerDecompressors()
	reader, err := zip.OpenReader(path)
	if err != nil {
		return 0, err
	}
	defer reader.Close()
	return len(reader.File), nil
}
