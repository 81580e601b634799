package preflight

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"o2rconv/internal/logging"
	"o2rconv/internal/manifest"
	"o2rconv/internal/services"
)

const (
	stageName = "validating"

	// AssetsDir is the asset definition directory expected next to config.yml.
	AssetsDir = "assets"
	// ProbeFile is created and removed to prove the working directory is writable.
	ProbeFile = "test_write.tmp"
)

// User-facing precondition messages.
const (
	MsgROMNotFound       = "ROM file not found"
	MsgConfigDirNotFound = "config directory not found"
	MsgConfigYMLMissing  = "config.yml not found in selected folder"
	MsgAssetsMissing     = "assets directory not found in selected folder"
	MsgNotWritable       = "working directory is not writable"
	MsgOutputDir         = "cannot create output directory"
)

// Inputs are the caller-supplied locations a conversion depends on.
type Inputs struct {
	ROMPath    string
	OutputPath string
	ConfigDir  string
}

// Validator checks conversion preconditions in a fixed order and stops at
// the first failure.
type Validator struct {
	logger *slog.Logger
}

// NewValidator constructs a validator; a nil logger discards output.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Validator{logger: logger}
}

// Validate returns nil when every precondition holds. Failures are wrapped
// with services markers and carry the user-facing message.
func (v *Validator) Validate(ctx context.Context, in Inputs) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrValidation, stageName, "context", "conversion cancelled", err)
	}

	info, err := os.Stat(in.ROMPath)
	if err != nil || !info.Mode().IsRegular() {
		return services.Wrap(services.ErrNotFound, stageName, "rom file", MsgROMNotFound, statCause(err, in.ROMPath))
	}

	info, err = os.Stat(in.ConfigDir)
	if err != nil || !info.IsDir() {
		return services.Wrap(services.ErrNotFound, stageName, "config directory", MsgConfigDirNotFound, statCause(err, in.ConfigDir))
	}
	v.logDirectoryListing(ctx, in.ConfigDir)

	configPath := filepath.Join(in.ConfigDir, manifest.ConfigFile)
	if info, err := os.Stat(configPath); err != nil || info.IsDir() {
		return services.Wrap(services.ErrNotFound, stageName, "config.yml", MsgConfigYMLMissing, statCause(err, configPath))
	}

	assetsPath := filepath.Join(in.ConfigDir, AssetsDir)
	if info, err := os.Stat(assetsPath); err != nil || !info.IsDir() {
		return services.Wrap(services.ErrNotFound, stageName, "assets directory", MsgAssetsMissing, statCause(err, assetsPath))
	}

	if err := ProbeWritable(in.ConfigDir); err != nil {
		return services.WithHint(
			services.Wrap(services.ErrValidation, stageName, "write probe", MsgNotWritable, err),
			"check ownership and permissions of the config directory",
		)
	}

	if outputDir := filepath.Dir(in.OutputPath); strings.TrimSpace(in.OutputPath) != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return services.Wrap(services.ErrValidation, stageName, "output directory", MsgOutputDir, err)
		}
	}
	return nil
}

// ProbeWritable creates and removes ProbeFile inside dir.
func ProbeWritable(dir string) error {
	probe := filepath.Join(dir, ProbeFile)
	file, err := os.Create(probe)
	if err != nil {
		return err
	}
	if _, err := file.WriteString("test"); err != nil {
		_ = file.Close()
		_ = os.Remove(probe)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(probe)
		return err
	}
	return os.Remove(probe)
}

func (v *Validator) logDirectoryListing(ctx context.Context, dir string) {
	logger := logging.WithContext(ctx, v.logger)
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debug("config directory listing unavailable", logging.String("dir", dir), logging.Error(err))
		return
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	logger.Debug("config directory contents",
		logging.String("dir", dir),
		logging.Int("entries", len(names)),
		logging.String("listing", strings.Join(names, ", ")),
	)
}

func statCause(err error, path string) error {
	if err != nil {
		return err
	}
	return &fs.PathError{Op: "stat", Path: path, Err: errors.New("unexpected file type")}
}
