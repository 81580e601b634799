package torch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"o2rconv/internal/engine"
	"o2rconv/internal/fileutil"
	"o2rconv/internal/logging"
	"o2rconv/internal/manifest"
	"o2rconv/internal/rom"
	"o2rconv/internal/services"
)

type session struct {
	client    *Client
	id        string
	opts      engine.Options
	stagedROM string
	logger    *slog.Logger

	binary     string
	export     engine.ExportType
	registered bool
	processed  bool

	closeOnce sync.Once
	closeErr  error
}

// RegisterFactories resolves the binary and records the export mode.
func (s *session) RegisterFactories(ctx context.Context, export engine.ExportType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	parsed, err := engine.ParseExportType(string(export))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "register factories", err.Error(), err)
	}
	binary, err := s.client.resolveBinary()
	if err != nil {
		return err
	}
	s.binary = binary
	s.export = parsed
	s.registered = true
	s.logger.Debug("torch exporters registered",
		logging.String("binary", binary),
		logging.String("export_type", string(parsed)),
	)
	return nil
}

// Process runs Torch and moves the archive to the requested output path.
func (s *session) Process(ctx context.Context) error {
	if !s.registered {
		return services.Wrap(services.ErrValidation, stageName, "process", "Torch exporters were not registered", nil)
	}

	runCtx := ctx
	if s.client.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.client.timeout)
		defer cancel()
	}

	started := time.Now()
	tail := newOutputTail()
	args := s.args()
	s.logger.Info("torch started",
		logging.String(logging.FieldEventType, "torch_start"),
		logging.String("args", strings.Join(args, " ")),
	)

	err := s.client.exec.Run(runCtx, s.binary, args, s.opts.SourceDir, func(line string) {
		tail.add(line)
		s.logger.Debug("torch output", logging.String("line", line))
	})
	if err != nil {
		if isTimeout(runCtx, err) {
			return services.Wrap(services.ErrTimeout, stageName, "process",
				fmt.Sprintf("Torch timed out after %s", s.client.timeout), err)
		}
		if errors.Is(err, context.Canceled) {
			return services.Wrap(services.ErrExternalTool, stageName, "process", "Torch processing cancelled", err)
		}
		return services.Wrap(services.ErrExternalTool, stageName, "process", tail.message(err), err)
	}

	if s.export == engine.ExportBinary || s.export == engine.ExportModding {
		if err := s.collectArchive(started); err != nil {
			return err
		}
	}
	s.processed = true
	s.logger.Info("torch finished",
		logging.String(logging.FieldEventType, "torch_complete"),
		logging.Elapsed(time.Since(started)),
	)
	return nil
}

func (s *session) args() []string {
	var args []string
	switch s.export {
	case engine.ExportHeader, engine.ExportCode:
		args = append(args, string(s.export))
	case engine.ExportModding:
		args = append(args, "modding", "export")
	default:
		args = append(args, string(s.opts.ArchiveFormat))
	}
	args = append(args, s.stagedROM, "-s", s.opts.SourceDir, "-d", s.opts.DestDir)
	return args
}

// collectArchive moves the archive Torch wrote into place. An archive already
// at the output path wins; otherwise the newest archive written during this
// run is taken from the destination directory.
func (s *session) collectArchive(started time.Time) error {
	if info, err := os.Stat(s.opts.OutputPath); err == nil && !info.IsDir() && !info.ModTime().Before(started.Add(-time.Second)) {
		return nil
	}
	candidates, err := gatherArchives(s.opts.DestDir, s.opts.ArchiveFormat)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "collect archive", "cannot inspect Torch output directory", err)
	}
	best := newestSince(candidates, started.Add(-time.Second))
	if best == nil {
		// Verification reports the missing archive.
		s.logger.Warn("torch produced no archive",
			logging.String(logging.FieldEventType, "torch_no_output"),
			logging.String("dest_dir", s.opts.DestDir),
		)
		return nil
	}
	if err := replaceFile(best.path, s.opts.OutputPath); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "collect archive", "cannot move Torch output into place", err)
	}
	return nil
}

// Cartridge reports the title and hash once processing finished and Torch
// wrote its hash manifest.
func (s *session) Cartridge() (engine.Cartridge, bool) {
	if !s.processed {
		return engine.Cartridge{}, false
	}
	if _, err := manifest.LoadHashManifest(s.opts.DestDir, manifest.HashFile); err != nil {
		return engine.Cartridge{}, false
	}
	digest := rom.Digest(s.opts.ROM)
	cart := engine.Cartridge{Hash: digest}
	if cfg, err := manifest.LoadConfig(s.opts.SourceDir); err == nil {
		if entry, ok := cfg.Lookup(digest); ok {
			cart.Title = entry.Name
		}
	}
	if cart.Title == "" {
		if header, err := rom.ParseHeader(s.opts.ROM); err == nil {
			cart.Title = header.Name
		}
	}
	return cart, true
}

// Close removes the staged ROM. Subsequent calls return the first result.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		if err := os.Remove(s.stagedROM); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.closeErr = fmt.Errorf("remove staged rom: %w", err)
		}
	})
	return s.closeErr
}

func replaceFile(src, dest string) error {
	if src == dest {
		return nil
	}
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove existing archive: %w", err)
	}
	return fileutil.MoveFile(src, dest)
}
