package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"o2rconv/internal/catalog"
	"o2rconv/internal/engine"
	"o2rconv/internal/fileutil"
	"o2rconv/internal/logging"
	"o2rconv/internal/manifest"
	"o2rconv/internal/preflight"
	"o2rconv/internal/rom"
)

func (o *Orchestrator) validate(ctx context.Context, s *session) StageResult {
	s.progress(MsgValidating)
	err := o.validator.Validate(ctx, preflight.Inputs{
		ROMPath:    s.req.ROMPath,
		OutputPath: s.req.OutputPath,
		ConfigDir:  s.req.ConfigDir,
	})
	if err != nil {
		return Fatal(KindPrecondition, messageFor(err, MsgUnknown), err)
	}
	return Continue()
}

func (o *Orchestrator) identify(ctx context.Context, s *session) StageResult {
	s.progress(MsgAnalyzing)
	logger := logging.WithContext(ctx, o.logger)

	image, err := rom.Load(s.req.ROMPath)
	if err != nil {
		return Fatal(KindPrecondition, MsgCannotOpenROM, err)
	}
	s.image = image

	digest := image.Digest()
	s.identity = o.lookup(digest)
	if header, err := image.Header(); err == nil {
		s.header = header
	}

	logger.Info("rom analyzed",
		logging.ROMDigest(digest),
		logging.Int("rom_size", image.Len()),
		logging.String("byte_order", string(image.SourceOrder())),
		logging.String("header_name", s.header.Name),
		logging.String("game_code", s.header.GameCode),
	)
	logger.Debug("rom preview", logging.String("first_bytes", image.Preview(16)))
	if image.SourceOrder() == rom.OrderUnknown {
		logging.WarnWithContext(logger, "rom byte order not recognized", "rom_unknown_order",
			logging.String(logging.FieldErrorHint, "make sure the file is an N64 ROM dump"),
			logging.String(logging.FieldImpact, "bytes passed to Torch unchanged"),
		)
	} else if image.SourceOrder() != rom.OrderBigEndian {
		logger.Info("rom byte order normalized",
			logging.String("from", string(image.SourceOrder())),
			logging.String("to", string(rom.OrderBigEndian)),
		)
	}

	if s.identity.Known {
		logger.Info("rom identified",
			logging.String("rom_title", s.identity.Title),
			logging.Bool("compressed", s.identity.Compressed),
			logging.String("profile", string(s.identity.Game)),
		)
	} else {
		logging.WarnWithContext(logger, "rom not in catalog", "rom_unknown",
			logging.ROMDigest(digest),
			logging.String("header_name", s.header.Name),
			logging.String(logging.FieldErrorHint, "Torch may still recognize the ROM from its header"),
			logging.String(logging.FieldImpact, "decompression time cannot be predicted"),
		)
		logger.Debug("supported roms", logging.String("catalog", catalog.SupportedSummary()))
	}

	o.crossCheckManifest(logger, s.req.ConfigDir, digest)
	return Continue()
}

// crossCheckManifest reports whether config.yml knows the digest. Torch is
// the authority, so problems here are only logged.
func (o *Orchestrator) crossCheckManifest(logger *slog.Logger, dir, digest string) {
	cfg, err := manifest.LoadConfig(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		logging.WarnWithContext(logger, "config.yml could not be parsed", "manifest_unreadable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "Torch will report the problem if the file is unusable"),
		)
		return
	}
	entry, ok := cfg.Lookup(digest)
	if !ok {
		logging.WarnWithContext(logger, "config.yml has no entry for rom", "manifest_missing_rom",
			logging.ROMDigest(digest),
			logging.Int("configured_roms", len(cfg.Entries)),
			logging.String(logging.FieldErrorHint, "use the asset folder that matches this ROM version"),
			logging.String(logging.FieldImpact, "Torch is likely to reject this ROM"),
		)
		return
	}
	logger.Debug("config.yml entry found",
		logging.String("manifest_name", entry.Name),
		logging.String("manifest_path", entry.Path),
	)
}

func (o *Orchestrator) prepareEngine(ctx context.Context, s *session) StageResult {
	s.progress(MsgSettingUp)
	lock := flock.New(filepath.Join(s.req.ConfigDir, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return Fatal(KindPrecondition, MsgLocked, fmt.Errorf("acquire lock: %w", err))
	}
	if !locked {
		return Fatal(KindPrecondition, MsgLocked, nil)
	}
	s.lock = lock

	if err := s.stashOutput(); err != nil {
		return Fatal(KindPrecondition, MsgOutputStash, err)
	}
	if s.stash != "" {
		logger := logging.WithContext(ctx, o.logger)
		logger.Info("existing output moved aside",
			logging.OutputPath(s.req.OutputPath),
			logging.String("stash_path", s.stash),
		)
	}

	s.progress(MsgCreatingTorch)
	var handle engine.Session
	err = guardEngine(func() error {
		var newErr error
		handle, newErr = o.engine.NewSession(ctx, engine.Options{
			ROM:           s.image.Bytes(),
			ArchiveFormat: o.format,
			Debug:         false,
			Modding:       false,
			SourceDir:     s.req.ConfigDir,
			DestDir:       s.req.ConfigDir,
			OutputPath:    s.req.OutputPath,
		})
		return newErr
	})
	if handle != nil {
		s.engine = handle
	}
	if err != nil {
		return Fatal(KindEngine, messageFor(err, MsgEngineFailed), err)
	}
	if handle == nil {
		return Fatal(KindEngine, MsgEngineFailed, errors.New("engine returned no session"))
	}
	return Continue()
}

func (o *Orchestrator) convert(ctx context.Context, s *session) StageResult {
	logger := logging.WithContext(ctx, o.logger)

	s.progress(MsgRegistering)
	if err := guardEngine(func() error { return s.engine.RegisterFactories(ctx, o.export) }); err != nil {
		return Fatal(KindEngine, messageFor(err, MsgEngineFailed), err)
	}

	if s.identity.Known && s.identity.Compressed {
		s.progress(MsgDecompressing)
	} else {
		s.progress(MsgProcessing)
	}
	if err := guardEngine(func() error { return s.engine.Process(ctx) }); err != nil {
		return Fatal(KindEngine, messageFor(err, MsgEngineFailed), err)
	}
	s.progress(MsgGenerating)

	var (
		cart engine.Cartridge
		ok   bool
	)
	if err := guardEngine(func() error {
		cart, ok = s.engine.Cartridge()
		return nil
	}); err == nil && ok {
		s.cartridge = cart
		logger.Info("torch cartridge",
			logging.String("cartridge_title", cart.Title),
			logging.String("cartridge_hash", cart.Hash),
		)
	}
	return Continue()
}

func (o *Orchestrator) verifyOutput(ctx context.Context, s *session) StageResult {
	s.progress(MsgVerifying)
	report, err := o.verifier.Verify(ctx, s.req.OutputPath, s.req.ConfigDir)
	s.report = report
	if err != nil {
		return Fatal(KindVerification, messageFor(err, MsgUnknown), err)
	}
	return Completed()
}

// publish copies the archive to the requested location. Failure leaves the
// conversion successful and adds a warning.
func (o *Orchestrator) publish(ctx context.Context, s *session) {
	if s.req.CopyTo == "" {
		return
	}
	logger := logging.WithContext(ctx, o.logger)
	dst, err := fileutil.Publish(s.req.OutputPath, s.req.CopyTo)
	if err != nil {
		warning := fmt.Sprintf("saved to %s (failed to copy to selected location)", s.req.OutputPath)
		s.warnings = append(s.warnings, warning)
		logging.WarnWithContext(logger, "archive copy failed", "publish_failed",
			logging.String("copy_to", s.req.CopyTo),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the destination directory permissions"),
			logging.String(logging.FieldImpact, warning),
		)
		return
	}
	s.published = dst
	logger.Info("archive copied", logging.String("path", dst))
}

// guardEngine converts an engine panic into an error carrying the generic
// engine exception message.
func guardEngine(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &enginePanic{value: rec}
		}
	}()
	return fn()
}

type enginePanic struct {
	value any
}

func (e *enginePanic) Error() string { return MsgEnginePanic }

// Value returns the recovered panic value.
func (e *enginePanic) Value() any { return e.value }
