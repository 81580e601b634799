package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"o2rconv/internal/catalog"
	"o2rconv/internal/engine"
	"o2rconv/internal/history"
	"o2rconv/internal/rom"
	"o2rconv/internal/verify"
)

// session holds everything one Convert call owns.
type session struct {
	id      string
	req     Request
	sink    ProgressSink
	logger  *slog.Logger
	stage   Stage
	started time.Time

	image     *rom.Image
	identity  catalog.Identity
	header    rom.Header
	engine    engine.Session
	lock      *flock.Flock
	cartridge engine.Cartridge
	report    verify.Report

	published string
	warnings  []string
	stash     string
	succeeded bool

	releaseOnce sync.Once
	releaseErr  error
}

func newSession(id string, req Request, sink ProgressSink) *session {
	return &session{
		id:      id,
		req:     req,
		sink:    sink,
		stage:   StageValidating,
		started: time.Now(),
	}
}

func (s *session) progress(message string) {
	if s.sink == nil {
		return
	}
	s.sink.Progress(s.stage, message)
}

// release closes the engine session, settles a stashed output archive, drops
// the working directory lock and the ROM buffer. Only the first call has any
// effect.
func (s *session) release() error {
	s.releaseOnce.Do(func() {
		var errs []error
		if s.engine != nil {
			if err := guardEngine(s.engine.Close); err != nil {
				errs = append(errs, fmt.Errorf("close engine session: %w", err))
			}
			s.engine = nil
		}
		if err := s.settleStash(); err != nil {
			errs = append(errs, err)
		}
		if s.lock != nil {
			if err := s.lock.Unlock(); err != nil {
				errs = append(errs, fmt.Errorf("release working directory lock: %w", err))
			}
			s.lock = nil
		}
		s.image = nil
		s.releaseErr = errors.Join(errs...)
	})
	return s.releaseErr
}

func (s *session) failureResult(res StageResult) Result {
	failedAt := s.stage
	s.stage = StageFailed
	return Result{
		Kind:      res.kind,
		Stage:     failedAt,
		Message:   res.message,
		Err:       res.err,
		SessionID: s.id,
		Identity:  s.identity,
		Header:    s.header,
	}
}

func (s *session) successResult() Result {
	return Result{
		OK:            true,
		Stage:         StageCompleted,
		SessionID:     s.id,
		OutputPath:    s.req.OutputPath,
		PublishedPath: s.published,
		Warnings:      s.warnings,
		Identity:      s.identity,
		Header:        s.header,
		Cartridge:     s.cartridge,
		Verification:  s.report,
	}
}

func (s *session) historyRun(result Result) history.Run {
	run := history.Run{
		SessionID:  s.id,
		ROMPath:    s.req.ROMPath,
		Digest:     result.Identity.Digest,
		Compressed: result.Identity.Compressed,
		StartedAt:  s.started,
		FinishedAt: s.started.Add(result.Elapsed),
	}
	if result.Identity.Known {
		run.Title = result.Identity.Title
	} else if result.Header.Name != "" {
		run.Title = result.Header.Name
	}
	if result.OK {
		run.Status = history.StatusCompleted
		run.OutputPath = result.OutputPath
		run.OutputSize = result.Verification.Size
		run.ArchiveEntries = result.Verification.ArchiveEntries
		if len(result.Warnings) > 0 {
			run.Message = result.Warnings[0]
		}
		return run
	}
	run.Status = history.StatusFailed
	run.FailureKind = string(result.Kind)
	run.Message = result.Message
	return run
}

// stashOutput moves an archive left at the output path by an earlier run out
// of the way, so only what this run writes can pass verification.
func (s *session) stashOutput() error {
	info, err := os.Stat(s.req.OutputPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat existing output: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("output path %s is a directory", s.req.OutputPath)
	}
	stash := s.req.OutputPath + stashSuffix
	if err := os.Remove(stash); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale stash: %w", err)
	}
	if err := os.Rename(s.req.OutputPath, stash); err != nil {
		return fmt.Errorf("move existing output aside: %w", err)
	}
	s.stash = stash
	return nil
}

// settleStash discards the stashed archive after a successful run and puts
// it back in place otherwise.
func (s *session) settleStash() error {
	if s.stash == "" {
		return nil
	}
	stash := s.stash
	s.stash = ""
	if s.succeeded {
		if err := os.Remove(stash); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove previous output: %w", err)
		}
		return nil
	}
	if err := os.Remove(s.req.OutputPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove failed output: %w", err)
	}
	if err := os.Rename(stash, s.req.OutputPath); err != nil {
		return fmt.Errorf("restore previous output: %w", err)
	}
	return nil
}
