package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"o2rconv/internal/catalog"
	"o2rconv/internal/config"
	"o2rconv/internal/engine"
	"o2rconv/internal/history"
	"o2rconv/internal/logging"
	"o2rconv/internal/preflight"
	"o2rconv/internal/services"
	"o2rconv/internal/verify"
)

// Recorder persists finished runs. Errors are logged and never fail a
// conversion.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Options configures an Orchestrator.
type Options struct {
	Engine        engine.Factory
	Validator     *preflight.Validator
	Verifier      *verify.Verifier
	Recorder      Recorder
	Logger        *slog.Logger
	ArchiveFormat engine.ArchiveFormat
	ExportType    engine.ExportType
}

// Orchestrator runs conversions one at a time.
type Orchestrator struct {
	engine    engine.Factory
	validator *preflight.Validator
	verifier  *verify.Verifier
	recorder  Recorder
	logger    *slog.Logger
	format    engine.ArchiveFormat
	export    engine.ExportType
	lookup    func(digest string) catalog.Identity

	busy atomic.Bool
}

// New constructs an Orchestrator. Engine is required; everything else has a
// default.
func New(opts Options) (*Orchestrator, error) {
	if opts.Engine == nil {
		return nil, errors.New("pipeline: engine factory required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	format, err := engine.ParseArchiveFormat(string(opts.ArchiveFormat))
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	export, err := engine.ParseExportType(string(opts.ExportType))
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	o := &Orchestrator{
		engine:    opts.Engine,
		validator: opts.Validator,
		verifier:  opts.Verifier,
		recorder:  opts.Recorder,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		format:    format,
		export:    export,
		lookup:    catalog.Lookup,
	}
	if o.validator == nil {
		o.validator = preflight.NewValidator(logger)
	}
	if o.verifier == nil {
		o.verifier = verify.New(verify.Options{InspectArchive: true}, logger)
	}
	return o, nil
}

// NewFromConfig wires an Orchestrator from configuration.
func NewFromConfig(cfg *config.Config, factory engine.Factory, recorder Recorder, logger *slog.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config required")
	}
	return New(Options{
		Engine:    factory,
		Validator: preflight.NewValidator(logger),
		Verifier: verify.New(verify.Options{
			ManifestFile:   cfg.Verify.ManifestFile,
			InspectArchive: cfg.Verify.InspectArchive,
			StrictArchive:  cfg.Verify.StrictArchive,
		}, logger),
		Recorder:      recorder,
		Logger:        logger,
		ArchiveFormat: engine.ArchiveFormat(cfg.Torch.ArchiveFormat),
		ExportType:    engine.ExportType(cfg.Torch.ExportType),
	})
}

// Convert runs one conversion to completion. It never panics and never
// returns an error; the outcome is carried by Result.
func (o *Orchestrator) Convert(ctx context.Context, req Request, sink ProgressSink) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if !o.busy.CompareAndSwap(false, true) {
		o.logger.Warn("conversion rejected",
			logging.String(logging.FieldEventType, "conversion_busy"),
			logging.ROMPath(req.ROMPath),
		)
		return Result{Kind: KindPrecondition, Stage: StageValidating, Message: MsgBusy}
	}
	defer o.busy.Store(false)

	s := newSession(uuid.NewString(), req, sink)
	ctx = services.WithSessionID(ctx, s.id)
	s.logger = logging.WithContext(ctx, o.logger)
	s.logger.Info("conversion started",
		logging.String(logging.FieldEventType, "conversion_start"),
		logging.ROMPath(req.ROMPath),
		logging.OutputPath(req.OutputPath),
		logging.String("config_dir", req.ConfigDir),
	)

	result := o.run(ctx, s)
	result.Elapsed = time.Since(s.started)
	o.finish(ctx, s, &result)
	return result
}

func (o *Orchestrator) run(ctx context.Context, s *session) (result Result) {
	defer func() {
		// Release before control returns, on every path.
		if rec := recover(); rec != nil {
			s.logger.Error("conversion panicked",
				logging.String(logging.FieldEventType, "conversion_panic"),
				logging.String("panic", fmt.Sprint(rec)),
				logging.String(logging.FieldStage, string(s.stage)),
			)
			result = s.failureResult(Fatal(KindUnknown, MsgUnknown, fmt.Errorf("panic: %v", rec)))
		}
		if err := s.release(); err != nil {
			s.logger.Warn("session release reported an error", logging.Error(err))
		}
	}()

	steps := []struct {
		stage Stage
		run   func(context.Context, *session) StageResult
	}{
		{StageValidating, o.validate},
		{StageIdentifying, o.identify},
		{StagePreparingEngine, o.prepareEngine},
		{StageConverting, o.convert},
		{StageVerifying, o.verifyOutput},
	}
	for _, step := range steps {
		res := o.runStage(ctx, s, step.stage, step.run)
		if res.IsFatal() {
			return s.failureResult(res)
		}
		if res.IsCompleted() {
			break
		}
	}

	s.stage = StageCompleted
	o.publish(ctx, s)
	s.progress(MsgComplete)
	s.succeeded = true
	return s.successResult()
}

func (o *Orchestrator) runStage(ctx context.Context, s *session, stage Stage, fn func(context.Context, *session) StageResult) StageResult {
	s.stage = stage
	stageCtx := logging.WithStage(ctx, string(stage))
	logger := logging.WithContext(stageCtx, o.logger)
	started := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	res := fn(stageCtx, s)
	if res.IsFatal() {
		details := services.Details(res.err)
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("failure_kind", string(res.kind)),
			logging.String("error_message", res.message),
			logging.Alert("stage_failure"),
			logging.String(logging.FieldErrorKind, string(details.Kind)),
		}
		if details.Operation != "" {
			attrs = append(attrs, logging.String(logging.FieldErrorOperation, details.Operation))
		}
		if details.Hint != "" {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, details.Hint))
		}
		if res.err != nil {
			attrs = append(attrs, logging.Error(res.err))
		}
		logger.Error("stage failed", logging.Args(attrs...)...)
		return res
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Elapsed(time.Since(started)),
	)
	return res
}

func (o *Orchestrator) finish(ctx context.Context, s *session, result *Result) {
	if result.OK {
		s.logger.Info("conversion completed",
			logging.String(logging.FieldEventType, "conversion_complete"),
			logging.OutputPath(result.OutputPath),
			logging.String("rom_title", result.Identity.DisplayTitle()),
			logging.Elapsed(result.Elapsed),
		)
	} else {
		s.logger.Error("conversion failed",
			logging.String(logging.FieldEventType, "conversion_failure"),
			logging.String("failure_kind", string(result.Kind)),
			logging.String(logging.FieldStage, string(result.Stage)),
			logging.String("error_message", result.Message),
		)
	}
	if o.recorder == nil {
		return
	}
	if err := o.record(context.WithoutCancel(ctx), s.historyRun(*result)); err != nil {
		logging.WarnWithContext(s.logger, "history record failed", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db permissions"),
			logging.String(logging.FieldImpact, "run will not appear in o2rconv history"),
		)
	}
}

// record hands run to the recorder, turning a recorder panic into an error.
func (o *Orchestrator) record(ctx context.Context, run history.Run) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("recorder panic: %v", rec)
		}
	}()
	return o.recorder.Record(ctx, run)
}

// messageFor extracts the user-facing text of err, falling back when empty.
func messageFor(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	message := strings.TrimSpace(services.Details(err).Message)
	if message == "" {
		message = strings.TrimSpace(err.Error())
	}
	if message == "" {
		return fallback
	}
	return message
}
