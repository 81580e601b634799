package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"o2rconv/internal/catalog"
	"o2rconv/internal/history"
	"o2rconv/internal/logging"
	"o2rconv/internal/pipeline"
	"o2rconv/internal/rom"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 1500 * time.Millisecond

// Converter runs one conversion. *pipeline.Orchestrator satisfies it.
type Converter interface {
	Convert(ctx context.Context, req pipeline.Request, sink pipeline.ProgressSink) pipeline.Result
}

// History reports previously completed conversions. *history.Store
// satisfies it.
type History interface {
	LastCompleted(ctx context.Context, digest string) (history.Run, bool, error)
	LastCompletedOutput(ctx context.Context, outputPath string) (history.Run, bool, error)
}

// Options configures a Watcher.
type Options struct {
	Inbox      string
	ConfigDir  string
	CopyTo     string
	Extensions []string
	Debounce   time.Duration
	// ScanExisting queues files already present in the inbox at startup.
	ScanExisting bool
	History      History
	Logger       *slog.Logger
	// Sink receives progress for every conversion.
	Sink pipeline.ProgressSink
	// OnResult is called after each conversion attempt or skip.
	OnResult func(Outcome)
}

// Outcome reports what happened to one inbox file.
type Outcome struct {
	Path    string
	Digest  string
	Skipped bool
	Reason  string
	Result  pipeline.Result
}

// Watcher converts ROMs dropped into an inbox.
type Watcher struct {
	converter Converter
	opts      Options
	logger    *slog.Logger
	exts      map[string]struct{}

	ready    chan string
	done     chan struct{}
	doneOnce sync.Once

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]string
}

// New validates opts and returns a Watcher.
func New(converter Converter, opts Options) (*Watcher, error) {
	if converter == nil {
		return nil, errors.New("watch: converter required")
	}
	if strings.TrimSpace(opts.Inbox) == "" {
		return nil, errors.New("watch: inbox directory required")
	}
	if strings.TrimSpace(opts.ConfigDir) == "" {
		return nil, errors.New("watch: config directory required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}
	if len(exts) == 0 {
		return nil, errors.New("watch: at least one extension required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		converter: converter,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "watch"),
		exts:      exts,
		ready:     make(chan string, 64),
		done:      make(chan struct{}),
		pending:   make(map[string]*time.Timer),
		seen:      make(map[string]string),
	}, nil
}

// Run watches the inbox until ctx is canceled. Conversions happen on the
// calling goroutine, so at most one runs at a time. Run may be called once.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.doneOnce.Do(func() { close(w.done) })
	info, err := os.Stat(w.opts.Inbox)
	if err != nil {
		return fmt.Errorf("watch: inbox: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch: inbox %s is not a directory", w.opts.Inbox)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.opts.Inbox); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.opts.Inbox, err)
	}
	defer w.stopTimers()

	w.logger.Info("watching inbox",
		logging.String(logging.FieldEventType, "watch_start"),
		logging.String("inbox", w.opts.Inbox),
		logging.String("config_dir", w.opts.ConfigDir),
		logging.Duration("debounce", w.opts.Debounce),
	)
	if w.opts.ScanExisting {
		w.scanExisting()
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("inbox watch stopped", logging.String(logging.FieldEventType, "watch_stop"))
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			logging.WarnWithContext(w.logger, "filesystem watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some inbox events may have been missed"),
			)
		case path := <-w.ready:
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.accepts(event.Name) {
		return
	}
	w.schedule(event.Name)
}

func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := w.exts[strings.ToLower(filepath.Ext(base))]
	return ok
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.opts.Debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.opts.Inbox)
	if err != nil {
		logging.WarnWithContext(w.logger, "inbox scan failed", "watch_scan_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "only new files will be converted"),
		)
		return
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() && w.accepts(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w.schedule(filepath.Join(w.opts.Inbox, name))
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	logger := w.logger.With(logging.ROMPath(path))

	image, err := rom.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("inbox file vanished before conversion")
			return
		}
		// The orchestrator reports unreadable ROMs with its own message.
		w.convert(ctx, logger, path, catalog.Identity{}, "")
		return
	}
	digest := image.Digest()
	identity := catalog.Lookup(digest)

	w.mu.Lock()
	prior, dup := w.seen[digest]
	w.mu.Unlock()
	if dup {
		w.skip(logger, path, digest, fmt.Sprintf("same ROM as %s", filepath.Base(prior)))
		return
	}
	if w.opts.History != nil {
		output, err := w.convertedOutput(ctx, digest)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "history lookup failed", "history_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "ROM will be converted again"),
			)
		case output != "":
			w.markSeen(digest, path)
			w.skip(logger, path, digest, fmt.Sprintf("already converted to %s", output))
			return
		}
	}
	w.convert(ctx, logger, path, identity, digest)
}

// convertedOutput returns the archive still holding digest's conversion, or
// "" when there is none. Another ROM converted to the same path since, or a
// file that changed size, means the archive no longer belongs to digest.
func (w *Watcher) convertedOutput(ctx context.Context, digest string) (string, error) {
	run, ok, err := w.opts.History.LastCompleted(ctx, digest)
	if err != nil || !ok || run.OutputPath == "" {
		return "", err
	}
	latest, ok, err := w.opts.History.LastCompletedOutput(ctx, run.OutputPath)
	if err != nil || !ok {
		return "", err
	}
	if latest.Digest != run.Digest {
		return "", nil
	}
	info, err := os.Stat(run.OutputPath)
	if err != nil || info.IsDir() || info.Size() != latest.OutputSize {
		return "", nil
	}
	return run.OutputPath, nil
}

func (w *Watcher) convert(ctx context.Context, logger *slog.Logger, path string, identity catalog.Identity, digest string) {
	req := pipeline.Request{
		ROMPath:    path,
		OutputPath: pipeline.DefaultOutputPath(w.opts.ConfigDir, identity),
		ConfigDir:  w.opts.ConfigDir,
		CopyTo:     w.opts.CopyTo,
	}
	logger.Info("inbox rom queued",
		logging.String(logging.FieldEventType, "watch_convert"),
		logging.String("rom_title", identity.DisplayTitle()),
		logging.OutputPath(req.OutputPath),
	)
	result := w.converter.Convert(ctx, req, w.opts.Sink)
	if result.OK && digest != "" {
		w.markSeen(digest, path)
	}
	if w.opts.OnResult != nil {
		w.opts.OnResult(Outcome{Path: path, Digest: digest, Result: result})
	}
}

func (w *Watcher) skip(logger *slog.Logger, path, digest, reason string) {
	logger.Info("inbox rom skipped",
		logging.String(logging.FieldEventType, "watch_skip"),
		logging.ROMDigest(digest),
		logging.String("reason", reason),
	)
	if w.opts.OnResult != nil {
		w.opts.OnResult(Outcome{Path: path, Digest: digest, Skipped: true, Reason: reason})
	}
}

func (w *Watcher) markSeen(digest, path string) {
	w.mu.Lock()
	w.seen[digest] = path
	w.mu.Unlock()
}
