package torch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"o2rconv/internal/deps"
	"o2rconv/internal/engine"
	"o2rconv/internal/logging"
	"o2rconv/internal/services"
)

const (
	stageName     = "converting"
	stagedPrefix  = ".o2rconv-"
	stagedROMExt  = ".z64"
	defaultBinary = "torch"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, dir string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLookPath overrides how the Torch binary is resolved.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(c *Client) {
		if fn != nil {
			c.lookPath = fn
		}
	}
}

// WithLogger sets the logger that receives Torch output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps Torch CLI interactions and implements engine.Factory.
type Client struct {
	binary   string
	timeout  time.Duration
	exec     Executor
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

var _ engine.Factory = (*Client)(nil)

// New constructs a Torch client. timeoutSeconds <= 0 disables the timeout.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = defaultBinary
	}
	var timeout time.Duration
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	client := &Client{
		binary:   binary,
		timeout:  timeout,
		exec:     commandExecutor{},
		lookPath: deps.ResolveTorch,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "torch")
	return client, nil
}

// NewSession stages the ROM and returns a session bound to opts.
func (c *Client) NewSession(ctx context.Context, opts engine.Options) (engine.Session, error) {
	if len(opts.ROM) == 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "create session", "ROM data is empty", nil)
	}
	if strings.TrimSpace(opts.SourceDir) == "" || strings.TrimSpace(opts.DestDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "create session", "source and destination directories are required", nil)
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "create session", "output path is required", nil)
	}
	format, err := engine.ParseArchiveFormat(string(opts.ArchiveFormat))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "create session", err.Error(), err)
	}
	opts.ArchiveFormat = format

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.DestDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "create session", "cannot create destination directory", err)
	}

	id := uuid.NewString()
	staged := filepath.Join(opts.SourceDir, stagedPrefix+id+stagedROMExt)
	if err := os.WriteFile(staged, opts.ROM, 0o644); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "stage rom", "cannot stage ROM for Torch", err)
	}

	return &session{
		client:    c,
		id:        id,
		opts:      opts,
		stagedROM: staged,
		logger:    logging.WithContext(ctx, c.logger).With(logging.String("torch_session", id)),
	}, nil
}

func (c *Client) resolveBinary() (string, error) {
	path, err := c.lookPath(c.binary)
	if err != nil {
		return "", services.WithHint(
			services.Wrap(services.ErrConfiguration, stageName, "resolve binary", fmt.Sprintf("Torch binary %q not found", c.binary), err),
			"install Torch or set torch.binary in config.toml",
		)
	}
	return path, nil
}

func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
