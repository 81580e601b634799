package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"o2rconv/internal/config"
	"o2rconv/internal/engine"
	"o2rconv/internal/engine/torch"
	"o2rconv/internal/history"
	"o2rconv/internal/logging"
	"o2rconv/internal/pipeline"
)

type commandContext struct {
	configFlag   string
	logLevelFlag string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	// newEngine builds the engine factory; tests replace it.
	newEngine func(cfg *config.Config, logger *slog.Logger) (engine.Factory, error)
}

func newCommandContext() *commandContext {
	return &commandContext{newEngine: newTorchEngine}
}

func newTorchEngine(cfg *config.Config, logger *slog.Logger) (engine.Factory, error) {
	return torch.New(cfg.Torch.Binary, cfg.Torch.Timeout, torch.WithLogger(logger))
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.ToLower(strings.TrimSpace(c.logLevelFlag)); level != "" {
			cfg.Logging.Level = level
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("setup logging: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// withHistory opens the history store for the duration of fn.
func (c *commandContext) withHistory(ctx context.Context, fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(ctx, cfg.Paths.HistoryDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// newOrchestrator wires an orchestrator from configuration. The recorder may
// be nil.
func (c *commandContext) newOrchestrator(recorder pipeline.Recorder) (*pipeline.Orchestrator, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	factory, err := c.newEngine(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create torch client: %w", err)
	}
	orch, err := pipeline.NewFromConfig(cfg, factory, recorder, logger)
	if err != nil {
		return nil, nil, err
	}
	return orch, logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
