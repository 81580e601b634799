package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTorch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTorch() error {
	if c.Torch.Binary == "" {
		return errors.New("torch.binary must be set")
	}
	if c.Torch.Timeout < 0 {
		return errors.New("torch.timeout must be zero (unlimited) or positive (seconds)")
	}
	switch c.Torch.ArchiveFormat {
	case "o2r", "otr":
	default:
		return fmt.Errorf("torch.archive_format: unsupported value %q (expected o2r or otr)", c.Torch.ArchiveFormat)
	}
	switch c.Torch.ExportType {
	case "binary", "header", "code", "modding":
	default:
		return fmt.Errorf("torch.export_type: unsupported value %q", c.Torch.ExportType)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
