package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTorch()
	c.normalizeVerify()
	c.normalizeWatch()
	if err := c.normalizePublish(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeTorch() {
	if value, ok := os.LookupEnv("O2RCONV_TORCH_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Torch.Binary = value
	}
	c.Torch.Binary = strings.TrimSpace(c.Torch.Binary)
	if c.Torch.Binary == "" {
		c.Torch.Binary = defaultTorchBinary
	}
	c.Torch.ArchiveFormat = strings.ToLower(strings.TrimSpace(c.Torch.ArchiveFormat))
	if c.Torch.ArchiveFormat == "" {
		c.Torch.ArchiveFormat = defaultArchiveFormat
	}
	c.Torch.ExportType = strings.ToLower(strings.TrimSpace(c.Torch.ExportType))
	if c.Torch.ExportType == "" {
		c.Torch.ExportType = defaultExportType
	}
}

func (c *Config) normalizeVerify() {
	c.Verify.ManifestFile = strings.TrimSpace(c.Verify.ManifestFile)
	if c.Verify.ManifestFile == "" {
		c.Verify.ManifestFile = defaultManifestFile
	}
}

func (c *Config) normalizeWatch() {
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = defaultWatchDebounce
	}
	exts := make([]string, 0, len(c.Watch.Extensions))
	seen := make(map[string]struct{}, len(c.Watch.Extensions))
	for _, ext := range c.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = []string{defaultWatchExtension}
	}
	c.Watch.Extensions = exts
}

func (c *Config) normalizePublish() error {
	var err error
	if c.Publish.CopyTo, err = expandPath(strings.TrimSpace(c.Publish.CopyTo)); err != nil {
		return fmt.Errorf("publish.copy_to: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
