package preflight

import (
	"context"
	"strings"

	"o2rconv/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the doctor checks. configDir may be empty, in which case
// only engine and log directory checks run.
func RunAll(ctx context.Context, cfg *config.Config, configDir string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckTorch(cfg.Torch.Binary)}
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	configDir = strings.TrimSpace(configDir)
	if configDir != "" {
		access := CheckDirectoryAccess("Config directory", configDir)
		results = append(results, access)
		if access.Passed {
			results = append(results, CheckLayout(configDir))
			results = append(results, CheckDiskSpace(ctx, "Disk space", configDir, MinFreeBytes))
		}
	}

	if cfg.Publish.CopyTo != "" {
		results = append(results, CheckDirectoryAccess("Publish directory", cfg.Publish.CopyTo))
	}
	return results
}
