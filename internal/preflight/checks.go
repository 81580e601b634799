package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sys/unix"

	"o2rconv/internal/deps"
	"o2rconv/internal/manifest"
)

// MinFreeBytes is the free space doctor expects where archives are written.
// Compressed ROMs are decompressed in memory but the exported archive and the
// engine's scratch files land on disk.
const MinFreeBytes = 512 * 1024 * 1024

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace reports free space on the filesystem holding path.
func CheckDiskSpace(ctx context.Context, name, path string, minFree uint64) Result {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free of %s (%.0f%% used)",
		humanize.IBytes(usage.Free), humanize.IBytes(usage.Total), usage.UsedPercent)
	if usage.Free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s, need at least %s", detail, humanize.IBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckLayout verifies the config directory holds config.yml and assets/.
func CheckLayout(configDir string) Result {
	const name = "Asset layout"
	if info, err := os.Stat(filepath.Join(configDir, manifest.ConfigFile)); err != nil || info.IsDir() {
		return Result{Name: name, Detail: MsgConfigYMLMissing}
	}
	if info, err := os.Stat(filepath.Join(configDir, AssetsDir)); err != nil || !info.IsDir() {
		return Result{Name: name, Detail: MsgAssetsMissing}
	}
	cfg, err := manifest.LoadConfig(configDir)
	if err != nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("config.yml present but unreadable (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("config.yml lists %d ROM(s)", len(cfg.Entries))}
}

// CheckTorch reports whether the engine binary resolves.
func CheckTorch(binary string) Result {
	status := deps.CheckBinaries([]deps.Requirement{deps.TorchRequirement(binary)})[0]
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	return Result{Name: status.Name, Passed: true, Detail: status.Path}
}
