// Package engine defines the boundary between the conversion pipeline and
// the asset export engine. The pipeline only talks to these interfaces; the
// torch subpackage implements them on top of the Torch CLI and tests supply
// fakes.
package engine

import (
	"context"
	"fmt"
	"strings"
)

// ArchiveFormat selects the container the engine writes.
type ArchiveFormat string

const (
	FormatO2R ArchiveFormat = "o2r"
	FormatOTR ArchiveFormat = "otr"
)

// ExportType selects which exporters the engine registers.
type ExportType string

const (
	ExportBinary  ExportType = "binary"
	ExportHeader  ExportType = "header"
	ExportCode    ExportType = "code"
	ExportModding ExportType = "modding"
)

// ParseArchiveFormat validates a configured archive format.
func ParseArchiveFormat(value string) (ArchiveFormat, error) {
	switch format := ArchiveFormat(strings.ToLower(strings.TrimSpace(value))); format {
	case FormatO2R, FormatOTR:
		return format, nil
	case "":
		return FormatO2R, nil
	default:
		return "", fmt.Errorf("unsupported archive format %q", value)
	}
}

// ParseExportType validates a configured export type.
func ParseExportType(value string) (ExportType, error) {
	switch export := ExportType(strings.ToLower(strings.TrimSpace(value))); export {
	case ExportBinary, ExportHeader, ExportCode, ExportModding:
		return export, nil
	case "":
		return ExportBinary, nil
	default:
		return "", fmt.Errorf("unsupported export type %q", value)
	}
}

// Options configures one engine session.
type Options struct {
	// ROM holds big-endian image bytes. The engine must not modify them.
	ROM           []byte
	ArchiveFormat ArchiveFormat
	Debug         bool
	Modding       bool
	// SourceDir holds config.yml and assets/.
	SourceDir string
	// DestDir receives the archive and torch.hash.yml.
	DestDir string
	// OutputPath is where the finished archive must end up.
	OutputPath string
}

// Cartridge is the engine's view of the ROM it processed.
type Cartridge struct {
	Title string
	Hash  string
}

// Factory creates engine sessions.
type Factory interface {
	NewSession(ctx context.Context, opts Options) (Session, error)
}

// Session is a single-use engine handle. Close must be called exactly once.
type Session interface {
	RegisterFactories(ctx context.Context, export ExportType) error
	// Process blocks until the archive has been written or the engine fails.
	Process(ctx context.Context) error
	Cartridge() (Cartridge, bool)
	Close() error
}
