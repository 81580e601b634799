package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"o2rconv/internal/catalog"
	"o2rconv/internal/config"
	"o2rconv/internal/history"
	"o2rconv/internal/logging"
	"o2rconv/internal/pipeline"
	"o2rconv/internal/rom"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var configDir string
	var output string
	var copyTo string
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "convert <rom>",
		Short: "Convert a ROM into an O2R archive",
		Long: `Convert a ROM into an O2R archive using Torch.

The config directory must hold the port's config.yml and assets/ folder.
Without --output the archive is written into the config directory under the
game's conventional name (sf64.o2r, mk64.o2r, or output.o2r for ROMs that
are not in the catalog).

Examples:
  o2rconv convert baserom.z64 --config-dir ~/starship
  o2rconv convert mk64.z64 --config-dir ~/spaghetti --copy-to ~/games/mk64`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := buildRequest(cfg, args[0], configDir, output, copyTo)
			if err != nil {
				return err
			}

			var recorder pipeline.Recorder
			var store *history.Store
			if !noHistory {
				store, err = history.Open(cmd.Context(), cfg.Paths.HistoryDB)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer store.Close()
				recorder = store
			}

			orch, logger, err := ctx.newOrchestrator(recorder)
			if err != nil {
				return err
			}
			if store != nil {
				logger.Debug("history store opened", logging.String("path", store.Path()))
			}

			out := cmd.OutOrStdout()
			result := orch.Convert(cmd.Context(), req, newProgressPrinter(out))
			return reportResult(out, result)
		},
	}

	cmd.Flags().StringVarP(&configDir, "config-dir", "d", "", "Port directory containing config.yml and assets/")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive output path")
	cmd.Flags().StringVar(&copyTo, "copy-to", "", "Also copy the finished archive into this directory (default publish.copy_to)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history database")
	_ = cmd.MarkFlagRequired("config-dir")
	return cmd
}

// buildRequest resolves paths and picks the default output name from the
// ROM's catalog profile.
func buildRequest(cfg *config.Config, romArg, configDir, output, copyTo string) (pipeline.Request, error) {
	romPath, err := config.ExpandPath(strings.TrimSpace(romArg))
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("resolve rom path: %w", err)
	}
	configDir = strings.TrimSpace(configDir)
	if configDir == "" {
		return pipeline.Request{}, errors.New("--config-dir is required")
	}
	configDir, err = config.ExpandPath(configDir)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("resolve config directory: %w", err)
	}

	output = strings.TrimSpace(output)
	if output == "" {
		identity := catalog.Identity{}
		if image, err := rom.Load(romPath); err == nil {
			identity = catalog.Lookup(image.Digest())
		}
		output = pipeline.DefaultOutputPath(configDir, identity)
	} else if output, err = config.ExpandPath(output); err != nil {
		return pipeline.Request{}, fmt.Errorf("resolve output path: %w", err)
	}

	copyTo = strings.TrimSpace(copyTo)
	if copyTo == "" {
		copyTo = cfg.Publish.CopyTo
	} else if copyTo, err = config.ExpandPath(copyTo); err != nil {
		return pipeline.Request{}, fmt.Errorf("resolve copy destination: %w", err)
	}

	return pipeline.Request{
		ROMPath:    romPath,
		OutputPath: output,
		ConfigDir:  configDir,
		CopyTo:     copyTo,
	}, nil
}

func reportResult(out io.Writer, result pipeline.Result) error {
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}
	if !result.OK {
		return fmt.Errorf("conversion failed (%s): %s", result.Kind, result.Terminal())
	}
	fmt.Fprintf(out, "ROM:      %s\n", result.Identity.DisplayTitle())
	fmt.Fprintf(out, "Archive:  %s (%s)\n", result.OutputPath, humanize.IBytes(uint64(result.Verification.Size)))
	if result.Verification.Inspected && result.Verification.ArchiveError == "" {
		fmt.Fprintf(out, "Entries:  %d\n", result.Verification.ArchiveEntries)
	}
	if result.PublishedPath != "" {
		fmt.Fprintf(out, "Copied:   %s\n", result.PublishedPath)
	}
	if port := result.Identity.Game.Port(); port != "" {
		fmt.Fprintf(out, "Place %s next to the %s executable.\n", filepath.Base(result.OutputPath), port)
	}
	fmt.Fprintf(out, "Elapsed:  %s\n", result.Elapsed.Round(time.Millisecond))
	return nil
}
