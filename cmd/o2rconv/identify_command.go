package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"o2rconv/internal/catalog"
	"o2rconv/internal/config"
	"o2rconv/internal/history"
	"o2rconv/internal/rom"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <rom>",
		Short: "Hash a ROM and show its catalog entry and header",
		Long: `Identify a ROM without running Torch.

Prints the SHA-1 digest of the normalized (big-endian) image, the matching
catalog entry if any, and the cartridge header fields. When the history
database holds a completed conversion of the same digest, its archive is
listed too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve rom path: %w", err)
			}
			image, err := rom.Load(path)
			if err != nil {
				return fmt.Errorf("read rom: %w", err)
			}
			digest := image.Digest()
			identity := catalog.Lookup(digest)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:        %s\n", path)
			fmt.Fprintf(out, "Size:        %s\n", humanize.IBytes(uint64(image.Len())))
			fmt.Fprintf(out, "Byte order:  %s\n", image.SourceOrder())
			fmt.Fprintf(out, "SHA-1:       %s\n", digest)
			fmt.Fprintf(out, "Title:       %s\n", identity.DisplayTitle())
			if identity.Known {
				fmt.Fprintf(out, "Region:      %s\n", identity.Region)
				fmt.Fprintf(out, "Version:     %s\n", identity.Version)
				fmt.Fprintf(out, "Compressed:  %s\n", yesNo(identity.Compressed))
				fmt.Fprintf(out, "Archive:     %s (%s)\n", identity.Game.ArchiveName(), identity.Game.Port())
			}
			if header, err := image.Header(); err == nil {
				fmt.Fprintf(out, "Header:      %s\n", header)
				fmt.Fprintf(out, "Header area: %s\n", header.RegionName())
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return nil
			}
			store, err := history.Open(cmd.Context(), cfg.Paths.HistoryDB)
			if err != nil {
				return nil
			}
			defer store.Close()
			if run, ok, err := store.LastCompleted(cmd.Context(), digest); err == nil && ok {
				fmt.Fprintf(out, "Converted:   %s on %s\n", run.OutputPath, run.FinishedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
