package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"o2rconv/internal/config"
	"o2rconv/internal/history"
	"o2rconv/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var configDir string
	var copyTo string
	var skipExisting bool

	cmd := &cobra.Command{
		Use:   "watch <inbox>",
		Short: "Convert ROMs dropped into an inbox directory",
		Long: `Watch a directory and convert every ROM file that lands in it.

Files are picked up once they stop changing for watch.debounce_ms. ROMs are
converted one at a time. A ROM already converted in this session, or whose
last recorded archive still exists, is skipped. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			inbox, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve inbox: %w", err)
			}
			dir, err := config.ExpandPath(strings.TrimSpace(configDir))
			if err != nil {
				return fmt.Errorf("resolve config directory: %w", err)
			}
			if strings.TrimSpace(copyTo) == "" {
				copyTo = cfg.Publish.CopyTo
			} else if copyTo, err = config.ExpandPath(copyTo); err != nil {
				return fmt.Errorf("resolve copy destination: %w", err)
			}

			return ctx.withHistory(cmd.Context(), func(store *history.Store) error {
				orch, logger, err := ctx.newOrchestrator(store)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				w, err := watch.New(orch, watch.Options{
					Inbox:        inbox,
					ConfigDir:    dir,
					CopyTo:       copyTo,
					Extensions:   cfg.Watch.Extensions,
					Debounce:     cfg.WatchDebounce(),
					ScanExisting: !skipExisting,
					History:      store,
					Logger:       logger,
					Sink:         newProgressPrinter(out),
					OnResult: func(o watch.Outcome) {
						name := filepath.Base(o.Path)
						switch {
						case o.Skipped:
							fmt.Fprintf(out, "Skipped %s: %s\n", name, o.Reason)
						case o.Result.OK:
							fmt.Fprintf(out, "Converted %s -> %s\n", name, o.Result.OutputPath)
						default:
							fmt.Fprintf(out, "Failed %s: %s\n", name, o.Result.Terminal())
						}
					},
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", inbox)
				return w.Run(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVarP(&configDir, "config-dir", "d", "", "Port directory containing config.yml and assets/")
	cmd.Flags().StringVar(&copyTo, "copy-to", "", "Also copy finished archives into this directory (default publish.copy_to)")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Ignore files already in the inbox at startup")
	_ = cmd.MarkFlagRequired("config-dir")
	return cmd
}
