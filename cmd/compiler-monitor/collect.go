package main

import (
	"errors"
	"fmt"

	"github.com/mrzor/compiler-monitor/internal/compiledb"
	"github.com/mrzor/compiler-monitor/internal/config"
	"github.com/spf13/cobra"
)

func newCollectCmd(opts *globalOptions) *cobra.Command {
	var cacheDir, output string
	var latest, watch bool

	cmd := &cobra.Command{
		Use:     "collect",
		Aliases: []string{"c"},
		Short:   "Collect recorded invocations into a compilation database",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("cache-dir") {
					c.CacheDir = cacheDir
				}
				if cmd.Flags().Changed("output") {
					c.Output = output
				}
			})
			if err != nil {
				return err
			}

			collectOpts := compiledb.Options{Latest: latest}
			if watch {
				err = compiledb.Watch(cmd.Context(), cfg.CacheDir, cfg.Output, collectOpts, compiledb.DefaultDebounce, logger)
			} else {
				var n int
				n, err = compiledb.Refresh(cfg.CacheDir, cfg.Output, collectOpts)
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d command(s) to %s\n", n, cfg.Output)
				}
			}

			if errors.Is(err, compiledb.ErrCacheDirMissing) {
				return fmt.Errorf("%w (run \"compiler-monitor record\" first)", err)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&cacheDir, "cache-dir", "c", "", "Cache directory (default \".compiler_monitor_cache\")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default \"compile_commands.json\")")
	cmd.Flags().BoolVar(&latest, "latest", false, "Keep only the most recent capture per source file")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep rewriting the output as new captures arrive")

	return cmd
}
