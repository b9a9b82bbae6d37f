package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"maestro/internal/gamectx"
	"maestro/internal/logging"
	"maestro/internal/transcodecache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the transcode cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show transcode cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, warn, err := openCache(ctx)
			if warn != "" {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || cache == nil {
				return err
			}
			defer cache.Close()

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSectionHeader(out, "Transcode cache")
			fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "Size:    %s / %s\n", humanBytes(stats.TotalBytes), humanBytes(stats.MaxBytes))
			return nil
		},
	}
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every cached encode in the game output format",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, warn, err := openCache(ctx)
			if warn != "" {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || cache == nil {
				return err
			}
			defer cache.Close()

			before, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if err := cache.PurgeOutputs(cmd.Context(), gamectx.OutputExtension); err != nil {
				return err
			}
			after, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}

			freed := before.TotalBytes - after.TotalBytes
			if freed <= 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached encodes purged")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %s across %d entries\n",
				humanBytes(freed), before.Entries-after.Entries)
			return nil
		},
	}
}

func openCache(ctx *commandContext) (*transcodecache.Cache, string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	if cfg == nil || !cfg.TranscodeCache.Enabled {
		return nil, "Transcode cache is disabled (set enabled = true under [transcode_cache])", nil
	}
	logger, err := logging.New(logging.Options{Level: "info", Format: "console"})
	if err != nil {
		return nil, "", fmt.Errorf("init logger: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "cli-cache")
	cache, err := transcodecache.Open(cfg, logger)
	if err != nil {
		return nil, "", err
	}
	if cache == nil {
		return nil, "Transcode cache is disabled", nil
	}
	return cache, "", nil
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}
