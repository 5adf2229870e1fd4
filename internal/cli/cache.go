package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cperrin88/zipline/internal/logger"
	"github.com/cperrin88/zipline/pkg/cache"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the staging directory",
		Long:  "Show and clean archives and decoded files left in the tmp directory",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var options cache.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove staged files",
		Long:  "Remove kept archives and leftover decoded files to free up disk space",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCacheClean(options)
		},
	}

	cmd.Flags().BoolVar(&options.All, "all", false, "Clean all staged files")
	cmd.Flags().BoolVar(&options.Archives, "archives", false, "Clean only downloaded archives")
	cmd.Flags().BoolVar(&options.Files, "files", false, "Clean only decoded files")
	cmd.Flags().DurationVar(&options.OlderThan, "older-than", 0, "Only clean files last modified before this long ago")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show staging directory information",
		RunE:  runCacheInfo,
	}
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show staging directory path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := cacheManager()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), mgr.GetDirectory())
			return nil
		},
	}
}

func cacheManager() (cache.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.NewManager(cfg.Tmp), nil
}

func runCacheClean(options cache.CleanOptions) error {
	mgr, err := cacheManager()
	if err != nil {
		return err
	}

	result, err := mgr.Clean(options)
	if err != nil {
		return err
	}

	if result.ArchiveFreed > 0 {
		logger.Info("Cleaned archives", logger.Fields{"size": humanize.Bytes(uint64(result.ArchiveFreed))})
	}
	if result.FileFreed > 0 {
		logger.Info("Cleaned decoded files", logger.Fields{"size": humanize.Bytes(uint64(result.FileFreed))})
	}

	logger.Success("Cache cleaning completed", logger.Fields{
		"files":       result.Removed,
		"total_freed": humanize.Bytes(uint64(result.TotalFreed)),
	})
	return nil
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	mgr, err := cacheManager()
	if err != nil {
		return err
	}

	info, err := mgr.GetInfo()
	if err != nil {
		return err
	}

	oldest := "n/a"
	if !info.Oldest.IsZero() {
		oldest = fmt.Sprintf("%s (%s)", info.Oldest.Format(time.DateTime), humanize.Time(info.Oldest))
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Directory: %s\n", info.Directory)
	_, _ = fmt.Fprintf(out, "Total Size: %s\n", humanize.Bytes(uint64(info.TotalSize)))
	_, _ = fmt.Fprintf(out, "Archives: %s (%d files)\n", humanize.Bytes(uint64(info.ArchiveSize)), info.ArchiveFiles)
	_, _ = fmt.Fprintf(out, "Decoded: %s (%d files)\n", humanize.Bytes(uint64(info.FileSize)), info.FileCount)
	_, _ = fmt.Fprintf(out, "Oldest: %s\n", oldest)

	return nil
}
