package cli

import (
	"fmt"

	"github.com/cperrin88/zipline/internal/logger"
	"github.com/cperrin88/zipline/pkg/config"
	"github.com/cperrin88/zipline/pkg/download"
	"github.com/cperrin88/zipline/pkg/hook"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	NoColor    *bool
)

// loadConfig loads the configuration, applies the global flags and initializes the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if Verbose != nil && *Verbose {
		cfg.Verbose = true
		cfg.Settings.LogLevel = "debug"
	}
	InitLogger(cfg.Settings.LogLevel, NoColor != nil && *NoColor)

	return cfg, nil
}

// InitLogger initializes the global logger for CLI operations.
func InitLogger(level string, noColor bool) {
	format := logger.FormatJSON
	if noColor {
		format = logger.FormatText
	}
	logger.InitLogger(level, format)
}

// newBatch builds the batch described by cfg with the default transports.
func newBatch(cfg *config.Config) (*download.Batch, error) {
	opts, err := cfg.DownloadOptions()
	if err != nil {
		return nil, err
	}
	batch, err := download.New(opts, download.Deps{})
	if err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}
	return batch, nil
}

// loadHooks registers the scripts of the configured hooks directory plus an optional
// post-unzip script given on the command line.
func loadHooks(cfg *config.Config, postHook string) (hook.HookManager, error) {
	manager := hook.NewHookManager()
	if cfg.Settings.HooksDir != "" {
		if err := hook.LoadHooksFromDir(manager, cfg.Settings.HooksDir); err != nil {
			return nil, err
		}
	}
	if postHook != "" {
		if err := hook.LoadHookFile(manager, hook.PostUnzip, postHook); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

// hookContext exposes an item and its decode result to hook scripts.
func hookContext(batch *download.Batch, it *download.Item, res download.Result) hook.HookContext {
	path := res.Path
	if path == "" && res.Content == "" {
		path = it.RawPath()
	}
	return hook.HookContext{
		Protocol: it.Protocol().String(),
		Name:     it.Name(),
		FName:    it.FName(),
		Path:     path,
		Content:  res.Content,
		Vars: map[string]interface{}{
			"tmp":   batch.Options().TmpDir,
			"state": it.State().String(),
		},
	}
}
