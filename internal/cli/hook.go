package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cperrin88/zipline/internal/logger"
	"github.com/cperrin88/zipline/pkg/fsutil"
	"github.com/cperrin88/zipline/pkg/hook"
)

// NewHookCmd creates the hook command with subcommands.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage Tengo hook scripts",
		Long:  "Create and check the post-fetch and post-unzip scripts run by fetch",
	}

	cmd.AddCommand(
		newHookTemplateCmd(),
		newHookCheckCmd(),
	)

	return cmd
}

func newHookTemplateCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:       "template TYPE",
		Short:     "Print or write a hook template",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(hook.PostFetch), string(hook.PostUnzip)},
		RunE: func(cmd *cobra.Command, args []string) error {
			hookType := hook.HookType(args[0])
			if !hookType.Valid() {
				return hook.ErrUnsupportedHookType(args[0])
			}

			template := hook.HookTemplate(hookType) + "\n"
			if outDir == "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), template)
				return nil
			}

			if err := fsutil.EnsureDir(outDir); err != nil {
				return err
			}
			path := filepath.Join(outDir, string(hookType)+hook.HookFileExtension)
			if err := os.WriteFile(path, []byte(template), fsutil.FileModeDefault); err != nil {
				return fmt.Errorf("failed to write hook template: %w", err)
			}
			logger.Success("Hook template created", logger.Fields{"path": path})
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "dir", "", "Write <type>.tengo into this directory instead of printing it")

	return cmd
}

func newHookCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check TYPE FILE",
		Short: "Compile a hook script without running it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hookType := hook.HookType(args[0])
			if err := hook.LoadHookFile(hook.NewHookManager(), hookType, args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[1])
			return nil
		},
	}
}
