package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cperrin88/zipline/internal/logger"
	"github.com/cperrin88/zipline/pkg/config"
	"github.com/cperrin88/zipline/pkg/download"
	"github.com/cperrin88/zipline/pkg/hook"
	"github.com/cperrin88/zipline/pkg/shell"
	"github.com/cperrin88/zipline/pkg/xmltree"
)

type fetchFlags struct {
	protocol    string
	tmp         string
	limit       int
	concurrency int
	keep        bool
	downloaded  bool
	noInflate   bool
	reverse     bool
	postHook    string
	exec        string
	output      string
	forceArray  []string
}

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and decode a batch of remote files",
		Long: `Download the configured source and decode every entry.

For zip and stream sources the archive is downloaded once and its members are
extracted. For ftp sources every listed entry is transferred and gunzipped.
Each decoded entry can be passed to a Tengo post-unzip hook (--post-hook), to a
shell command (--exec, "{}" is replaced by the decoded file path) and printed
(--output lines|xml). Temporary files are removed afterwards unless --keep is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, &flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.protocol, "protocol", "p", "", "Transfer protocol (zip, ftp, stream)")
	cmd.Flags().StringVar(&f.tmp, "tmp", "", "Directory for downloaded and decoded files")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Process at most this many entries (0 means all)")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 0, "Number of entries processed at once")
	cmd.Flags().BoolVar(&f.keep, "keep", false, "Keep the downloaded archive")
	cmd.Flags().BoolVar(&f.downloaded, "downloaded", false, "Reuse an archive already present in the tmp directory")
	cmd.Flags().BoolVar(&f.noInflate, "no-inflate", false, "Read archive members into memory instead of writing them to disk")
	cmd.Flags().BoolVar(&f.reverse, "reverse", false, "Process entries in reverse order")
	cmd.Flags().StringVar(&f.postHook, "post-hook", "", "Tengo script run after each entry is decoded")
	cmd.Flags().StringVar(&f.exec, "exec", "", "Shell command run for each decoded file")
	cmd.Flags().StringVarP(&f.output, "output", "o", OutputNone, "Print decoded entries (lines, xml)")
	cmd.Flags().StringSliceVar(&f.forceArray, "force-array", nil, "XML element names always decoded as lists")
}

// applyFetchFlags overrides configuration values with the flags the user set.
func applyFetchFlags(cmd *cobra.Command, cfg *config.Config, flags *fetchFlags) error {
	changed := cmd.Flags().Changed
	if changed("protocol") {
		cfg.Protocol = flags.protocol
	}
	if changed("tmp") {
		cfg.Tmp = flags.tmp
	}
	if changed("limit") {
		cfg.Limit = flags.limit
	}
	if changed("concurrency") {
		cfg.Concurrency = flags.concurrency
	}
	if changed("keep") {
		cfg.Keep = flags.keep
	}
	if changed("downloaded") {
		cfg.Downloaded = flags.downloaded
	}
	if changed("no-inflate") {
		cfg.Inflate = !flags.noInflate
	}

	switch flags.output {
	case OutputNone, OutputLines, OutputXML:
	default:
		return fmt.Errorf("unsupported output %q, must be one of: lines, xml", flags.output)
	}

	return cfg.Validate()
}

func runFetch(cmd *cobra.Command, flags *fetchFlags) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFetchFlags(cmd, cfg, flags); err != nil {
		return err
	}

	hooks, err := loadHooks(cfg, flags.postHook)
	if err != nil {
		return err
	}

	batch, err := newBatch(cfg)
	if err != nil {
		return err
	}
	defer func() {
		// Cleanup must run even when ctx was cancelled.
		if cerr := batch.Cleanup(context.WithoutCancel(ctx), cfg.Keep); cerr != nil {
			logger.Warn("Cleanup incomplete", logger.Fields{"error": cerr.Error()})
		}
	}()

	if err := batch.Enumerate(ctx); err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	if flags.reverse {
		batch.Reverse()
	}

	if batch.Protocol() == download.ProtocolFTP {
		err := batch.Each(ctx, func(ctx context.Context, it *download.Item) error {
			if err := batch.FetchOne(ctx, it); err != nil {
				return err
			}
			return hooks.Execute(ctx, hook.PostFetch, hookContext(batch, it, download.Result{}))
		})
		if err != nil {
			return fmt.Errorf("transfer failed: %w", err)
		}
	}

	p := &printer{out: cmd.OutOrStdout(), mode: flags.output, forceArray: flags.forceArray}
	post := func(ctx context.Context, it *download.Item, res download.Result) error {
		if err := hooks.Execute(ctx, hook.PostUnzip, hookContext(batch, it, res)); err != nil {
			return err
		}
		if flags.exec != "" {
			if err := execFor(ctx, p, flags.exec, it, res); err != nil {
				return err
			}
		}
		return p.print(ctx, it, res)
	}

	if err := batch.UnzipAll(ctx, post); err != nil {
		return fmt.Errorf("some entries failed: %w", err)
	}

	logger.Success("Fetch complete", logger.Fields{
		"protocol": batch.Protocol().String(),
		"entries":  batch.Len(),
	})
	return nil
}

// execFor runs command for a decoded file. Entries decoded into memory have no file and are skipped.
func execFor(ctx context.Context, p *printer, command string, it *download.Item, res download.Result) error {
	if res.Path == "" {
		logger.Debug("Skipping command for in-memory entry", logger.Fields{"name": it.Name()})
		return nil
	}
	out, err := shell.Run(ctx, expandCommand(command, res.Path))
	if err != nil {
		return err
	}
	p.write(out)
	return nil
}

// expandCommand substitutes the quoted path for every placeholder, or appends it when there is none.
func expandCommand(command, path string) string {
	quoted := "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
	if !strings.Contains(command, ExecPlaceholder) {
		return command + " " + quoted
	}
	return strings.ReplaceAll(command, ExecPlaceholder, quoted)
}

// printer serializes output of concurrently decoded entries.
type printer struct {
	mu         sync.Mutex
	out        io.Writer
	mode       string
	forceArray []string
}

func (p *printer) write(s string) {
	if s == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, s)
	if !strings.HasSuffix(s, "\n") {
		_, _ = io.WriteString(p.out, "\n")
	}
}

func (p *printer) print(ctx context.Context, it *download.Item, res download.Result) error {
	switch p.mode {
	case OutputLines:
		if res.Path == "" {
			p.write(res.Content)
			return nil
		}
		var b strings.Builder
		err := it.ReadLines(ctx, func(line string) error {
			b.WriteString(line)
			b.WriteByte('\n')
			return nil
		})
		if err != nil {
			return err
		}
		p.write(b.String())
	case OutputXML:
		opts := xmltree.Options{ForceArray: p.forceArray}
		var (
			tree xmltree.Tree
			err  error
		)
		if res.Path == "" {
			tree, err = xmltree.Parse([]byte(res.Content), opts)
		} else {
			tree, err = it.ReadXML(opts)
		}
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(map[string]any{it.FName(): map[string]any(tree)})
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", it.FName(), err)
		}
		p.write(string(data))
	}
	return nil
}
