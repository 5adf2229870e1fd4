package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/zipline/internal/logger"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var (
		protocol string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the entries of the configured source",
		Long: `List the entries a fetch would process, without decoding them.

Zip and stream sources are downloaded to read the member table. Ftp sources are
listed remotely; checksum and text manifests are hidden.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("protocol") {
				cfg.Protocol = protocol
			}
			if cmd.Flags().Changed("limit") {
				cfg.Limit = limit
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			batch, err := newBatch(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := batch.Cleanup(context.WithoutCancel(cmd.Context()), cfg.Keep); cerr != nil {
					logger.Warn("Cleanup incomplete", logger.Fields{"error": cerr.Error()})
				}
			}()

			if err := batch.Enumerate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			items := batch.Files()
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No entries found")
				return nil
			}

			tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(tabWriter, "NAME\tFILE")
			for _, it := range items {
				_, _ = fmt.Fprintf(tabWriter, "%s\t%s\n", it.Name(), it.FName())
			}
			return tabWriter.Flush()
		},
	}

	cmd.Flags().StringVarP(&protocol, "protocol", "p", "", "Transfer protocol (zip, ftp, stream)")
	cmd.Flags().IntVar(&limit, "limit", 0, "List at most this many entries (0 means all)")

	return cmd
}

