// Package cli implements gridctl, a terminal front end for the result grid.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resultgrid/internal/config"
	logpkg "github.com/kailas-cloud/resultgrid/internal/logger"
	"github.com/kailas-cloud/resultgrid/internal/version"
)

// Output formats shared by the commands.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

type rootOptions struct {
	logLevel string
}

// NewRootCmd creates the gridctl root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "gridctl",
		Short: "Render search result envelopes as grids",
		Long: `gridctl flattens search result envelopes into the same columns and rows
the result grid service produces, and edits step settings artifacts.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newRenderCommand(opts))
	rootCmd.AddCommand(newDetailCommand(opts))
	rootCmd.AddCommand(newSettingsCommand(opts))
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// logger builds a console logger writing to stderr.
func (o *rootOptions) logger() (*zap.Logger, error) {
	l, err := logpkg.NewLogger(config.GetEnv(), o.logLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "gridctl %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}
