// Package cli implements the appinfo command line tool.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arloliu/appinfo/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Strict  bool
	NoSize  bool
}

// NewRootCommand creates the root command for the appinfo CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "appinfo",
		Short: "Inspect and edit Steam appinfo.vdf files",
		Long: `Read, verify and rewrite the binary appinfo.vdf cache of the Steam client.

Versions 28, 29, 39, 40 and 41 are supported. Every rewrite recomputes the
entry sizes and checksums, so Steam accepts the edited file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&opts.Strict, "strict", false, "fail on decode anomalies")
	cmd.PersistentFlags().BoolVar(&opts.NoSize, "no-size-check", false, "skip entry size validation")

	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetNameCommand(opts))
	cmd.AddCommand(NewRewriteCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewRestoreSnapshotCommand(opts))
	cmd.AddCommand(NewOverrideCommand(opts))

	return cmd
}

// newLogger builds the text logger diagnostics go to. --verbose selects
// Debug.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func storeOptions(opts *RootOptions, logger *slog.Logger) []store.Option {
	return []store.Option{
		store.WithLogger(logger),
		store.WithStrict(opts.Strict),
		store.WithSizeValidation(!opts.NoSize),
	}
}

func loadStore(opts *RootOptions, cmd *cobra.Command, path string) (*store.Store, *slog.Logger, error) {
	logger := newLogger(opts, cmd.ErrOrStderr())
	logger.Debug("loading appinfo", "path", path)

	s, err := store.Load(path, storeOptions(opts, logger)...)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load "+path, err)
	}
	logger.Debug("appinfo loaded", "version", s.Version(), "apps", s.Len())

	return s, logger, nil
}
