package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
	"github.com/arloliu/appinfo/snapshot"
	"github.com/arloliu/appinfo/store"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Compression string
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot <file> <out>",
		Short: "Archive a file as a compressed snapshot",
		Long: `Validate an appinfo.vdf file and store it, byte for byte, in a
compressed snapshot guarded by an xxHash64 digest.

Example:
  appinfo snapshot appinfo.vdf appinfo.aivs
  appinfo snapshot --compression lz4 appinfo.vdf appinfo.aivs`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Compression, "compression", "zstd", "payload compression (none|zstd|s2|lz4)")

	return cmd
}

func runSnapshot(opts *SnapshotOptions, path, out string, cmd *cobra.Command) error {
	compression, err := format.ParseCompressionType(opts.Compression)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --compression", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	raw, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read "+path, err)
	}
	s, err := store.Decode(raw, storeOptions(opts.RootOptions, logger)...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode "+path, err)
	}

	data, err := snapshot.Pack(raw, snapshot.WithCompression(compression))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to pack snapshot", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil { //nolint:gosec
		return WrapExitError(ExitCommandError, "failed to write snapshot", fmt.Errorf("%w: %w", errs.ErrWriteIO, err))
	}
	logger.Debug("snapshot written", "path", out, "raw", len(raw), "packed", len(data), "compression", compression)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote snapshot of %d apps to %s (%d -> %d bytes)\n", s.Len(), out, len(raw), len(data))

	return nil
}

// NewRestoreSnapshotCommand creates the restore-snapshot command.
func NewRestoreSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore-snapshot <snapshot> <out>",
		Short: "Write the appinfo.vdf stored in a snapshot",
		Long: `Check a snapshot's digest, decode the file it holds and write it to
<out>.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(rootOpts, cmd.ErrOrStderr())
			s, err := snapshot.ReadFile(args[0], snapshot.WithStoreOptions(storeOptions(rootOpts, logger)...))
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read snapshot "+args[0], err)
			}

			return writeStore(s, args[1], cmd)
		},
	}
}
