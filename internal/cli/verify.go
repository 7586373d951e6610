package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/appinfo/errs"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check the stored checksums of every app",
		Long: `Recompute the text and binary SHA-1 of every app and compare them with
the stored values. Exits with status 1 when any app differs.

Versions 28 and 29 carry no checksums and always verify.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args[0], cmd)
		},
	}
}

func runVerify(opts *RootOptions, path string, cmd *cobra.Command) error {
	s, _, err := loadStore(opts, cmd, path)
	if err != nil {
		return err
	}

	mismatched, err := s.VerifyChecksums()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to verify "+path, err)
	}

	w := cmd.OutOrStdout()
	for _, id := range mismatched {
		fmt.Fprintf(w, "checksum mismatch: app %d\n", id)
	}
	if len(mismatched) > 0 {
		return WrapExitError(ExitFailure, fmt.Sprintf("%d of %d apps failed verification", len(mismatched), s.Len()), errs.ErrChecksumMismatch)
	}
	fmt.Fprintf(w, "ok: %d apps verified\n", s.Len())

	return nil
}
