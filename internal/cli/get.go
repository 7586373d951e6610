package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/appinfo/encoding"
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/metadata"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Metadata bool
	Text     bool
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <file> <appid>",
		Short: "Print the data of one app",
		Long: `Print the KeyValue tree of one app as YAML.

With --metadata only the name, type, developers, publishers and release date
are printed. With --text the tree is printed in text VDF form, the form its
text checksum is computed over.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Metadata, "metadata", false, "print extracted metadata only")
	cmd.Flags().BoolVar(&opts.Text, "text", false, "print text VDF instead of YAML")
	cmd.MarkFlagsMutuallyExclusive("metadata", "text")

	return cmd
}

func runGet(opts *GetOptions, path, rawID string, cmd *cobra.Command) error {
	appID, err := parseAppID(rawID)
	if err != nil {
		return err
	}

	s, _, err := loadStore(opts.RootOptions, cmd, path)
	if err != nil {
		return err
	}

	entry, ok := s.GetApp(appID)
	if !ok {
		return WrapExitError(ExitCommandError, path, fmt.Errorf("%w: %d", errs.ErrAppNotFound, appID))
	}

	w := cmd.OutOrStdout()
	switch {
	case opts.Metadata:
		info, _ := metadata.Extract(entry.Data)
		return writeYAML(w, info)
	case opts.Text:
		_, err := w.Write(encoding.AppendText(nil, entry.Data))
		return err
	default:
		return writeYAML(w, TreeYAML(entry.Data))
	}
}
