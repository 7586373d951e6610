package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/appinfo/metadata"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Apps bool
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize an appinfo.vdf file",
		Long: `Print the header, app count, string table size and decode diagnostics
of an appinfo.vdf file.

Example:
  appinfo inspect ~/.steam/steam/appcache/appinfo.vdf
  appinfo inspect --apps appinfo.vdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Apps, "apps", false, "list every app with its name and type")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	s, _, err := loadStore(opts.RootOptions, cmd, path)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "version:     %s\n", s.Version())
	fmt.Fprintf(w, "universe:    %s\n", s.Universe())
	fmt.Fprintf(w, "apps:        %d\n", s.Len())
	if t := s.StringTable(); t != nil {
		fmt.Fprintf(w, "strings:     %d\n", t.Len())
	}
	diags := s.Diagnostics()
	fmt.Fprintf(w, "diagnostics: %d\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(w, "  %s\n", d)
	}

	if opts.Apps {
		for id, entry := range s.All() {
			info, _ := metadata.Extract(entry.Data)
			fmt.Fprintf(w, "%d\t%s\t%s\n", id, info.Name, info.Type)
		}
	}

	return nil
}
