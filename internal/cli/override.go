package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/appinfo/metadata"
	"github.com/arloliu/appinfo/overrides"
)

// OverrideOptions holds flags shared by the override subcommands.
type OverrideOptions struct {
	*RootOptions
	Database string
	Timeout  time.Duration
}

// NewOverrideCommand creates the override command group.
func NewOverrideCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OverrideOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage persistent metadata overrides",
		Long: `Record metadata overrides in a database and apply them to appinfo.vdf.

Steam rewrites appinfo.vdf whenever it refreshes app data. Overrides recorded
with "override set" can be applied again with "override apply" after that.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the overrides database (required)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "lock-timeout", 5*time.Second, "how long to wait for the database lock")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newOverrideSetCommand(opts))
	cmd.AddCommand(newOverrideApplyCommand(opts))
	cmd.AddCommand(newOverrideListCommand(opts))
	cmd.AddCommand(newOverrideClearCommand(opts))

	return cmd
}

func openJournal(opts *OverrideOptions, logger *slog.Logger) (*overrides.Journal, error) {
	j, err := overrides.Open(opts.Database, overrides.Options{Logger: logger, Timeout: opts.Timeout})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open overrides database", err)
	}

	return j, nil
}

func closeJournal(j *overrides.Journal, logger *slog.Logger) {
	if err := j.Close(); err != nil {
		logger.Error("error closing overrides database", "error", err)
	}
}

type overrideSetOptions struct {
	*OverrideOptions
	Output string
	Fields metadata.Override
}

func newOverrideSetCommand(parent *OverrideOptions) *cobra.Command {
	opts := &overrideSetOptions{OverrideOptions: parent}

	cmd := &cobra.Command{
		Use:   "set <file> <appid>",
		Short: "Change app metadata and record the change",
		Long: `Change the metadata of one app, record the override and write the file.

Example:
  appinfo override set --db overrides.db appinfo.vdf 70 --name "Half-Life" --developer "Valve"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			for flag, dst := range map[string]**string{
				"name":         &opts.Fields.Name,
				"type":         &opts.Fields.Type,
				"developer":    &opts.Fields.Developer,
				"publisher":    &opts.Fields.Publisher,
				"release-date": &opts.Fields.ReleaseDate,
			} {
				if flags.Changed(flag) {
					v, _ := flags.GetString(flag)
					*dst = &v
				}
			}
			if opts.Fields.IsZero() {
				return NewExitError(ExitCommandError, "nothing to change: set at least one of --name, --type, --developer, --publisher, --release-date")
			}

			return runOverrideSet(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().String("name", "", "app name")
	cmd.Flags().String("type", "", "app type")
	cmd.Flags().String("developer", "", "comma separated developers")
	cmd.Flags().String("publisher", "", "comma separated publishers")
	cmd.Flags().String("release-date", "", "release date (unix time)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output path (default: overwrite the input)")

	return cmd
}

func runOverrideSet(opts *overrideSetOptions, path, rawID string, cmd *cobra.Command) error {
	appID, err := parseAppID(rawID)
	if err != nil {
		return err
	}

	s, logger, err := loadStore(opts.RootOptions, cmd, path)
	if err != nil {
		return err
	}

	j, err := openJournal(opts.OverrideOptions, logger)
	if err != nil {
		return err
	}
	defer closeJournal(j, logger)

	rec, err := j.Modify(s, appID, opts.Fields)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record override", err)
	}
	logger.Debug("override recorded", "app_id", rec.AppID, "original", rec.Original.Name)

	return writeStore(s, opts.Output, cmd)
}

type overrideApplyOptions struct {
	*OverrideOptions
	Output string
}

func newOverrideApplyCommand(parent *OverrideOptions) *cobra.Command {
	opts := &overrideApplyOptions{OverrideOptions: parent}

	cmd := &cobra.Command{
		Use:   "apply <file> [appid...]",
		Short: "Apply recorded overrides to a file",
		Long: `Apply the recorded overrides to a file, all of them or only the given
apps, and write it back.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint32, 0, len(args)-1)
			for _, raw := range args[1:] {
				id, err := parseAppID(raw)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			s, logger, err := loadStore(opts.RootOptions, cmd, args[0])
			if err != nil {
				return err
			}

			j, err := openJournal(opts.OverrideOptions, logger)
			if err != nil {
				return err
			}
			defer closeJournal(j, logger)

			n, err := j.Restore(s, ids...)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to restore overrides", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d overrides\n", n)

			return writeStore(s, opts.Output, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output path (default: overwrite the input)")

	return cmd
}

func newOverrideListCommand(opts *OverrideOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the recorded overrides as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
			j, err := openJournal(opts, logger)
			if err != nil {
				return err
			}
			defer closeJournal(j, logger)

			recs, err := j.All()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read overrides", err)
			}

			out := make([]overrideView, 0, len(recs))
			for _, rec := range recs {
				out = append(out, overrideView{
					AppID:     rec.AppID,
					Original:  rec.Original,
					Modified:  rec.Modified,
					UpdatedAt: rec.UpdatedAt.UTC().Format(time.RFC3339),
				})
			}

			return writeYAML(cmd.OutOrStdout(), out)
		},
	}
}

type overrideView struct {
	AppID     uint32            `yaml:"app_id"`
	Original  metadata.Info     `yaml:"original"`
	Modified  metadata.Override `yaml:"modified"`
	UpdatedAt string            `yaml:"updated_at"`
}

func newOverrideClearCommand(opts *OverrideOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
			j, err := openJournal(opts, logger)
			if err != nil {
				return err
			}
			defer closeJournal(j, logger)

			n, err := j.Clear()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to clear overrides", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d overrides\n", n)

			return nil
		},
	}
}
