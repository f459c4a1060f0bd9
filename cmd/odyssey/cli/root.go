package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Actions are the entry points the command tree dispatches to.
type Actions struct {
	// Prepare runs after argument parsing and before any action. Help and
	// completion commands skip it.
	Prepare     func(ctx context.Context) error
	Serve       func(ctx context.Context) error
	Migrate     func(args []string, out io.Writer) error
	JobsStats   func(ctx context.Context, out io.Writer) error
	JobsTrigger func(ctx context.Context, task string, retentionDays int, out io.Writer) error
	Seed        func(ctx context.Context, out io.Writer) error
}

// DefaultRetentionDays marks an unset jobs --retention-days flag.
const DefaultRetentionDays = -1

// NewRootCommand builds the odyssey command tree. Running it without a
// subcommand starts the API server.
func NewRootCommand(a Actions) *cobra.Command {
	root := &cobra.Command{
		Use:           "odyssey",
		Short:         "Identity and access management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          exactArgs(0),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.Prepare == nil || !needsPrepare(cmd) {
				return nil
			}
			return a.Prepare(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Serve(cmd.Context())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Serve(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:       "migrate up|down|version",
		Short:     "Apply, roll back or inspect the schema",
		Args:      exactArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Migrate(args, cmd.OutOrStdout())
		},
	})

	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return fmt.Errorf("%w: %s", ErrUsage, cmd.UseLine()+" stats|trigger")
		},
	}
	retentionDays := jobs.PersistentFlags().Int("retention-days", DefaultRetentionDays, "retention window for audit:prune (default AUDIT_RETENTION_DAYS)")
	jobs.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print default queue statistics",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.JobsStats(cmd.Context(), cmd.OutOrStdout())
		},
	})
	jobs.AddCommand(&cobra.Command{
		Use:   "trigger <task>",
		Short: "Enqueue a task immediately",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.JobsTrigger(cmd.Context(), args[0], *retentionDays, cmd.OutOrStdout())
		},
	})
	root.AddCommand(jobs)

	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create the core role and permission catalog",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Seed(cmd.Context(), cmd.OutOrStdout())
		},
	})
	return root
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: %s", ErrUsage, cmd.UseLine())
		}
		return nil
	}
}

func needsPrepare(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}
