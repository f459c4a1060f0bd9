package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	prepareErr error
	calls      []string
	task       string
	retention  int
	args       []string
}

func (r *recorder) actions() Actions {
	return Actions{
		Prepare: func(context.Context) error {
			r.calls = append(r.calls, "prepare")
			return r.prepareErr
		},
		Serve: func(context.Context) error {
			r.calls = append(r.calls, "serve")
			return nil
		},
		Migrate: func(args []string, _ io.Writer) error {
			r.calls = append(r.calls, "migrate")
			r.args = args
			return nil
		},
		JobsStats: func(context.Context, io.Writer) error {
			r.calls = append(r.calls, "stats")
			return nil
		},
		JobsTrigger: func(_ context.Context, task string, retentionDays int, _ io.Writer) error {
			r.calls = append(r.calls, "trigger")
			r.task, r.retention = task, retentionDays
			return nil
		},
		Seed: func(context.Context, io.Writer) error {
			r.calls = append(r.calls, "seed")
			return nil
		},
	}
}

func execute(t *testing.T, r *recorder, args ...string) error {
	t.Helper()
	root := NewRootCommand(r.actions())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestRootDefaultsToServe(t *testing.T) {
	r := &recorder{}
	require.NoError(t, execute(t, r))
	require.NoError(t, execute(t, r, "serve"))
	require.Equal(t, []string{"prepare", "serve", "prepare", "serve"}, r.calls)
}

func TestRootDispatchesSubcommands(t *testing.T) {
	r := &recorder{}
	require.NoError(t, execute(t, r, "migrate", "up"))
	require.Equal(t, []string{"up"}, r.args)

	require.NoError(t, execute(t, r, "jobs", "stats"))
	require.NoError(t, execute(t, r, "seed"))
	require.Equal(t, []string{"prepare", "migrate", "prepare", "stats", "prepare", "seed"}, r.calls)
}

func TestJobsTriggerRetentionFlag(t *testing.T) {
	r := &recorder{}
	require.NoError(t, execute(t, r, "jobs", "trigger", "audit:prune"))
	require.Equal(t, "audit:prune", r.task)
	require.Equal(t, DefaultRetentionDays, r.retention)

	require.NoError(t, execute(t, r, "jobs", "trigger", "audit:prune", "--retention-days", "30"))
	require.Equal(t, 30, r.retention)
}

func TestRootUsageErrors(t *testing.T) {
	cases := [][]string{
		{"bogus"},
		{"migrate"},
		{"jobs"},
		{"jobs", "trigger"},
		{"jobs", "stats", "--no-such-flag"},
	}
	for _, args := range cases {
		r := &recorder{}
		err := execute(t, r, args...)
		require.ErrorIs(t, err, ErrUsage, "args %v", args)
		require.NotContains(t, r.calls, "serve")
		require.NotContains(t, r.calls, "stats")
	}
}

func TestPrepareFailureStopsAction(t *testing.T) {
	boom := errors.New("STORE_DRIVER must be postgres or memory")
	r := &recorder{prepareErr: boom}
	require.ErrorIs(t, execute(t, r, "seed"), boom)
	require.Equal(t, []string{"prepare"}, r.calls)
}

func TestHelpSkipsPrepare(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"help"}, {"jobs", "--help"}, {"help", "migrate"}} {
		r := &recorder{prepareErr: errors.New("invalid environment")}
		require.NoError(t, execute(t, r, args...), "args %v", args)
		require.Empty(t, r.calls, "args %v", args)
	}
}
