package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/courier/action"
	audithook "github.com/xraph/courier/audit_hook"
	"github.com/xraph/courier/engine"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Count   int
	Key     string
	Offline time.Duration
	Audit   bool
}

// NewDemoCommand creates a command that runs persistent echo actions
// through an engine backed by the SQLite store.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Submit persistent echo actions and print their results",
		Long: `Start an engine on the store, restore anything left from an earlier run,
submit --count persistent echo actions on --key and print each result.

With --offline the pause gate holds every action until the duration has
passed, so interrupting the command leaves records behind for the next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Count, "count", 3, "number of actions to submit")
	cmd.Flags().StringVar(&opts.Key, "key", "demo", "routing key")
	cmd.Flags().DurationVar(&opts.Offline, "offline", 0, "keep the pause gate closed for this long")
	cmd.Flags().BoolVar(&opts.Audit, "audit", false, "log an audit record for every lifecycle event")

	return cmd
}

func echoDefinition() *action.Definition[string] {
	return action.NewDefinition("echo", func(_ context.Context, msg string) (any, error) {
		return msg, nil
	}, action.Persistent(), action.WithRetryLimit(3))
}

// auditTo writes audit records to logger.
func auditTo(logger *slog.Logger) *audithook.Extension {
	return audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
		logger.LogAttrs(ctx, slog.LevelInfo, "audit",
			slog.String("action", evt.Action),
			slog.String("resource_id", evt.ResourceID),
			slog.String("outcome", evt.Outcome),
			slog.String("severity", evt.Severity),
			slog.Any("metadata", evt.Metadata),
		)
		return nil
	}), audithook.WithLogger(logger))
}

func runDemo(cmd *cobra.Command, opts *DemoOptions) error {
	ctx := cmd.Context()
	st, err := openStore(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	var online atomic.Bool
	online.Store(opts.Offline <= 0)
	if !online.Load() {
		time.AfterFunc(opts.Offline, func() { online.Store(true) })
	}

	def := echoDefinition()
	reg := action.NewRegistry()
	action.RegisterDefinition(reg, def)

	engineOpts := []engine.Option{
		engine.WithLogger(opts.logger),
		engine.WithConfig(opts.config),
		engine.WithStore(st),
		engine.WithRegistry(reg),
		engine.WithPauser(engine.PauseUnless(online.Load)),
	}
	if opts.Audit {
		engineOpts = append(engineOpts, engine.WithExtension(auditTo(opts.logger)))
	}
	eng, err := engine.New(engineOpts...)
	if err != nil {
		return err
	}

	futures := make([]*engine.Future, 0, opts.Count)
	for i := range opts.Count {
		a, err := def.New(fmt.Sprintf("message %d", i+1), action.WithKey(opts.Key))
		if err != nil {
			return err
		}
		f, err := eng.Submit(ctx, a)
		if err != nil {
			return err
		}
		futures = append(futures, f)
	}

	out := cmd.OutOrStdout()
	for _, f := range futures {
		msg, err := engine.Await[string](ctx, f)
		if err != nil {
			fmt.Fprintf(out, "failed: %v\n", err)
			continue
		}
		fmt.Fprintln(out, msg)
	}
	return eng.Stop(context.WithoutCancel(ctx))
}
