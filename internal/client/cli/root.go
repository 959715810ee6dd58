package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/fieldsync/fieldsync/internal/client/config"
	"github.com/fieldsync/fieldsync/internal/logging"
	"github.com/spf13/cobra"
)

type runner struct {
	flags        *config.Flags
	printMetrics bool
	stdin        io.Reader
}

type runFunc func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error

// NewRootCommand builds the fieldsync command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fieldsync",
		Short:         "Offline-first field survey client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	r := &runner{flags: config.RegisterFlags(root)}
	root.PersistentFlags().BoolVar(&r.printMetrics, "print-metrics", false, "print client metrics after the command")

	root.AddCommand(
		r.loginCmd(),
		r.logoutCmd(),
		r.statusCmd(),
		r.templatesCmd(),
		r.templateCmd(),
		r.sectionsCmd(),
		r.categoriesCmd(),
		r.itemsCmd(),
		r.appointmentsCmd(),
		r.appointmentCmd(),
		r.surveysCmd(),
		r.surveyCmd(),
		r.saveSurveyCmd(),
		r.pendingCmd(),
		r.syncCmd(),
		r.watchCmd(),
		r.clearCacheCmd(),
		r.metricsCmd(),
		versionCmd(),
	)
	return root
}

// run loads the configuration, builds an App for the duration of one
// command and closes it afterwards.
func (r *runner) run(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		r.stdin = cmd.InOrStdin()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, err := config.Load(r.flags)
		if err != nil {
			return err
		}
		log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)

		a, err := NewApp(ctx, cfg, log, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fn(ctx, a, cmd, args); err != nil {
			return err
		}
		if r.printMetrics {
			return a.metrics.WriteText(cmd.OutOrStdout())
		}
		return nil
	}
}

func (r *runner) reader() *bufio.Reader {
	return bufio.NewReader(r.stdin)
}

// Execute runs the command tree and reports errors on stderr.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}
