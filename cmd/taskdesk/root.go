package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/taskdesk/modules/review"
	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
	"github.com/iota-uz/taskdesk/pkg/configuration"
	"github.com/iota-uz/taskdesk/pkg/tracing"
)

var envFiles = []string{".env", ".env.local"}

type globalOptions struct {
	APIURL       string
	Token        string
	OrgID        string
	UserID       string
	SupervisorID string
	Filters      []string
	Output       string
}

// app is built once per invocation by the root command's pre-run hook.
type app struct {
	opts     globalOptions
	conf     *configuration.Configuration
	mod      *review.Module
	shutdown func(context.Context) error
}

func (a *app) init(ctx context.Context) error {
	if a.opts.Output != outputJSON && a.opts.Output != outputYAML {
		return withCode(exitUsage, fmt.Errorf("invalid --output %q, want json or yaml", a.opts.Output))
	}
	conf, err := configuration.Load(envFiles)
	if err != nil {
		return withCode(exitUsage, gerrors.Wrap(err, "load configuration"))
	}
	a.conf = conf
	if a.opts.APIURL != "" {
		conf.API.URL = strings.TrimRight(strings.TrimSpace(a.opts.APIURL), "/")
		if err := conf.API.Validate(); err != nil {
			return withCode(exitUsage, err)
		}
	}
	override(&conf.API.Token, a.opts.Token)
	override(&conf.API.OrgID, a.opts.OrgID)
	override(&conf.API.UserID, a.opts.UserID)
	override(&conf.API.SupervisorID, a.opts.SupervisorID)

	shutdown, err := tracing.Setup(ctx, conf.OpenTelemetry)
	if err != nil {
		return gerrors.Wrap(err, "setup tracing")
	}
	a.shutdown = shutdown

	mod, err := review.NewModule(conf)
	if err != nil {
		return withCode(exitUsage, err)
	}
	a.mod = mod
	return a.applyFilters()
}

func override(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// applyFilters feeds --filter key=value pairs into the store in the order given.
func (a *app) applyFilters() error {
	for _, raw := range a.opts.Filters {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return withCode(exitUsage, fmt.Errorf("invalid --filter %q, want key=value", raw))
		}
		field, err := domain.ParseFilterField(key)
		if err != nil {
			return withCode(exitUsage, err)
		}
		if err := a.mod.Store.SetFilter(field, value); err != nil {
			return withCode(exitUsage, err)
		}
	}
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil && a.conf != nil {
			a.conf.Logger().WithError(err).Warn("tracing shutdown failed")
		}
	}
	if a.conf != nil {
		a.conf.Unload()
	}
}

func (a *app) session() domain.Session {
	return a.mod.Session()
}

func (a *app) supervisorID() domain.ID {
	return a.mod.SupervisorID()
}

func (a *app) pageLimit(n int) int {
	return a.conf.ClampPageSize(n)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withCode(exitUsage, cobra.ExactArgs(n)(cmd, args))
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taskdesk",
		Short:         "Review team tasks and manage organization positions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.APIURL, "api-url", "", "Backend base url (default TASKDESK_API_URL)")
	pf.StringVar(&a.opts.Token, "token", "", "Bearer token (default TASKDESK_TOKEN)")
	pf.StringVar(&a.opts.OrgID, "org", "", "Organization id (default TASKDESK_ORG_ID)")
	pf.StringVar(&a.opts.UserID, "user", "", "Signed-in user id (default TASKDESK_USER_ID)")
	pf.StringVar(&a.opts.SupervisorID, "supervisor", "", "Supervisor whose team is shown (default TASKDESK_SUPERVISOR_ID, then --user)")
	pf.StringVarP(&a.opts.Output, "output", "o", outputJSON, "Output format: json or yaml")
	pf.StringArrayVar(&a.opts.Filters, "filter", nil, "Task filter as key=value, repeatable (status, review_status, start_date, end_date, company, department, team, user_name, user_level, project, search)")

	cmd.AddCommand(newPositionsCmd(a))
	cmd.AddCommand(newTasksCmd(a))
	cmd.AddCommand(newMembersCmd(a))
	cmd.AddCommand(newReviewCmd(a))
	cmd.AddCommand(newSummaryCmd(a))
	cmd.AddCommand(newExportCmd(a))
	return cmd
}

// run executes one invocation and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	defer a.close(context.Background())

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, api.Message(err, err.Error()))
		return exitCode(err)
	}
	return exitOK
}

func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
