package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
	"github.com/iota-uz/taskdesk/modules/review/services"
)

type pageFlags struct {
	Page  int
	Limit int
}

func (f *pageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Page size (default PAGE_SIZE, capped at MAX_PAGE_SIZE)")
}

func (f *pageFlags) request(a *app) services.PageRequest {
	return services.PageRequest{Page: f.Page, Limit: a.pageLimit(f.Limit)}
}

type rangeFlags struct {
	Start string
	End   string
}

func (f *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Start, "start", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.End, "end", "", "Last day, YYYY-MM-DD")
}

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Browse submitted tasks",
	}
	cmd.AddCommand(newTasksTeamCmd(a))
	cmd.AddCommand(newTasksHierarchicalCmd(a))
	cmd.AddCommand(newTasksAdminCmd(a))
	cmd.AddCommand(newTasksTeamsDailyCmd(a))
	cmd.AddCommand(newTasksReportCmd(a))
	cmd.AddCommand(newTasksFurtherReviewCmd(a))
	return cmd
}

func newTasksTeamCmd(a *app) *cobra.Command {
	var page pageFlags
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Tasks of the supervisor's direct reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.mod.Store.FetchTeamTasks(cmd.Context(), a.session(), a.supervisorID(), page.request(a))
			if err != nil {
				return err
			}
			return a.print(cmd, p)
		},
	}
	page.bind(cmd)
	return cmd
}

func newTasksHierarchicalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hierarchical",
		Short: "Tasks of everyone below the supervisor, grouped by team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.mod.Store.FetchHierarchicalTasks(cmd.Context(), a.session(), a.supervisorID())
			if err != nil {
				return err
			}
			return a.print(cmd, h)
		},
	}
}

func newTasksAdminCmd(a *app) *cobra.Command {
	var page pageFlags
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Daily tasks of every member of the organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.mod.Store.FetchAdminDailyTasks(cmd.Context(), a.session(), page.request(a))
			if err != nil {
				return err
			}
			return a.print(cmd, p)
		},
	}
	page.bind(cmd)
	return cmd
}

func newTasksTeamsDailyCmd(a *app) *cobra.Command {
	var days rangeFlags
	cmd := &cobra.Command{
		Use:   "teams-daily",
		Short: "Daily tasks grouped by team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			teams, err := a.mod.Store.FetchTeamsDailyTasks(cmd.Context(), a.session(), api.TeamsDailyParams{
				StartDate: days.Start,
				EndDate:   days.End,
			})
			if err != nil {
				return err
			}
			return a.print(cmd, teams)
		},
	}
	days.bind(cmd)
	return cmd
}

func newTasksReportCmd(a *app) *cobra.Command {
	var (
		page pageFlags
		days rangeFlags
	)
	cmd := &cobra.Command{
		Use:   "report <user-id>",
		Short: "Submission history of one user",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := page.request(a)
			report, err := a.mod.Store.FetchUserReport(cmd.Context(), a.session(), api.UserReportParams{
				UserID:    domain.ID(args[0]),
				Page:      req.Page,
				Limit:     req.Limit,
				StartDate: days.Start,
				EndDate:   days.End,
			})
			if err != nil {
				return err
			}
			return a.print(cmd, report)
		},
	}
	page.bind(cmd)
	days.bind(cmd)
	return cmd
}

func newTasksFurtherReviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "further-review",
		Short: "Tasks forwarded to the supervisor for further review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := a.mod.Store.FetchFurtherReviewQueue(cmd.Context(), a.session(), a.supervisorID())
			if err != nil {
				return err
			}
			return a.print(cmd, tasks)
		},
	}
}

func newMembersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "Members visible to the supervisor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			members, err := a.mod.Store.FetchTeamMembers(cmd.Context(), a.session(), a.supervisorID())
			if err != nil {
				return err
			}
			return a.print(cmd, members)
		},
	}
}
