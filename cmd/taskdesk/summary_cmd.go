package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/taskdesk/modules/review/aggregation"
	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
)

const (
	sourceTeam         = "team"
	sourceHierarchical = "hierarchical"
	sourceAdmin        = "admin"
	sourceTeamsDaily   = "teams-daily"
	sourceReport       = "report"
)

type sourceFlags struct {
	Source string
	UserID string
	rangeFlags
	pageFlags
}

func (f *sourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Source, "source", sourceHierarchical, "Collection to summarize: team, hierarchical, admin, teams-daily or report")
	cmd.Flags().StringVar(&f.UserID, "report-user", "", "User id for --source report")
	f.rangeFlags.bind(cmd)
	f.pageFlags.bind(cmd)
}

// records fetches the selected collection through the store and flattens it.
func (a *app) records(ctx context.Context, f sourceFlags) ([]aggregation.Record, error) {
	sess := a.session()
	store := a.mod.Store
	switch f.Source {
	case sourceTeam:
		p, err := store.FetchTeamTasks(ctx, sess, a.supervisorID(), f.request(a))
		return aggregation.RecordsFromTeamTasks(p.Items), err
	case sourceHierarchical:
		h, err := store.FetchHierarchicalTasks(ctx, sess, a.supervisorID())
		return aggregation.RecordsFromHierarchical(h), err
	case sourceAdmin:
		p, err := store.FetchAdminDailyTasks(ctx, sess, f.request(a))
		return aggregation.RecordsFromAdmin(p.Items), err
	case sourceTeamsDaily:
		teams, err := store.FetchTeamsDailyTasks(ctx, sess, api.TeamsDailyParams{StartDate: f.Start, EndDate: f.End})
		return aggregation.RecordsFromTeamsDaily(teams), err
	case sourceReport:
		req := f.request(a)
		report, err := store.FetchUserReport(ctx, sess, api.UserReportParams{
			UserID:    domain.ID(f.UserID),
			Page:      req.Page,
			Limit:     req.Limit,
			StartDate: f.Start,
			EndDate:   f.End,
		})
		if err != nil {
			return nil, err
		}
		return aggregation.RecordsFromReport(&report), nil
	default:
		return nil, withCode(exitUsage, fmt.Errorf("unknown --source %q", f.Source))
	}
}

type candidateLists struct {
	Companies   []string `json:"companies"`
	Departments []string `json:"departments"`
	Teams       []string `json:"teams"`
	Users       []string `json:"users"`
}

type summaryOutput struct {
	Source     string              `json:"source"`
	Filters    domain.Filters      `json:"filters"`
	Candidates candidateLists      `json:"candidates"`
	Summary    aggregation.Summary `json:"summary"`
}

func newSummaryCmd(a *app) *cobra.Command {
	var f sourceFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Filter candidates and counts for a task collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.records(cmd.Context(), f)
			if err != nil {
				return err
			}
			filters := a.mod.Store.Filters()
			ix := aggregation.BuildIndex(records)
			return a.print(cmd, summaryOutput{
				Source:  f.Source,
				Filters: filters,
				Candidates: candidateLists{
					Companies:   ix.Companies(),
					Departments: ix.Departments(filters),
					Teams:       ix.Teams(filters),
					Users:       ix.Users(filters),
				},
				Summary: aggregation.Summarize(aggregation.Apply(records, filters), time.Now()),
			})
		},
	}
	f.bind(cmd)
	return cmd
}
