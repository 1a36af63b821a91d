package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iota-uz/taskdesk/modules/review/aggregation"
	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/services"
)

func newReviewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review submitted tasks",
	}
	cmd.AddCommand(newReviewSubmitCmd(a))
	cmd.AddCommand(newReviewCandidatesCmd(a))
	return cmd
}

// candidates lists the members the session user may forward a task to.
func (a *app) candidates(ctx context.Context) ([]domain.Member, error) {
	members, err := a.mod.Store.FetchTeamMembers(ctx, a.session(), a.supervisorID())
	if err != nil {
		return nil, err
	}
	out := aggregation.FurtherReviewCandidates(members, aggregation.Reviewer(members, a.session().UserID))
	if out == nil {
		out = []domain.Member{}
	}
	return out, nil
}

func newReviewSubmitCmd(a *app) *cobra.Command {
	var (
		status         string
		comment        string
		forwardTo      string
		forwardComment string
	)
	cmd := &cobra.Command{
		Use:   "submit <task-id> --status approved|rejected|further_review",
		Short: "Approve, reject or forward a task",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess := a.session()
			kind, err := domain.ParseReviewKind(status)
			if err != nil {
				return withCode(exitUsage, err)
			}

			// Loading the dashboard lets the store reject already reviewed tasks locally.
			page := services.PageRequest{Page: 1, Limit: a.conf.MaxPageSize}
			if err := a.mod.Store.LoadDashboard(ctx, sess, a.supervisorID(), page); err != nil {
				a.conf.Logger().WithError(err).Warn("dashboard partially loaded")
			}

			var candidates []domain.Member
			if kind == domain.ReviewFurtherReview {
				candidates, err = a.candidates(ctx)
				if err != nil {
					return err
				}
			}
			task, err := a.mod.Store.SubmitReview(ctx, sess, services.ReviewDecision{
				TaskID:                    domain.ID(args[0]),
				Status:                    kind,
				Comment:                   comment,
				FurtherReviewSupervisorID: domain.ID(forwardTo),
				ReviewComment:             forwardComment,
			}, candidates)
			if err != nil {
				return err
			}
			return a.print(cmd, task)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Decision: approved, rejected or further_review")
	cmd.Flags().StringVar(&comment, "comment", "", "Comment attached to the task")
	cmd.Flags().StringVar(&forwardTo, "forward-to", "", "Supervisor receiving a further_review decision")
	cmd.Flags().StringVar(&forwardComment, "forward-comment", "", "Note for the further review supervisor")
	return cmd
}

func newReviewCandidatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "Supervisors a task can be forwarded to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.candidates(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, out)
		},
	}
}
