package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/taskdesk/modules/review/aggregation"
	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
	"github.com/iota-uz/taskdesk/modules/review/presentation/export"
)

type exportOutput struct {
	File  string `json:"file"`
	User  string `json:"user"`
	Tasks int    `json:"tasks"`
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export task data to spreadsheets",
	}
	cmd.AddCommand(newExportReportCmd(a))
	return cmd
}

func newExportReportCmd(a *app) *cobra.Command {
	var (
		out  string
		page pageFlags
		days rangeFlags
	)
	cmd := &cobra.Command{
		Use:   "report <user-id> --out <file.xlsx>",
		Short: "Write a user's task report and summary to an xlsx workbook",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return withCode(exitUsage, fmt.Errorf("--out is required"))
			}
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
			summary := aggregation.Summarize(aggregation.RecordsFromReport(&report), time.Now())

			f, err := os.Create(out)
			if err != nil {
				return withCode(exitIO, err)
			}
			if err := export.WriteReport(f, report, summary); err != nil {
				_ = f.Close()
				return withCode(exitIO, err)
			}
			if err := f.Close(); err != nil {
				return withCode(exitIO, err)
			}
			return a.print(cmd, exportOutput{
				File:  out,
				User:  report.User.DisplayName(),
				Tasks: summary.Tasks,
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Destination xlsx file")
	page.bind(cmd)
	days.bind(cmd)
	return cmd
}
