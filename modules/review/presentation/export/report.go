// Package export renders review data as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/taskdesk/modules/review/aggregation"
	"github.com/iota-uz/taskdesk/modules/review/domain"
)

const (
	TasksSheet   = "Tasks"
	SummarySheet = "Summary"
)

var taskHeader = []interface{}{
	"Date", "Title", "Status", "Review status", "Reviewed by", "Reviewed at",
	"Forwarded to", "Project", "Company", "Department", "Comments",
}

// ReportWorkbook builds a two-sheet workbook: one row per task of the report,
// then the summary counts. The caller closes the file.
func ReportWorkbook(report domain.UserTaskReport, summary aggregation.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), TasksSheet); err != nil {
		_ = f.Close()
		return nil, gerrors.Wrap(err, "rename sheet")
	}
	if err := writeTasks(f, report); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSummary(f, report.User, summary); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// WriteReport streams the workbook to w.
func WriteReport(w io.Writer, report domain.UserTaskReport, summary aggregation.Summary) error {
	f, err := ReportWorkbook(report, summary)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteTo(w); err != nil {
		return gerrors.Wrap(err, "write workbook")
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDE7F0"}},
	})
}

func writeTasks(f *excelize.File, report domain.UserTaskReport) error {
	if err := f.SetSheetRow(TasksSheet, "A1", &taskHeader); err != nil {
		return gerrors.Wrap(err, "write header")
	}
	style, err := headerStyle(f)
	if err != nil {
		return gerrors.Wrap(err, "header style")
	}
	last, _ := excelize.ColumnNumberToName(len(taskHeader))
	if err := f.SetCellStyle(TasksSheet, "A1", last+"1", style); err != nil {
		return gerrors.Wrap(err, "style header")
	}

	row := 2
	for _, day := range report.Submissions {
		for _, t := range day.Tasks {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := taskRow(day.Date, t)
			if err := f.SetSheetRow(TasksSheet, cell, &values); err != nil {
				return gerrors.Wrapf(err, "write task %s", t.ID)
			}
			row++
		}
	}
	if err := f.SetColWidth(TasksSheet, "A", last, 18); err != nil {
		return gerrors.Wrap(err, "column width")
	}
	return f.SetColWidth(TasksSheet, "B", "B", 40)
}

func taskRow(date string, t domain.Task) []interface{} {
	if date == "" {
		date = t.Day()
	}
	kind := t.Review.Kind
	if kind == "" {
		kind = domain.ReviewPending
	}
	reviewedAt := ""
	if t.Review.ReviewedAt != nil {
		reviewedAt = t.Review.ReviewedAt.UTC().Format(time.RFC3339)
	}
	forwarded := ""
	if fw := t.Review.Forwarding; fw != nil {
		forwarded = string(fw.TargetSupervisorID)
	}
	return []interface{}{
		date,
		t.Title,
		string(t.Status),
		string(kind),
		string(t.Review.ReviewedBy),
		reviewedAt,
		forwarded,
		t.Project,
		t.Company.Label(),
		t.Department.Label(),
		len(t.Comments),
	}
}

func writeSummary(f *excelize.File, user domain.Member, s aggregation.Summary) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return gerrors.Wrap(err, "create summary sheet")
	}
	rows := [][]interface{}{
		{"Member", user.DisplayName()},
		{"Tasks", s.Tasks},
		{"Reviewed", s.Reviewed},
		{"Updated in last 7 days", s.UpdatedLast7Days},
	}
	for _, k := range []domain.ReviewKind{domain.ReviewPending, domain.ReviewApproved, domain.ReviewRejected, domain.ReviewFurtherReview} {
		rows = append(rows, []interface{}{fmt.Sprintf("Review: %s", k), s.ByReview[k]})
	}
	for _, k := range []domain.TaskStatus{domain.TaskPending, domain.TaskInProgress, domain.TaskCompleted, domain.TaskDelayed} {
		rows = append(rows, []interface{}{fmt.Sprintf("Status: %s", k), s.ByStatus[k]})
	}
	rows = append(rows, tally("Department", s.ByDepartment)...)
	rows = append(rows, tally("Company", s.ByCompany)...)

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &r); err != nil {
			return gerrors.Wrap(err, "write summary")
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 28)
}

func tally(label string, counts map[string]int) [][]interface{} {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, []interface{}{fmt.Sprintf("%s: %s", label, k), counts[k]})
	}
	return out
}
