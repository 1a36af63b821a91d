package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/taskdesk/internal/stubapi"
	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
	"github.com/iota-uz/taskdesk/pkg/serrors"
)

func startStub(t *testing.T) *stubapi.Backend {
	t.Helper()
	b := stubapi.New(stubapi.Options{OrgID: "1", Token: "secret", UserID: stubapi.ManagerID})
	stubapi.Seed(b)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	srv := httptest.NewServer(stubapi.NewHandler(b, log))
	t.Cleanup(srv.Close)

	t.Setenv("TASKDESK_API_URL", srv.URL)
	t.Setenv("TASKDESK_TOKEN", "secret")
	t.Setenv("TASKDESK_ORG_ID", "1")
	t.Setenv("TASKDESK_USER_ID", stubapi.ManagerID.String())
	t.Setenv("TASKDESK_SUPERVISOR_ID", "")
	t.Setenv("LOG_LEVEL", "silent")
	return b
}

func execCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_PositionsListAndTree(t *testing.T) {
	startStub(t)

	code, out, _ := execCLI(t, "positions", "list")
	require.Equal(t, exitOK, code)
	var items []domain.Position
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 3)

	code, out, _ = execCLI(t, "positions", "hierarchy", "--tree")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "Chief Executive (p1)\n  Engineering Manager (p2)\n    Platform Engineer (p3)\n", out)
}

func TestCLI_PositionsUpdateSendsChangedFields(t *testing.T) {
	b := startStub(t)

	code, _, errOut := execCLI(t, "positions", "update", "p3", "--title", "Staff Engineer")
	require.Equal(t, exitOK, code, errOut)

	positions := b.Positions()
	i := domain.IndexOfPosition(positions, "p3")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "Staff Engineer", positions[i].Title)
	require.NotNil(t, positions[i].DirectSupervisor)
	assert.Equal(t, domain.ID("p2"), positions[i].DirectSupervisor.ID)
}

func TestCLI_PositionsUpdateDryRun(t *testing.T) {
	b := startStub(t)

	code, out, errOut := execCLI(t, "positions", "update", "p3", "--title", "Staff Engineer", "--dry-run")
	require.Equal(t, exitOK, code, errOut)

	var ops []struct {
		Op    string `json:"op"`
		Path  string `json:"path"`
		Value any    `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, "replace", ops[0].Op)
	assert.Equal(t, "/title", ops[0].Path)
	assert.Equal(t, "Staff Engineer", ops[0].Value)

	positions := b.Positions()
	assert.Equal(t, "Platform Engineer", positions[domain.IndexOfPosition(positions, "p3")].Title)
}

func TestCLI_YAMLOutput(t *testing.T) {
	startStub(t)

	code, out, errOut := execCLI(t, "-o", "yaml", "positions", "get", "p1")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "title: Chief Executive\n")

	code, _, _ = execCLI(t, "-o", "xml", "positions", "get", "p1")
	assert.Equal(t, exitUsage, code)
}

func TestCLI_APIErrorExitCode(t *testing.T) {
	startStub(t)

	code, _, errOut := execCLI(t, "positions", "get", "p404")
	assert.Equal(t, exitAPI, code)
	assert.Contains(t, errOut, "Position not found")
}

func TestCLI_UsageErrors(t *testing.T) {
	startStub(t)

	code, _, _ := execCLI(t, "positions", "list", "--no-such-flag")
	assert.Equal(t, exitUsage, code)

	code, _, errOut := execCLI(t, "--filter", "colour=red", "tasks", "team")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "unknown filter")

	code, _, _ = execCLI(t, "positions", "get")
	assert.Equal(t, exitUsage, code)
}

func TestCLI_ReviewSubmitTwice(t *testing.T) {
	b := startStub(t)

	code, out, errOut := execCLI(t, "review", "submit", "t-101", "--status", "approved", "--comment", "ship it")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, `"approved"`)

	task, ok := b.Task("t-101")
	require.True(t, ok)
	assert.True(t, task.Review.Reviewed())

	code, _, errOut = execCLI(t, "review", "submit", "t-101", "--status", "rejected")
	assert.Equal(t, exitValidation, code)
	assert.Contains(t, errOut, "already been reviewed")
}

func TestCLI_ReviewForwardRequiresComment(t *testing.T) {
	startStub(t)

	code, _, errOut := execCLI(t, "review", "submit", "t-102", "--status", "further_review", "--forward-to", stubapi.DirectorID.String())
	assert.Equal(t, exitValidation, code)
	assert.Contains(t, errOut, "Further review comment is required")
}

func TestCLI_SummaryAppliesFilters(t *testing.T) {
	startStub(t)

	code, out, errOut := execCLI(t, "--filter", "team=Platform", "summary", "--source", "team")
	require.Equal(t, exitOK, code, errOut)

	var got struct {
		Summary struct {
			Members int
			Tasks   int
		} `json:"summary"`
		Candidates struct {
			Companies []string `json:"companies"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Summary.Members)
	assert.Equal(t, 2, got.Summary.Tasks)
	assert.Equal(t, []string{"Acme"}, got.Candidates.Companies)
}

func TestCLI_SummaryHierarchicalCountsEachTaskOnce(t *testing.T) {
	startStub(t)

	code, out, errOut := execCLI(t, "summary")
	require.Equal(t, exitOK, code, errOut)

	var got struct {
		Summary struct {
			Members   int
			Tasks     int
			ByCompany map[string]int
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Summary.Members)
	assert.Equal(t, 5, got.Summary.Tasks)
	assert.Equal(t, map[string]int{"Acme": 4, "Globex": 1}, got.Summary.ByCompany)
}

func TestCLI_SummaryFilterIgnoresCase(t *testing.T) {
	startStub(t)

	code, out, errOut := execCLI(t, "--filter", "company=acme", "summary")
	require.Equal(t, exitOK, code, errOut)

	var got struct {
		Candidates struct {
			Departments []string `json:"departments"`
			Users       []string `json:"users"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"Engineering", "Sales"}, got.Candidates.Departments)
	assert.Equal(t, []string{"kim", "lee"}, got.Candidates.Users)
}

func TestCLI_ExportReport(t *testing.T) {
	startStub(t)
	path := filepath.Join(t.TempDir(), "kim.xlsx")

	code, out, errOut := execCLI(t, "export", "report", stubapi.SalesID.String(), "--out", path)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, `"tasks": 2`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"explicit", withCode(exitIO, errors.New("disk full")), exitIO},
		{"api", &api.Error{Operation: api.OpListPositions, Status: 500}, exitAPI},
		{"validation", serrors.NewFieldRequiredError("Title", ""), exitValidation},
		{"validation map", serrors.ValidationErrors{"Title": "Title is required"}, exitValidation},
		{"other", errors.New("boom"), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}
