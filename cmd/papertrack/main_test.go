package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrack/internal/exporter"
	"papertrack/internal/services"
	"papertrack/internal/shared/testutil"
	"papertrack/pkg/contracts/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func sampleWorkbook(t *testing.T) string {
	t.Helper()
	return testutil.SampleWorkbook(t, t.TempDir())
}

func TestSummaryCmd(t *testing.T) {
	wb := sampleWorkbook(t)

	out, err := execute(t, "summary", "--workbook", wb, "--json")
	require.NoError(t, err)

	var got struct {
		Summary    domain.Summary      `json:"summary"`
		TopAuthors []domain.AuthorStat `json:"top_authors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 4, got.Summary.TotalPapers)
	assert.Equal(t, 4, got.Summary.UniqueAuthorCount)
	assert.InDelta(t, 210000, got.Summary.TotalAmountSum, 0.001)
	assert.InDelta(t, 80000, got.Summary.TotalPaidSum, 0.001)
	require.NotEmpty(t, got.TopAuthors)
	assert.Equal(t, "alice", got.TopAuthors[0].Key)

	out, err = execute(t, "summary", "--workbook", wb)
	require.NoError(t, err)
	assert.Contains(t, out, "Total Papers")
	assert.Contains(t, strings.ToLower(out), "alice")
}

func TestPapersCmd(t *testing.T) {
	wb := sampleWorkbook(t)

	tests := []struct {
		name        string
		args        []string
		wantSerials []int
	}{
		{name: "no filter", args: nil, wantSerials: []int{1, 2, 3, 4}},
		{name: "by source", args: []string{"--source", "Team Work"}, wantSerials: []int{3, 4}},
		{name: "by author", args: []string{"--author", "DAN"}, wantSerials: []int{3}},
		{name: "by title", args: []string{"--title", "graph"}, wantSerials: []int{2}},
		{name: "blank source selects nothing", args: []string{"--source", ""}, wantSerials: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"papers", "--workbook", wb, "--json"}, tt.args...)
			out, err := execute(t, args...)
			require.NoError(t, err)

			var papers []domain.Paper
			require.NoError(t, json.Unmarshal([]byte(out), &papers))

			serials := make([]int, 0, len(papers))
			for _, p := range papers {
				serials = append(serials, p.Serial)
			}
			assert.ElementsMatch(t, tt.wantSerials, serials)
		})
	}
}

func TestPapersCmd_Table(t *testing.T) {
	out, err := execute(t, "papers", "--workbook", sampleWorkbook(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Edge Caching Strategies")
	assert.Contains(t, out, "Team Work")
}

func TestAuthorsCmd(t *testing.T) {
	wb := sampleWorkbook(t)

	out, err := execute(t, "authors", "--workbook", wb, "--sort", "amount", "--limit", "2", "--json")
	require.NoError(t, err)

	var stats []domain.AuthorStat
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Len(t, stats, 2)
	assert.Equal(t, "alice", stats[0].Key)
	assert.Equal(t, "dan", stats[1].Key)

	_, err = execute(t, "authors", "--workbook", wb, "--sort", "alphabetical")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidSort)
}

func TestExportCmd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, "export", "--workbook", sampleWorkbook(t), "--out", dir)
	require.NoError(t, err)

	for _, name := range []string{exporter.PapersFile, exporter.AuthorsFile, exporter.SummaryFile} {
		path := filepath.Join(dir, name)
		assert.FileExists(t, path)
		assert.Contains(t, out, path)
	}

	data, err := os.ReadFile(filepath.Join(dir, exporter.PapersFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Quantum Annealing Survey")
}

func TestArchiveCmd(t *testing.T) {
	wb := sampleWorkbook(t)
	db := filepath.Join(t.TempDir(), "snapshots.db")

	out, err := execute(t, "archive", "--workbook", wb, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "archived snapshot")
	assert.Contains(t, out, "(4 papers)")

	out, err = execute(t, "archive", "list", "--workbook", wb, "--db", db, "--json")
	require.NoError(t, err)
	var snapshots []domain.SnapshotInfo
	require.NoError(t, json.Unmarshal([]byte(out), &snapshots))
	require.Len(t, snapshots, 1)
	assert.Equal(t, 4, snapshots[0].PaperCount)

	out, err = execute(t, "archive", "papers", snapshots[0].ID, "--workbook", wb, "--db", db, "--json")
	require.NoError(t, err)
	var papers []domain.Paper
	require.NoError(t, json.Unmarshal([]byte(out), &papers))
	assert.Len(t, papers, 4)

	out, err = execute(t, "archive", "list", "--workbook", wb, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, snapshots[0].ID)
}

func TestArchiveCmd_Disabled(t *testing.T) {
	_, err := execute(t, "archive", "--workbook", sampleWorkbook(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrArchiveDisabled)
	assert.Contains(t, err.Error(), "--db")
}

func TestMissingWorkbook(t *testing.T) {
	out, err := execute(t, "papers", "--workbook", filepath.Join(t.TempDir(), "absent.xlsx"), "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestInfoCmds(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "papertrack v")

	out, err = execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "PAPERTRACK_WORKBOOK_PATH")
}
